package diagnostics

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jaxxstorm/devdiag/internal/analyze"
	"github.com/jaxxstorm/devdiag/internal/config"
	"github.com/jaxxstorm/devdiag/internal/model"
	"github.com/jaxxstorm/devdiag/internal/output"
	"github.com/jaxxstorm/devdiag/internal/platform"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Resolver annotates the adapter check with a DNS signal. Optional.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Sink receives results as they land and the completed run. A false return means the
// write was rejected as stale.
type Sink interface {
	Append(result model.CheckResult) bool
	Complete(run model.Run) bool
}

type Options struct {
	Logger   *zap.Logger
	Resolver Resolver
	Now      func() time.Time
	NewID    func() string
}

type Orchestrator struct {
	caps   platform.Capabilities
	cfg    config.Config
	opts   Options
	scheme string
}

func New(caps platform.Capabilities, cfg config.Config, opts Options) (*Orchestrator, error) {
	if caps == nil {
		return nil, platform.ErrNoCapabilities
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Origin) == "" {
		return nil, fmt.Errorf("origin is required")
	}
	scheme, err := originScheme(cfg.Origin)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	cfg.LocalPorts = append([]int{}, cfg.LocalPorts...)
	return &Orchestrator{caps: caps, cfg: cfg, opts: opts, scheme: scheme}, nil
}

func (o *Orchestrator) Config() config.Config {
	return o.cfg
}

// Scheme is the origin scheme, "file" for pages opened from disk.
func (o *Orchestrator) Scheme() string {
	return o.scheme
}

func (o *Orchestrator) NewRunID() string {
	return o.opts.NewID()
}

// Run executes every check once and returns the completed run. Each call is independent;
// there are no retries.
func (o *Orchestrator) Run(ctx context.Context, runID string, sink Sink) model.Run {
	if runID == "" {
		runID = o.NewRunID()
	}
	logger := o.opts.Logger.With(zap.String("run_id", runID))

	run := model.Run{
		ID:        runID,
		Origin:    o.cfg.Origin,
		Scheme:    o.scheme,
		Ports:     append([]int{}, o.cfg.LocalPorts...),
		StartedAt: o.opts.Now(),
	}
	emit := func(result *model.CheckResult) {
		result.RunID = runID
		logger.Debug("check finished",
			zap.String("kind", string(result.Kind)),
			zap.String("target", result.Target),
			zap.Bool("ok", result.OK),
			zap.String("detail", result.Detail),
		)
		if sink != nil {
			sink.Append(*result)
		}
	}

	protocol := o.checkProtocol()
	emit(&protocol)

	ports := make([]model.CheckResult, len(o.cfg.LocalPorts))
	var external, adapter model.CheckResult

	g := errgroup.Group{}
	g.SetLimit(o.cfg.Parallelism)
	for i, port := range o.cfg.LocalPorts {
		g.Go(func() error {
			ports[i] = o.checkPort(ctx, port)
			emit(&ports[i])
			return nil
		})
	}
	g.Go(func() error {
		external = o.checkExternal(ctx)
		emit(&external)
		return nil
	})
	g.Go(func() error {
		adapter = o.checkAdapter(ctx)
		emit(&adapter)
		return nil
	})
	_ = g.Wait()

	run.Results = make([]model.CheckResult, 0, len(ports)+3)
	run.Results = append(run.Results, protocol)
	run.Results = append(run.Results, ports...)
	run.Results = append(run.Results, external, adapter)
	run.Findings = analyze.Findings(run.Results, analyze.Remedies{
		ServeCommand: o.cfg.ServeCommand,
		HelpURL:      o.cfg.HelpURL,
	})
	run.FinishedAt = o.opts.Now()

	output.LogSummary(logger, run)
	if sink != nil {
		sink.Complete(run)
	}
	return run
}

func originScheme(origin string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil {
		return "", fmt.Errorf("parse origin %q: %w", origin, err)
	}
	// No scheme, or a drive letter, means a filesystem path.
	if len(u.Scheme) <= 1 {
		return "file", nil
	}
	return strings.ToLower(u.Scheme), nil
}
