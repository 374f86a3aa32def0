package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jaxxstorm/devdiag/internal/config"
	"github.com/jaxxstorm/devdiag/internal/diagnostics"
	"github.com/jaxxstorm/devdiag/internal/health"
	"github.com/jaxxstorm/devdiag/internal/model"
	"github.com/jaxxstorm/devdiag/internal/output"
	"github.com/jaxxstorm/devdiag/internal/panel"
	"github.com/jaxxstorm/devdiag/internal/platform"
	"github.com/jaxxstorm/devdiag/internal/resolve"
	"github.com/jaxxstorm/devdiag/internal/tui"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var Version = "dev"

type CLI struct {
	Run     RunCmd     `cmd:"" default:"withargs" help:"Run the diagnostics once (default)."`
	Watch   WatchCmd   `cmd:"watch" help:"Interactive panel: run again, copy the fix, open help."`
	Health  HealthCmd  `cmd:"health" help:"Check the backend health endpoints."`
	Version VersionCmd `cmd:"version" help:"Print version."`
}

type CheckFlags struct {
	Origin          string        `arg:"" name:"origin" optional:"" help:"Origin URL of the page being diagnosed. Defaults to the working directory as a file:// origin."`
	Config          string        `short:"c" help:"YAML config file."`
	Ports           []int         `name:"port" help:"Local port to probe (repeatable). Overrides the configured set."`
	LocalPath       string        `help:"Path requested on each local port."`
	ExternalURL     string        `name:"external-url" help:"IP echo endpoint for the external probe."`
	AdapterURL      string        `name:"adapter-url" help:"Host pinged with HEAD by the adapter check."`
	PortTimeout     time.Duration `help:"Time budget per local port."`
	ExternalTimeout time.Duration `help:"Time budget for the external probe."`
	AdapterTimeout  time.Duration `help:"Time budget for the adapter probe."`
	Parallelism     int           `help:"Probes in flight at once (1 runs them sequentially)."`
	NoDNS           bool          `name:"no-dns" help:"Skip the DNS annotation on the adapter check."`
	LogFile         string        `help:"Write logs to this file instead of stderr."`
	Verbose         bool          `help:"Enable verbose logging."`
	Debug           bool          `help:"Enable debug logging."`
}

type RunCmd struct {
	CheckFlags `embed:""`
	Output     string `enum:"pretty,json" default:"pretty" help:"Output format."`
	Live       bool   `default:"true" negatable:"" help:"Print each check as it lands (pretty output only)."`
	CopyFix    bool   `help:"Copy the top finding's command to the clipboard."`
	OpenHelp   bool   `help:"Open the top finding's help page."`
}

type WatchCmd struct {
	CheckFlags `embed:""`
}

type HealthCmd struct {
	BaseURL string        `arg:"" name:"base-url" optional:"" help:"Backend base URL. Defaults to the configured healthBaseUrl."`
	Config  string        `short:"c" help:"YAML config file."`
	Timeout time.Duration `default:"3s" help:"Time budget per endpoint."`
	Output  string        `enum:"pretty,json" default:"pretty" help:"Output format."`
	Verbose bool          `help:"Enable verbose logging."`
	Debug   bool          `help:"Enable debug logging."`
}

type VersionCmd struct{}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("devdiag"),
		kong.Description("Diagnose why a locally developed page cannot reach its dev server or the network."),
	)

	command := ""
	if ctx.Selected() != nil {
		command = ctx.Selected().Name
	}

	switch command {
	case "version":
		fmt.Println(Version)
	case "health":
		os.Exit(runHealth(cli.Health))
	case "watch":
		os.Exit(runWatch(cli.Watch))
	default:
		os.Exit(runOnce(cli.Run))
	}
}

// runOnce returns the exit code so deferred syncs run before the process exits.
func runOnce(cmd RunCmd) int {
	logger, err := newLogger(cmd.Verbose, cmd.Debug, cmd.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	var live io.Writer
	if cmd.Output == "pretty" && cmd.Live {
		live = os.Stdout
	}
	p := panel.New(live)

	caps := platform.NewSystem(platform.SystemOptions{Logger: logger})
	orch, err := setup(cmd.CheckFlags, caps, logger)
	if err != nil {
		startupFailure(logger, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runID := orch.NewRunID()
	if live != nil {
		cfg := orch.Config()
		fmt.Println(output.Header(runID, cfg.Origin, orch.Scheme(), cfg.LocalPorts))
		fmt.Println()
	}
	p.Begin(runID)
	run := orch.Run(ctx, runID, p)

	if cmd.Output == "json" {
		rendered, err := output.RenderJSON(run)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(rendered)
	} else if live != nil {
		fmt.Println()
		fmt.Println(output.Footer(run))
	} else {
		fmt.Println(output.RenderPretty(run))
	}

	if primary, ok := run.Primary(); ok {
		if cmd.CopyFix {
			reportAction(logger, "copied: "+primary.Command, diagnostics.CopyCommand(caps, primary))
		}
		if cmd.OpenHelp {
			reportAction(logger, "opened: "+primary.HelpURL, diagnostics.OpenHelp(caps, primary))
		}
	}

	return exitCode(run)
}

// exitCode is 2 when the run produced findings.
func exitCode(run model.Run) int {
	if len(run.Findings) > 0 {
		return 2
	}
	return 0
}

func runWatch(cmd WatchCmd) int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "watch needs an interactive terminal; running once instead")
		return runOnce(RunCmd{CheckFlags: cmd.CheckFlags, Output: "pretty", Live: true})
	}

	// Logs would tear the alt screen, so they only go to a file when asked.
	logger := zap.NewNop()
	if cmd.LogFile != "" {
		built, err := newLogger(cmd.Verbose, cmd.Debug, cmd.LogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		logger = built
	}
	defer func() { _ = logger.Sync() }()

	p := panel.New(nil)
	caps := platform.NewSystem(platform.SystemOptions{Logger: logger})
	orch, err := setup(cmd.CheckFlags, caps, logger)
	if err != nil {
		startupFailure(logger, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	program := tea.NewProgram(tui.NewModel(ctx, orch, caps, p), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runHealth(cmd HealthCmd) int {
	logger, err := newLogger(cmd.Verbose, cmd.Debug, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(cmd.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, output.RenderError(err))
		return 1
	}
	baseURL := cmd.BaseURL
	if baseURL == "" {
		baseURL = cfg.HealthBaseURL
	}

	checker := health.NewChecker(platform.NewSystem(platform.SystemOptions{Logger: logger}), health.Config{
		Timeout: cmd.Timeout,
		Logger:  logger,
	})
	status, err := checker.Check(context.Background(), baseURL)
	if err != nil {
		logger.Warn("backend health check failed", zap.String("base_url", baseURL), zap.Error(err))
		fmt.Println(output.RenderError(err))
		fmt.Println("     start the backend (for example `npm start`) and check the port it listens on")
		return 2
	}

	if cmd.Output == "json" {
		rendered, err := output.RenderHealthJSON(status)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(rendered)
		return 0
	}
	fmt.Println(output.RenderHealth(status))
	return 0
}

func setup(flags CheckFlags, caps platform.Capabilities, logger *zap.Logger) (*diagnostics.Orchestrator, error) {
	cfg, err := config.Load(flags.Config)
	if err != nil {
		return nil, err
	}
	applyFlags(&cfg, flags)

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cfg.Origin = config.ResolveOrigin(cfg.Origin, cwd)

	opts := diagnostics.Options{Logger: logger}
	if !flags.NoDNS {
		opts.Resolver = resolve.New(resolve.Options{Timeout: cfg.AdapterTimeout(), Logger: logger})
	}
	return diagnostics.New(caps, cfg, opts)
}

func applyFlags(cfg *config.Config, flags CheckFlags) {
	if flags.Origin != "" {
		cfg.Origin = flags.Origin
	}
	if len(flags.Ports) > 0 {
		cfg.LocalPorts = flags.Ports
	}
	if flags.LocalPath != "" {
		cfg.LocalPath = flags.LocalPath
	}
	if flags.ExternalURL != "" {
		cfg.ExternalProbeURL = flags.ExternalURL
	}
	if flags.AdapterURL != "" {
		cfg.AdapterProbeURL = flags.AdapterURL
	}
	if flags.PortTimeout > 0 {
		cfg.PerPortTimeoutMs = int(flags.PortTimeout.Milliseconds())
	}
	if flags.ExternalTimeout > 0 {
		cfg.ExternalTimeoutMs = int(flags.ExternalTimeout.Milliseconds())
	}
	if flags.AdapterTimeout > 0 {
		cfg.AdapterTimeoutMs = int(flags.AdapterTimeout.Milliseconds())
	}
	if flags.Parallelism > 0 {
		cfg.Parallelism = flags.Parallelism
	}
}

// startupFailure is the one unrecoverable path: no run can start.
func startupFailure(logger *zap.Logger, err error) {
	logger.Error("diagnostics failed to initialize", zap.Error(err))
	panel.New(os.Stderr).Fail(err)
	_ = logger.Sync()
	os.Exit(1)
}

func reportAction(logger *zap.Logger, done string, err error) {
	if err != nil {
		logger.Warn("action failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, output.RenderError(err))
		return
	}
	fmt.Fprintln(os.Stderr, done)
}

func newLogger(verbose bool, debug bool, logFile string) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		} else {
			cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		}
	}
	if logFile != "" {
		cfg.OutputPaths = []string{logFile}
	}
	return cfg.Build()
}

var _ diagnostics.Sink = (*panel.Panel)(nil)
