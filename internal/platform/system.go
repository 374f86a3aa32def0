package platform

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/pkg/browser"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

type SystemOptions struct {
	// Terminal receives clipboard escape sequences. Defaults to stderr.
	Terminal io.Writer
	Logger   *zap.Logger
}

// System implements Capabilities on top of the host OS.
type System struct {
	client   *http.Client
	opaque   *http.Client
	terminal io.Writer
	logger   *zap.Logger
	ifaces   func() ([]net.Interface, error)
	addrs    func(net.Interface) ([]net.Addr, error)
}

func NewSystem(opts SystemOptions) *System {
	if opts.Terminal == nil {
		opts.Terminal = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: 5 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        16,
		IdleConnTimeout:     30 * time.Second,
	}
	// Opaque probes stop at the first response, redirect or not. Everything else follows
	// redirects like fetch does.
	opaque := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &System{
		client:   &http.Client{Transport: transport},
		opaque:   opaque,
		terminal: opts.Terminal,
		logger:   opts.Logger,
		ifaces:   net.Interfaces,
		addrs:    func(iface net.Interface) ([]net.Addr, error) { return iface.Addrs() },
	}
}

func (s *System) TimedFetch(ctx context.Context, req Request) (Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, nil)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Cache-Control", "no-cache")

	client := s.client
	if req.Opaque {
		client = s.opaque
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	out := Response{StatusCode: resp.StatusCode}
	if req.Opaque || req.Method == http.MethodHead {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return out, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return out, fmt.Errorf("read body: %w", err)
	}
	out.Body = body
	return out, nil
}

func (s *System) IsOnline() bool {
	ifaces, err := s.ifaces()
	if err != nil {
		s.logger.Debug("list interfaces failed", zap.Error(err))
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := s.addrs(iface)
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ipNet.IP.IsGlobalUnicast() {
				return true
			}
		}
	}
	return false
}

func (s *System) WriteClipboard(text string) error {
	seq := osc52.New(text)
	switch {
	case os.Getenv("TMUX") != "":
		seq = seq.Tmux()
	case strings.HasPrefix(os.Getenv("TERM"), "screen"):
		seq = seq.Screen()
	}
	if _, err := seq.WriteTo(s.terminal); err != nil {
		return fmt.Errorf("write clipboard sequence: %w", err)
	}
	return nil
}

func (s *System) OpenExternal(url string) error {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}
