package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jaxxstorm/devdiag/internal/model"
	"github.com/jaxxstorm/devdiag/internal/platform"
	"go.uber.org/zap"
)

func (o *Orchestrator) checkProtocol() model.CheckResult {
	result := model.CheckResult{
		Kind:   model.KindProtocol,
		Target: o.cfg.Origin,
		OK:     true,
		Detail: o.scheme,
	}
	if o.scheme == "file" {
		result.OK = false
		result.Detail = model.DetailFileOrigin
		result.Hint = "the page is opened straight from disk; browsers block most requests from file origins, so serve it over HTTP"
	}
	return result
}

func (o *Orchestrator) checkPort(ctx context.Context, port int) model.CheckResult {
	target := fmt.Sprintf("http://localhost:%d%s", port, o.cfg.LocalPath)
	result := model.CheckResult{
		Kind:   model.KindLocalPort,
		Target: target,
		Port:   port,
	}

	start := time.Now()
	resp, err := o.caps.TimedFetch(ctx, platform.Request{
		Method:  http.MethodGet,
		URL:     cacheBust(target, o.opts.Now()),
		Timeout: o.cfg.PerPortTimeout(),
		Opaque:  true,
	})
	result.Duration = time.Since(start).String()
	if err != nil {
		result.Failure = platform.Classify(err)
		result.Detail = err.Error()
		result.Hint = fmt.Sprintf("nothing answered on port %d; start the dev server there, for example `%s`", port, o.cfg.ServeCommand)
		o.opts.Logger.Debug("local port probe failed", zap.Int("port", port), zap.Error(err))
		return result
	}
	result.OK = true
	result.Detail = fmt.Sprintf("HTTP %d", resp.StatusCode)
	return result
}

type ipEcho struct {
	IP string `json:"ip"`
}

func (o *Orchestrator) checkExternal(ctx context.Context) model.CheckResult {
	result := model.CheckResult{
		Kind:   model.KindExternal,
		Target: o.cfg.ExternalProbeURL,
	}
	hint := "outbound requests did not complete; a proxy, VPN or firewall may be interfering (heuristic, not verified)"

	start := time.Now()
	resp, err := o.caps.TimedFetch(ctx, platform.Request{
		Method:  http.MethodGet,
		URL:     o.cfg.ExternalProbeURL,
		Timeout: o.cfg.ExternalTimeout(),
	})
	result.Duration = time.Since(start).String()
	if err != nil {
		result.Failure = platform.Classify(err)
		result.Detail = err.Error()
		result.Hint = hint
		return result
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Failure = model.FailureNetwork
		result.Detail = fmt.Sprintf("unexpected status HTTP %d", resp.StatusCode)
		result.Hint = hint
		return result
	}

	var echo ipEcho
	if err := json.Unmarshal(resp.Body, &echo); err != nil {
		result.Failure = model.FailureParse
		result.Detail = fmt.Sprintf("decode ip response: %v", err)
		result.Hint = "the IP echo endpoint answered with something unexpected; a captive portal or filtering proxy may be rewriting responses"
		return result
	}
	ip := net.ParseIP(strings.TrimSpace(echo.IP))
	if ip == nil {
		result.Failure = model.FailureParse
		result.Detail = fmt.Sprintf("response has no valid ip: %q", echo.IP)
		result.Hint = "the IP echo endpoint answered with something unexpected; a captive portal or filtering proxy may be rewriting responses"
		return result
	}

	result.OK = true
	result.IP = ip.String()
	result.Detail = ip.String()
	return result
}

func (o *Orchestrator) checkAdapter(ctx context.Context) model.CheckResult {
	status := &model.AdapterStatus{
		Online: o.caps.IsOnline(),
		Check:  model.ProbeSkipped,
		DNS:    model.ProbeSkipped,
	}
	result := model.CheckResult{
		Kind:    model.KindNetworkAdapter,
		Target:  o.cfg.AdapterProbeURL,
		Adapter: status,
	}
	if !status.Online {
		result.Failure = model.FailureOffline
		result.Detail = "network adapter reports offline"
		result.Hint = "reconnect to Wi-Fi or Ethernet, then run the diagnostics again"
		return result
	}
	result.OK = true

	notes := []string{"online"}
	if o.opts.Resolver != nil {
		if host := hostOf(o.cfg.AdapterProbeURL); host != "" {
			dnsCtx, cancel := context.WithTimeout(ctx, o.cfg.AdapterTimeout())
			_, err := o.opts.Resolver.LookupHost(dnsCtx, host)
			cancel()
			if err != nil {
				status.DNS = model.ProbeFailed
				notes = append(notes, "dns lookup failed: "+err.Error())
			} else {
				status.DNS = model.ProbeOK
			}
		}
	}

	start := time.Now()
	_, err := o.caps.TimedFetch(ctx, platform.Request{
		Method:  http.MethodHead,
		URL:     o.cfg.AdapterProbeURL,
		Timeout: o.cfg.AdapterTimeout(),
		Opaque:  true,
	})
	result.Duration = time.Since(start).String()
	if err != nil {
		status.Check = model.ProbeFailed
		notes = append(notes, "reachability probe failed: "+err.Error())
		result.Hint = "the adapter reports online but outbound traffic looks blocked; check captive portals, proxy or firewall rules"
	} else {
		status.Check = model.ProbeOK
	}
	result.Detail = strings.Join(notes, "; ")
	return result
}

func cacheBust(target string, now time.Time) string {
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + "_=" + strconv.FormatInt(now.UnixNano(), 10)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
