package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"
)

type Options struct {
	Servers []string
	Timeout time.Duration
	Retries int
	Logger  *zap.Logger
}

// Client resolves host names with recursive queries against a resolver chain.
type Client struct {
	opts Options
	udp  Transport
	tcp  Transport
}

func New(opts Options) *Client {
	return NewWithTransports(opts, &netTransport{network: "udp", timeout: opts.Timeout}, &netTransport{network: "tcp", timeout: opts.Timeout})
}

func NewWithTransports(opts Options, udp Transport, tcp Transport) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = time.Second
	}
	if opts.Retries == 0 {
		opts.Retries = 1
	}
	if len(opts.Servers) == 0 {
		opts.Servers = SystemResolverChain()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{opts: opts, udp: udp, tcp: tcp}
}

// LookupHost returns the addresses of the first resolver that answers for host.
func (c *Client) LookupHost(ctx context.Context, host string) ([]string, error) {
	host = strings.TrimSuffix(strings.TrimSpace(host), ".")
	if host == "" {
		return nil, errors.New("empty host")
	}
	if ip := net.ParseIP(host); ip != nil {
		return []string{ip.String()}, nil
	}

	var lastErr error
	for _, server := range c.opts.Servers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		addrs, err := c.lookupOn(ctx, NormalizeServer(server), host)
		if err == nil && len(addrs) > 0 {
			return addrs, nil
		}
		if err != nil {
			lastErr = err
			c.opts.Logger.Debug("resolver failed", zap.String("server", server), zap.String("host", host), zap.Error(err))
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no addresses for %s", host)
	}
	return nil, lastErr
}

func (c *Client) lookupOn(ctx context.Context, server string, host string) ([]string, error) {
	addrs := []string{}
	var lastErr error
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(host), qtype)
		msg.RecursionDesired = true

		ctxReq, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		resp, err := c.exchange(ctxReq, server, msg)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode == dns.RcodeNameError {
			return nil, fmt.Errorf("nxdomain for %s", host)
		}
		if resp.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("%s from %s", dns.RcodeToString[resp.Rcode], server)
			continue
		}
		for _, rr := range resp.Answer {
			switch record := rr.(type) {
			case *dns.A:
				addrs = append(addrs, record.A.String())
			case *dns.AAAA:
				addrs = append(addrs, record.AAAA.String())
			}
		}
		if len(addrs) > 0 {
			return addrs, nil
		}
	}
	return addrs, lastErr
}

func (c *Client) exchange(ctx context.Context, server string, msg *dns.Msg) (*dns.Msg, error) {
	resp, err := c.exchangeWithRetries(ctx, c.udp, server, msg)
	if err == nil && resp.Truncated {
		c.opts.Logger.Debug("udp truncated, retrying with tcp", zap.String("server", server))
		return c.exchangeWithRetries(ctx, c.tcp, server, msg)
	}
	return resp, err
}

func (c *Client) exchangeWithRetries(ctx context.Context, transport Transport, server string, msg *dns.Msg) (*dns.Msg, error) {
	var lastErr error
	for i := 0; i < c.opts.Retries; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, _, err := transport.Exchange(ctx, server, msg.Copy())
		if err == nil && resp != nil {
			return resp, nil
		}
		if err == nil {
			err = errors.New("empty response")
		}
		lastErr = err
	}
	return nil, lastErr
}

func NormalizeServer(server string) string {
	if server == "" {
		return server
	}
	if strings.HasPrefix(server, "[") {
		if strings.Contains(server, "]:") {
			return server
		}
		return server + ":53"
	}
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	if strings.Contains(server, ":") {
		return "[" + server + "]:53"
	}
	return server + ":53"
}
