package resolve

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/miekg/dns"
)

func TestLookupFallsBackToTCPOnTruncation(t *testing.T) {
	mux := dns.NewServeMux()
	mux.HandleFunc(".", func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		if w.RemoteAddr().Network() == "udp" {
			m.Truncated = true
			_ = w.WriteMsg(m)
			return
		}
		if r.Question[0].Qtype == dns.TypeA {
			m.Answer = append(m.Answer, &dns.A{
				Hdr: dns.RR_Header{Name: r.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
				A:   net.ParseIP("192.0.2.10"),
			})
		}
		_ = w.WriteMsg(m)
	})

	udpConn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("udp listen: %v", err)
	}
	defer udpConn.Close()

	addr := udpConn.LocalAddr().String()
	tcpLn, err := net.Listen("tcp", addr)
	if err != nil {
		t.Fatalf("tcp listen: %v", err)
	}
	defer tcpLn.Close()

	udpSrv := &dns.Server{PacketConn: udpConn, Handler: mux}
	tcpSrv := &dns.Server{Listener: tcpLn, Handler: mux}

	go func() { _ = udpSrv.ActivateAndServe() }()
	go func() { _ = tcpSrv.ActivateAndServe() }()
	defer udpSrv.Shutdown()
	defer tcpSrv.Shutdown()

	client := New(Options{Servers: []string{addr}, Timeout: 500 * time.Millisecond})
	addrs, err := client.LookupHost(context.Background(), "www.example.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(addrs) != 1 || addrs[0] != "192.0.2.10" {
		t.Fatalf("unexpected addresses: %#v", addrs)
	}
}

func TestLookupTriesNextResolver(t *testing.T) {
	transport := &MockTransport{Responder: func(server string, msg *dns.Msg) (*dns.Msg, time.Duration, error) {
		if server == "10.0.0.1:53" {
			return nil, 0, errors.New("i/o timeout")
		}
		resp := new(dns.Msg)
		resp.SetReply(msg)
		if msg.Question[0].Qtype == dns.TypeA {
			resp.Answer = []dns.RR{&dns.A{Hdr: dns.RR_Header{Name: msg.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60}, A: net.ParseIP("203.0.113.7")}}
		}
		return resp, time.Millisecond, nil
	}}

	client := NewWithTransports(Options{Servers: []string{"10.0.0.1", "10.0.0.2"}}, transport, transport)
	addrs, err := client.LookupHost(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(addrs) != 1 || addrs[0] != "203.0.113.7" {
		t.Fatalf("unexpected addresses: %#v", addrs)
	}
	servers := transport.Servers()
	if len(servers) < 2 || servers[0] != "10.0.0.1:53" || servers[len(servers)-1] != "10.0.0.2:53" {
		t.Fatalf("unexpected query order: %#v", servers)
	}
}

func TestLookupNXDOMAIN(t *testing.T) {
	transport := &MockTransport{Responder: func(server string, msg *dns.Msg) (*dns.Msg, time.Duration, error) {
		resp := new(dns.Msg)
		resp.SetReply(msg)
		resp.Rcode = dns.RcodeNameError
		return resp, time.Millisecond, nil
	}}

	client := NewWithTransports(Options{Servers: []string{"10.0.0.1"}}, transport, transport)
	if _, err := client.LookupHost(context.Background(), "nope.invalid"); err == nil {
		t.Fatalf("expected nxdomain error")
	}
}

func TestLookupIPLiteral(t *testing.T) {
	transport := &MockTransport{Responder: func(server string, msg *dns.Msg) (*dns.Msg, time.Duration, error) {
		t.Fatalf("unexpected query for ip literal")
		return nil, 0, nil
	}}
	client := NewWithTransports(Options{Servers: []string{"10.0.0.1"}}, transport, transport)
	addrs, err := client.LookupHost(context.Background(), "203.0.113.1")
	if err != nil || len(addrs) != 1 || addrs[0] != "203.0.113.1" {
		t.Fatalf("unexpected result: %#v %v", addrs, err)
	}
}

func TestLoadResolversFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resolv.conf")
	content := "# test\nsearch lan\nnameserver 192.168.1.1\nnameserver 1.1.1.1\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	servers, err := loadResolvers(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(servers) != 2 || servers[0] != "192.168.1.1" {
		t.Fatalf("unexpected servers: %#v", servers)
	}
	merged := uniqueServers(append(servers, DefaultPublicResolvers...))
	if len(merged) != 4 {
		t.Fatalf("expected duplicates removed, got %#v", merged)
	}
}

func TestNormalizeServer(t *testing.T) {
	cases := map[string]string{
		"1.1.1.1":         "1.1.1.1:53",
		"1.1.1.1:5353":    "1.1.1.1:5353",
		"2606:4700::1111": "[2606:4700::1111]:53",
		"[::1]":           "[::1]:53",
	}
	for in, want := range cases {
		if got := NormalizeServer(in); got != want {
			t.Fatalf("NormalizeServer(%q) = %q, want %q", in, got, want)
		}
	}
}
