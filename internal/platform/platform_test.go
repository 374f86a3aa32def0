package platform

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jaxxstorm/devdiag/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimedFetchReadsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"203.0.113.45"}`))
	}))
	defer srv.Close()

	sys := NewSystem(SystemOptions{})
	resp, err := sys.TimedFetch(context.Background(), Request{URL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ip":"203.0.113.45"}`, string(resp.Body))
}

func TestTimedFetchOpaqueDropsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))
	defer srv.Close()

	sys := NewSystem(SystemOptions{})
	resp, err := sys.TimedFetch(context.Background(), Request{URL: srv.URL, Timeout: time.Second, Opaque: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, resp.Body)
}

func TestTimedFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	sys := NewSystem(SystemOptions{})
	_, err := sys.TimedFetch(context.Background(), Request{URL: srv.URL, Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.Equal(t, model.FailureTimeout, Classify(err))
}

func TestTimedFetchRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ip", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ip2", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/ip2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"203.0.113.45"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sys := NewSystem(SystemOptions{})
	resp, err := sys.TimedFetch(context.Background(), Request{URL: srv.URL + "/ip", Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ip":"203.0.113.45"}`, string(resp.Body))

	resp, err = sys.TimedFetch(context.Background(), Request{URL: srv.URL + "/ip", Timeout: time.Second, Opaque: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode, "opaque requests stop at the first response")
}

func TestTimedFetchCancelledIsAborted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	sys := NewSystem(SystemOptions{})
	_, err := sys.TimedFetch(ctx, Request{URL: srv.URL, Timeout: 5 * time.Second})
	require.Error(t, err)
	assert.Equal(t, model.FailureAborted, Classify(err))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, model.FailureNone, Classify(nil))
	assert.Equal(t, model.FailureTimeout, Classify(context.DeadlineExceeded))
	assert.Equal(t, model.FailureAborted, Classify(context.Canceled))
	assert.Equal(t, model.FailureNetwork, Classify(errors.New("connection refused")))
}

func TestIsOnline(t *testing.T) {
	sys := NewSystem(SystemOptions{})
	sys.ifaces = func() ([]net.Interface, error) {
		return []net.Interface{
			{Name: "lo", Flags: net.FlagUp | net.FlagLoopback},
			{Name: "eth0", Flags: net.FlagUp},
		}, nil
	}
	sys.addrs = func(iface net.Interface) ([]net.Addr, error) {
		if iface.Name == "lo" {
			return []net.Addr{&net.IPNet{IP: net.ParseIP("127.0.0.1"), Mask: net.CIDRMask(8, 32)}}, nil
		}
		return []net.Addr{&net.IPNet{IP: net.ParseIP("192.168.1.20"), Mask: net.CIDRMask(24, 32)}}, nil
	}
	assert.True(t, sys.IsOnline())

	sys.ifaces = func() ([]net.Interface, error) {
		return []net.Interface{{Name: "lo", Flags: net.FlagUp | net.FlagLoopback}}, nil
	}
	assert.False(t, sys.IsOnline())
}

func TestWriteClipboardEmitsOSC52(t *testing.T) {
	t.Setenv("TMUX", "")
	t.Setenv("TERM", "xterm-256color")
	var buf bytes.Buffer
	sys := NewSystem(SystemOptions{Terminal: &buf})
	require.NoError(t, sys.WriteClipboard("npm start"))
	assert.Contains(t, buf.String(), "\x1b]52;c;")
}
