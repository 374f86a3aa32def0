package platform

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Fake is an in-memory Capabilities for tests. Responders are keyed by the full URL or by
// the URL without its query string.
type Fake struct {
	Online     bool
	Responders map[string]func(ctx context.Context, req Request) (Response, error)

	mu        sync.Mutex
	requests  []Request
	clipboard []string
	opened    []string
}

func NewFake(online bool) *Fake {
	return &Fake{Online: online, Responders: map[string]func(ctx context.Context, req Request) (Response, error){}}
}

func (f *Fake) Handle(url string, fn func(ctx context.Context, req Request) (Response, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responders[url] = fn
}

func (f *Fake) TimedFetch(ctx context.Context, req Request) (Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	match, ok := f.Responders[req.URL]
	if !ok {
		base, _, _ := strings.Cut(req.URL, "?")
		match = f.Responders[base]
	}
	f.mu.Unlock()

	if match == nil {
		return Response{}, errors.New("connection refused")
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	return match(ctx, req)
}

func (f *Fake) IsOnline() bool { return f.Online }

func (f *Fake) WriteClipboard(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clipboard = append(f.clipboard, text)
	return nil
}

func (f *Fake) OpenExternal(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, url)
	return nil
}

func (f *Fake) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request{}, f.requests...)
}

func (f *Fake) Clipboard() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.clipboard...)
}

func (f *Fake) Opened() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.opened...)
}

// Hang blocks until the request deadline fires.
func Hang(ctx context.Context, _ Request) (Response, error) {
	<-ctx.Done()
	return Response{}, ctx.Err()
}

func Respond(status int, body string) func(context.Context, Request) (Response, error) {
	return func(context.Context, Request) (Response, error) {
		return Response{StatusCode: status, Body: []byte(body)}, nil
	}
}
