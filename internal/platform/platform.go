package platform

import (
	"context"
	"time"
)

type Request struct {
	Method  string
	URL     string
	Timeout time.Duration
	// Opaque requests only need to observe that some response arrived; the body is dropped.
	Opaque bool
}

type Response struct {
	StatusCode int
	Body       []byte
}

type Fetcher interface {
	TimedFetch(ctx context.Context, req Request) (Response, error)
}

// Capabilities are the host primitives the diagnostics need.
type Capabilities interface {
	Fetcher
	IsOnline() bool
	WriteClipboard(text string) error
	OpenExternal(url string) error
}
