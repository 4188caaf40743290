package backend

import (
	"context"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// throttledTransport gates media response bodies on a shared limiter so the
// bandwidth cap applies to bytes as they leave the socket. Metadata replies
// (JSON, player pages) pass through untouched.
type throttledTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.Body == nil || !isMedia(resp.Header.Get("Content-Type")) {
		return resp, err
	}
	resp.Body = &throttledBody{ctx: req.Context(), rc: resp.Body, limiter: t.limiter}
	return resp, nil
}

func isMedia(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "video/") ||
		strings.HasPrefix(ct, "audio/") ||
		strings.HasPrefix(ct, "application/octet-stream")
}

type throttledBody struct {
	ctx     context.Context
	rc      io.ReadCloser
	limiter *rate.Limiter
}

func (b *throttledBody) Read(p []byte) (int, error) {
	if burst := b.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := b.rc.Read(p)
	if n > 0 {
		if werr := b.limiter.WaitN(b.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

func (b *throttledBody) Close() error { return b.rc.Close() }
