// Package backend implements the in-process metadata and stream backend on
// top of github.com/kkdai/youtube/v2.
package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/kkdai/youtube/v2"
	"golang.org/x/time/rate"

	"vidbatch/internal/model"
	"vidbatch/internal/util"
)

// videoClient is the subset of *youtube.Client the backend uses.
type videoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// Native resolves and streams videos without external tools.
type Native struct {
	client  videoClient
	timeout time.Duration
	limiter *rate.Limiter

	mu    sync.Mutex
	cache struct {
		url   string
		video *youtube.Video
	}
}

// Option configures Native.
type Option func(*Native)

// WithTimeout bounds each metadata call and each HTTP response header wait.
func WithTimeout(d time.Duration) Option {
	return func(n *Native) { n.timeout = d }
}

// WithRateLimit caps download bandwidth in bytes per second, measured on
// the HTTP response bodies of media streams. Zero disables.
func WithRateLimit(bytesPerSec int64) Option {
	return func(n *Native) {
		if bytesPerSec <= 0 {
			n.limiter = nil
			return
		}
		burst := copyChunk
		if bytesPerSec < copyChunk {
			burst = int(bytesPerSec)
		}
		n.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), burst)
	}
}

func withClient(c videoClient) Option {
	return func(n *Native) { n.client = c }
}

// NewNative creates the backend.
func NewNative(opts ...Option) *Native {
	n := &Native{timeout: 30 * time.Second}
	for _, o := range opts {
		o(n)
	}
	if n.client == nil {
		n.client = newYouTubeClient(n.timeout, n.limiter)
	}
	return n
}

// streamChunkSize is the byte range fetched per request for streams with a
// known length.
const streamChunkSize = youtube.Size10Mb

// newYouTubeClient builds a client that fetches one chunk at a time.
func newYouTubeClient(timeout time.Duration, limiter *rate.Limiter) *youtube.Client {
	var transport http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	if limiter != nil {
		transport = &throttledTransport{base: transport, limiter: limiter}
	}
	return &youtube.Client{
		HTTPClient:  &http.Client{Transport: transport},
		MaxRoutines: 1,
		ChunkSize:   streamChunkSize,
	}
}

// BasicInfo returns title, author and duration of url.
func (n *Native) BasicInfo(ctx context.Context, url string) (model.VideoInfo, error) {
	v, err := n.video(ctx, url)
	if err != nil {
		return model.VideoInfo{}, err
	}
	return infoOf(v), nil
}

// FullInfo returns the metadata of url including its stream list.
func (n *Native) FullInfo(ctx context.Context, url string) (model.VideoMetadata, error) {
	v, err := n.video(ctx, url)
	if err != nil {
		return model.VideoMetadata{}, err
	}
	md := model.VideoMetadata{VideoInfo: infoOf(v)}
	for _, f := range v.Formats {
		if d, ok := descriptor(f); ok {
			md.Streams = append(md.Streams, d)
		}
	}
	return md, nil
}

func infoOf(v *youtube.Video) model.VideoInfo {
	return model.VideoInfo{
		ID:       v.ID,
		Title:    v.Title,
		Author:   v.Author,
		Duration: v.Duration,
	}
}

// video fetches the player response, reusing the last one for the same URL.
func (n *Native) video(ctx context.Context, url string) (*youtube.Video, error) {
	n.mu.Lock()
	if n.cache.url == url && n.cache.video != nil {
		v := n.cache.video
		n.mu.Unlock()
		return v, nil
	}
	n.mu.Unlock()

	callCtx := ctx
	if n.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	v, err := n.client.GetVideoContext(callCtx, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, metadataError(ctx, err)
	}

	n.mu.Lock()
	n.cache.url = url
	n.cache.video = v
	n.mu.Unlock()
	return v, nil
}

// Fetch streams one format of url into dest, truncating any previous
// content. A partial file is left behind on failure.
func (n *Native) Fetch(ctx context.Context, url string, stream model.StreamDescriptor, dest string, onProgress func(done, total int64)) error {
	v, err := n.video(ctx, url)
	if err != nil {
		return err
	}
	format, err := findFormat(v, stream.ID)
	if err != nil {
		return err
	}

	if err := util.EnsureDir(filepath.Dir(dest)); err != nil {
		return fmt.Errorf("%w: %v", model.ErrTransfer, err)
	}
	file, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", model.ErrTransfer, dest, err)
	}
	defer file.Close()

	_, err = n.copyStream(ctx, v, format, file, onProgress)
	if err != nil && isUnexpectedStatus(err, http.StatusForbidden) {
		// Chunked range requests are sometimes refused; a single request
		// for the whole stream usually is not.
		if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("%w: %v", model.ErrTransfer, seekErr)
		}
		if truncErr := file.Truncate(0); truncErr != nil {
			return fmt.Errorf("%w: %v", model.ErrTransfer, truncErr)
		}
		single := *format
		single.ContentLength = 0
		_, err = n.copyStream(ctx, v, &single, file, onProgress)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", model.ErrTransfer, err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrTransfer, err)
	}
	return nil
}

func (n *Native) copyStream(ctx context.Context, v *youtube.Video, f *youtube.Format, w io.Writer, onProgress func(done, total int64)) (int64, error) {
	body, size, err := n.client.GetStreamContext(ctx, v, f)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	pw := &progressWriter{total: size, report: onProgress}
	written, err := copyWithContext(ctx, io.MultiWriter(w, pw), body)
	pw.flush()
	if err != nil {
		return written, err
	}
	if size > 0 && written != size {
		return written, fmt.Errorf("short read: %d of %d bytes", written, size)
	}
	return written, nil
}

func findFormat(v *youtube.Video, id string) (*youtube.Format, error) {
	itag, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("%w: bad itag %q", model.ErrNoSuitableFormat, id)
	}
	for i := range v.Formats {
		if v.Formats[i].ItagNo == itag {
			return &v.Formats[i], nil
		}
	}
	return nil, fmt.Errorf("%w: itag %d not offered", model.ErrNoSuitableFormat, itag)
}
