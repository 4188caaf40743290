// Package downloader drives yt-dlp as a metadata and stream backend.
package downloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"vidbatch/internal/model"
	"vidbatch/internal/util"
)

// Client resolves and fetches through a yt-dlp binary.
type Client struct {
	binary      string
	cookiesFrom string
	limitRate   string
	log         *logrus.Entry
	runner      util.CmdRunner

	mu    sync.Mutex
	cache struct {
		url  string
		info YTDLPInfo
	}
}

// Option configures a Client.
type Option func(*Client)

// WithRunner replaces the process runner (tests use a fake).
func WithRunner(r util.CmdRunner) Option {
	return func(c *Client) { c.runner = r }
}

// WithCookiesFromBrowser delegates authentication to a local browser's
// cookie store (yt-dlp --cookies-from-browser).
func WithCookiesFromBrowser(browser string) Option {
	return func(c *Client) { c.cookiesFrom = browser }
}

// WithLimitRate passes a bandwidth cap such as "2M" to yt-dlp.
func WithLimitRate(rate string) Option {
	return func(c *Client) { c.limitRate = rate }
}

// WithLogger sets where command lines and yt-dlp diagnostics are logged,
// at debug level.
func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) { c.log = l }
}

// New creates a Client for the given yt-dlp binary.
func New(binary string, opts ...Option) *Client {
	c := &Client{binary: binary, runner: util.NewDefaultRunner()}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = logrus.NewEntry(logrus.StandardLogger())
	}
	return c
}

// BasicInfo returns title, author and duration of url.
func (c *Client) BasicInfo(ctx context.Context, url string) (model.VideoInfo, error) {
	info, err := c.dump(ctx, url)
	if err != nil {
		return model.VideoInfo{}, err
	}
	return info.Info(), nil
}

// FullInfo returns the metadata of url including its stream list.
func (c *Client) FullInfo(ctx context.Context, url string) (model.VideoMetadata, error) {
	info, err := c.dump(ctx, url)
	if err != nil {
		return model.VideoMetadata{}, err
	}
	return info.Metadata(), nil
}

// dump runs --dump-json once per URL; the last result is cached so a
// BasicInfo followed by FullInfo costs a single call.
func (c *Client) dump(ctx context.Context, url string) (YTDLPInfo, error) {
	c.mu.Lock()
	if c.cache.url == url {
		info := c.cache.info
		c.mu.Unlock()
		return info, nil
	}
	c.mu.Unlock()

	if c.binary == "" {
		return YTDLPInfo{}, fmt.Errorf("%w: downloader path is required", model.ErrConfiguration)
	}

	args := []string{"--dump-json", "--no-playlist", "--no-warnings"}
	args = append(c.cookieArgs(), args...)
	args = append(args, url)

	c.trace(args)
	res, runErr := c.runner.Run(ctx, util.CmdSpec{
		Path:          c.binary,
		Args:          args,
		StderrLine:    c.debugLine,
		CaptureStdout: true,
	})
	if ctx.Err() != nil {
		return YTDLPInfo{}, ctx.Err()
	}
	if runErr != nil && len(res.Stdout) == 0 {
		return YTDLPInfo{}, c.classify(res.Stderr, model.ErrMetadataFetch)
	}

	info, err := decodeInfo(res.Stdout)
	if err != nil {
		return YTDLPInfo{}, fmt.Errorf("%w: %v", model.ErrMetadataFetch, err)
	}

	c.mu.Lock()
	c.cache.url = url
	c.cache.info = info
	c.mu.Unlock()
	return info, nil
}

// decodeInfo parses the JSON document. yt-dlp sometimes prints more than one
// object; the last one carrying an id wins.
func decodeInfo(stdout []byte) (YTDLPInfo, error) {
	data := strings.TrimSpace(string(stdout))
	var info YTDLPInfo
	err := json.Unmarshal([]byte(data), &info)
	if err == nil && info.ID != "" {
		return info, nil
	}
	lines := strings.Split(data, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		var tmp YTDLPInfo
		if json.Unmarshal([]byte(line), &tmp) == nil && tmp.ID != "" {
			return tmp, nil
		}
	}
	if err == nil {
		err = errors.New("no video id in output")
	}
	return YTDLPInfo{}, fmt.Errorf("parse metadata JSON: %w", err)
}

// Fetch downloads exactly one format of url to dest. Each call starts the
// file over; partial files are left for the caller.
func (c *Client) Fetch(ctx context.Context, url string, stream model.StreamDescriptor, dest string, onProgress func(done, total int64)) error {
	if c.binary == "" {
		return fmt.Errorf("%w: downloader path is required", model.ErrConfiguration)
	}
	if err := util.RemoveIfExists(dest); err != nil {
		return fmt.Errorf("%w: %v", model.ErrTransfer, err)
	}

	args := append(c.cookieArgs(),
		"-f", stream.ID,
		// yt-dlp treats -o as a template; a literal % in a title must be doubled.
		"-o", strings.ReplaceAll(dest, "%", "%%"),
		"--newline",
		"--no-part",
		"--no-playlist",
		"--force-overwrites",
	)
	if c.limitRate != "" {
		args = append(args, "--limit-rate", c.limitRate)
	}
	args = append(args, url)

	c.trace(args)
	res, runErr := c.runner.Run(ctx, util.CmdSpec{
		Path:       c.binary,
		Args:       args,
		StderrLine: c.debugLine,
		StdoutLine: func(line string) {
			if p, ok := ParseProgress(line); ok && onProgress != nil {
				onProgress(p.Done, p.Total)
			}
		},
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runErr != nil {
		return c.classify(res.Stderr, model.ErrTransfer)
	}
	if !util.NonEmptyFile(dest) {
		return fmt.Errorf("%w: %s missing after download", model.ErrTransfer, dest)
	}
	return nil
}

func (c *Client) trace(args []string) {
	c.log.Debugf("+ %s", util.CommandLine(c.binary, args))
}

func (c *Client) debugLine(line string) {
	c.log.WithField("tool", "yt-dlp").Debug(line)
}

func (c *Client) cookieArgs() []string {
	if c.cookiesFrom == "" {
		return nil
	}
	return []string{"--cookies-from-browser", c.cookiesFrom}
}

// classify maps yt-dlp stderr to a sentinel. Cookie store failures are
// always authentication errors; sign-in prompts are when cookies were
// supplied, since that means the browser session has expired.
func (c *Client) classify(stderr []byte, fallback error) error {
	msg := lastError(stderr)
	low := strings.ToLower(string(stderr))
	switch {
	case containsAny(low, cookieStoreErrors):
		return fmt.Errorf("%w: %s", model.ErrAuthentication, msg)
	case c.cookiesFrom != "" && containsAny(low, signInErrors):
		return fmt.Errorf("%w: %s (sign in again in %s)", model.ErrAuthentication, msg, c.cookiesFrom)
	}
	return fmt.Errorf("%w: %s", fallback, msg)
}

var (
	cookieStoreErrors = []string{
		"cookies database",
		"cookie database",
		"failed to decrypt",
	}
	signInErrors = []string{
		"sign in to confirm",
		"login required",
		"members-only",
		"use --cookies",
	}
)

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// lastError returns the last "ERROR:" line of stderr, or its last line.
func lastError(stderr []byte) string {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); strings.HasPrefix(l, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(l, "ERROR:"))
		}
	}
	if l := strings.TrimSpace(lines[len(lines)-1]); l != "" {
		return l
	}
	return "yt-dlp failed"
}
