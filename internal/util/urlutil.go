package util

import (
	"fmt"
	"net/url"
	"strings"
)

type Platform string

const (
	PlatformYouTube Platform = "youtube"
)

// ParseURL parses raw as an absolute http(s) URL. Bare hosts
// ("youtu.be/abc") are accepted and given an https scheme.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err == nil && (u.Scheme == "" || u.Host == "") {
		if u2, e2 := url.Parse("https://" + raw); e2 == nil {
			u = u2
		}
	}
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid URL %q", raw)
	}
	return u, nil
}

// DetectPlatform parses a raw URL string and determines if it targets a
// supported platform.
func DetectPlatform(raw string) (Platform, *url.URL, error) {
	u, err := ParseURL(raw)
	if err != nil {
		return "", nil, err
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")

	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be", "youtube-nocookie.com":
		return PlatformYouTube, u, nil
	default:
		return "", nil, fmt.Errorf(
			"unsupported URL %q: only YouTube links are supported (youtube.com, youtu.be)",
			raw,
		)
	}
}
