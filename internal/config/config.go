// Package config merges flags, VIDBATCH_* environment variables and an
// optional config file into run settings, and loads link lists.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"vidbatch/internal/dirs"
	"vidbatch/internal/model"
)

const (
	EnvPrefix       = "VIDBATCH"
	DefaultLinksKey = "links"

	BackendNative = "native"
	BackendYTDLP  = "ytdlp"
)

// flag name -> viper key
var flagKeys = map[string]string{
	"mode":                 "mode",
	"out-dir":              "out_dir",
	"links-file":           "links_file",
	"links-key":            "links_key",
	"backend":              "backend",
	"cookies-from-browser": "cookies_from_browser",
	"dl-binary":            "dl_binary",
	"ffmpeg":               "ffmpeg",
	"delay":                "delay",
	"retries":              "retries",
	"retry-delay":          "retry_delay",
	"limit-rate":           "limit_rate",
	"fail-on-error":        "fail_on_error",
	"verbose":              "verbose",
}

// Settings is the merged configuration for one invocation.
type Settings struct {
	Mode               string
	OutDir             string
	LinksFile          string
	LinksKey           string
	Links              []string // static list from the config file
	Backend            string
	CookiesFromBrowser string
	DLBinary           string
	FFmpeg             string
	Delay              time.Duration
	Retries            int
	RetryDelay         time.Duration
	LimitRate          string
	FailOnError        bool
	Verbose            bool
	ConfigFile         string // file actually read, empty if none
}

// AddFlags registers the persistent flags every command shares.
func AddFlags(fs *pflag.FlagSet) {
	d := model.DefaultBatchOptions()
	fs.String("config", "", "Config file (default: <config dir>/config.{yaml,json,toml})")
	modes := make([]string, 0, 3)
	for _, m := range model.Modes() {
		modes = append(modes, string(m))
	}
	fs.StringP("mode", "m", string(d.Mode), "Download mode: "+strings.Join(modes, ", "))
	fs.StringP("out-dir", "o", d.OutDir, "Output directory")
	fs.StringP("links-file", "f", "", "Structured file (json, yaml, toml) with a list of links")
	fs.String("links-key", DefaultLinksKey, "Name of the link array inside --links-file")
	fs.String("backend", BackendNative, "Metadata and stream backend: native or ytdlp")
	fs.String("cookies-from-browser", "", "Browser to read cookies from (ytdlp backend)")
	fs.String("dl-binary", "", "Path to yt-dlp or youtube-dl")
	fs.String("ffmpeg", "", "Path to ffmpeg")
	fs.Duration("delay", d.Delay, "Pause between successive items")
	fs.Int("retries", d.MaxAttempts, "Attempts per network step")
	fs.Duration("retry-delay", d.RetryBaseDelay, "Base delay for exponential retry backoff")
	fs.String("limit-rate", "", "Bandwidth cap per transfer, e.g. 2MB (0 or empty = unlimited)")
	fs.Bool("fail-on-error", false, "Exit with status 3 when any item failed")
	fs.BoolP("verbose", "v", false, "Debug logging and external tool output")
}

// Init wires the global viper instance to the root command's persistent
// flags, the environment and the config file.
func Init(root *cobra.Command) error {
	return initViper(viper.GetViper(), root.PersistentFlags())
}

func initViper(v *viper.Viper, fs *pflag.FlagSet) error {
	for flag, key := range flagKeys {
		if f := fs.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	v.SetDefault("links_key", DefaultLinksKey)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	explicit := ""
	if f := fs.Lookup("config"); f != nil {
		explicit = f.Value.String()
	}
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		if cfgDir, err := dirs.ConfigDir(); err == nil {
			v.AddConfigPath(cfgDir)
		}
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && explicit == "" {
			return nil
		}
		return fmt.Errorf("%w: reading config: %v", model.ErrConfiguration, err)
	}
	return nil
}

// Load returns the settings from the global viper instance.
func Load() (Settings, error) {
	return load(viper.GetViper())
}

func load(v *viper.Viper) (Settings, error) {
	s := Settings{
		Mode:               v.GetString("mode"),
		OutDir:             v.GetString("out_dir"),
		LinksFile:          v.GetString("links_file"),
		LinksKey:           v.GetString("links_key"),
		Links:              cleanLinks(v.GetStringSlice("links")),
		Backend:            strings.ToLower(strings.TrimSpace(v.GetString("backend"))),
		CookiesFromBrowser: v.GetString("cookies_from_browser"),
		DLBinary:           v.GetString("dl_binary"),
		FFmpeg:             v.GetString("ffmpeg"),
		Delay:              v.GetDuration("delay"),
		Retries:            v.GetInt("retries"),
		RetryDelay:         v.GetDuration("retry_delay"),
		LimitRate:          v.GetString("limit_rate"),
		FailOnError:        v.GetBool("fail_on_error"),
		Verbose:            v.GetBool("verbose"),
		ConfigFile:         v.ConfigFileUsed(),
	}
	if s.LinksKey == "" {
		s.LinksKey = DefaultLinksKey
	}
	if s.Backend == "" {
		s.Backend = BackendNative
	}
	switch s.Backend {
	case BackendNative, BackendYTDLP:
	default:
		return s, fmt.Errorf("%w: invalid backend %q (valid: native|ytdlp)", model.ErrConfiguration, s.Backend)
	}
	if s.Delay < 0 {
		return s, fmt.Errorf("%w: --delay must not be negative", model.ErrConfiguration)
	}
	if s.Retries < 1 {
		return s, fmt.Errorf("%w: --retries must be at least 1", model.ErrConfiguration)
	}
	if s.RetryDelay < 0 {
		return s, fmt.Errorf("%w: --retry-delay must not be negative", model.ErrConfiguration)
	}
	return s, nil
}

// Recommended bounds for the pause between items. Values outside them are
// accepted but warned about.
const (
	MinRecommendedDelay = 2 * time.Second
	MaxRecommendedDelay = 5 * time.Second
)

// Warnings lists settings that are valid but likely to cause trouble.
func (s Settings) Warnings() []string {
	var out []string
	switch {
	case s.Delay < MinRecommendedDelay:
		out = append(out, fmt.Sprintf("--delay %s is below the recommended %s; the site may start rate limiting", s.Delay, MinRecommendedDelay))
	case s.Delay > MaxRecommendedDelay:
		out = append(out, fmt.Sprintf("--delay %s is above the recommended %s; the batch will run slowly", s.Delay, MaxRecommendedDelay))
	}
	return out
}

// BatchOptions converts settings into orchestrator options.
func (s Settings) BatchOptions() (model.BatchOptions, error) {
	mode, err := model.ParseMode(s.Mode)
	if err != nil {
		return model.BatchOptions{}, err
	}
	out := s.OutDir
	if out == "" {
		out = "."
	}
	return model.BatchOptions{
		Mode:           mode,
		OutDir:         filepath.Clean(out),
		Delay:          s.Delay,
		MaxAttempts:    s.Retries,
		RetryBaseDelay: s.RetryDelay,
		FailOnError:    s.FailOnError,
		Verbose:        s.Verbose,
		AnyHost:        s.Backend == BackendYTDLP,
	}, nil
}

// URLs assembles the batch: command-line arguments first, then the links
// file, then any static list from the config file. Order is preserved.
func (s Settings) URLs(args []string) ([]string, error) {
	urls := cleanLinks(args)
	if s.LinksFile != "" {
		links, err := LoadLinks(s.LinksFile, s.LinksKey)
		if err != nil {
			return nil, err
		}
		urls = append(urls, links...)
	}
	urls = append(urls, s.Links...)
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no URLs given (pass them as arguments, --links-file or a links list in the config file)", model.ErrConfiguration)
	}
	return urls, nil
}

// LoadLinks reads the named array from a structured data file. The format
// follows the file extension.
func LoadLinks(path, key string) ([]string, error) {
	if key == "" {
		key = DefaultLinksKey
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: reading links file %s: %v", model.ErrConfiguration, path, err)
	}
	if !v.IsSet(key) {
		return nil, fmt.Errorf("%w: links file %s has no %q array", model.ErrConfiguration, path, key)
	}
	links := cleanLinks(v.GetStringSlice(key))
	if len(links) == 0 {
		return nil, fmt.Errorf("%w: %q in %s is empty", model.ErrConfiguration, key, path)
	}
	return links, nil
}

func cleanLinks(in []string) []string {
	out := make([]string, 0, len(in))
	for _, l := range in {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
