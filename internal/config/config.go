package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dgallion1/docvet/internal/check"
	"github.com/dgallion1/docvet/internal/linkgraph"
	"github.com/dgallion1/docvet/internal/loader"
	"github.com/dgallion1/docvet/internal/parser"
	"github.com/dgallion1/docvet/internal/report"
	"github.com/dgallion1/docvet/internal/slug"
)

// EnvPrefix namespaces environment overrides, e.g. DOCVET_SLUG_STYLE.
const EnvPrefix = "DOCVET"

// Keys.
const (
	KeyRoot            = "root"
	KeyEntryPoints     = "entry_points"
	KeyExtensions      = "extensions"
	KeyExclude         = "exclude"
	KeyIndexFiles      = "index_files"
	KeyWorkers         = "workers"
	KeyReadConcurrency = "read_concurrency"
	KeySlugStyle       = "slug.style"
	KeySlugDuplicates  = "slug.duplicates"
	KeySmokeLanguages  = "smoke.languages"
	KeyFormat          = "format"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
	KeyPort            = "port"
	KeyAPIKey          = "api_key"
	KeyMaxQueueSize    = "max_queue_size"
	KeyRunTTL          = "run_ttl"
	KeyWatchDebounce   = "watch.debounce"
)

type Config struct {
	Root        string
	EntryPoints []string

	// Corpus selection
	Extensions []string
	Exclude    []string
	IndexFiles []string

	// Worker pool
	Workers         int
	ReadConcurrency int

	// Anchors
	SlugStyle      string
	SlugDuplicates string

	// Snippet smoke check; empty means every known language
	SmokeLanguages []string

	Format string

	LogLevel  string
	LogFormat string

	// Serve mode
	Port         string
	APIKey       string
	MaxQueueSize int
	RunTTL       time.Duration

	WatchDebounce time.Duration
}

// SetDefaults registers every key's default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyRoot, ".")
	v.SetDefault(KeyEntryPoints, []string{"README.md"})
	v.SetDefault(KeyExtensions, []string{".md", ".markdown"})
	v.SetDefault(KeyExclude, []string{"node_modules", "vendor"})
	v.SetDefault(KeyIndexFiles, linkgraph.DefaultIndexFiles)
	v.SetDefault(KeyWorkers, 4)
	v.SetDefault(KeyReadConcurrency, 8)
	v.SetDefault(KeySlugStyle, string(slug.StyleGitHub))
	v.SetDefault(KeySlugDuplicates, string(slug.DuplicateSuffix))
	v.SetDefault(KeySmokeLanguages, []string{})
	v.SetDefault(KeyFormat, string(report.FormatText))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyPort, "8090")
	v.SetDefault(KeyAPIKey, "")
	v.SetDefault(KeyMaxQueueSize, 16)
	v.SetDefault(KeyRunTTL, time.Hour)
	v.SetDefault(KeyWatchDebounce, 300*time.Millisecond)
}

// NewViper returns a viper instance with defaults, DOCVET_* environment
// overrides and the config file read in. An explicit cfgFile must exist;
// otherwise .docvet.yaml in the working directory is optional.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".docvet")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load reads a Config out of v, clamping numeric settings to sane values.
func Load(v *viper.Viper) Config {
	cfg := Config{
		Root:        v.GetString(KeyRoot),
		EntryPoints: stringList(v, KeyEntryPoints),

		Extensions: stringList(v, KeyExtensions),
		Exclude:    stringList(v, KeyExclude),
		IndexFiles: stringList(v, KeyIndexFiles),

		Workers:         v.GetInt(KeyWorkers),
		ReadConcurrency: v.GetInt(KeyReadConcurrency),

		SlugStyle:      strings.ToLower(v.GetString(KeySlugStyle)),
		SlugDuplicates: strings.ToLower(v.GetString(KeySlugDuplicates)),

		SmokeLanguages: stringList(v, KeySmokeLanguages),

		Format: strings.ToLower(v.GetString(KeyFormat)),

		LogLevel:  strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat: strings.ToLower(v.GetString(KeyLogFormat)),

		Port:         v.GetString(KeyPort),
		APIKey:       v.GetString(KeyAPIKey),
		MaxQueueSize: v.GetInt(KeyMaxQueueSize),
		RunTTL:       v.GetDuration(KeyRunTTL),

		WatchDebounce: v.GetDuration(KeyWatchDebounce),
	}

	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.ReadConcurrency <= 0 {
		cfg.ReadConcurrency = 8
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = time.Hour
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 300 * time.Millisecond
	}
	if len(cfg.IndexFiles) == 0 {
		cfg.IndexFiles = linkgraph.DefaultIndexFiles
	}

	return cfg
}

func (c Config) Validate() error {
	for _, ext := range c.Extensions {
		if !parser.IsSupportedExtension("x" + normalizeExt(ext)) {
			return fmt.Errorf("extension %q is not a supported document type", ext)
		}
	}
	if _, err := loader.NewMatcher(c.LoaderOptions()); err != nil {
		return err
	}
	if err := c.SlugOptions().Validate(); err != nil {
		return err
	}
	if _, err := check.New(c.CheckOptions()); err != nil {
		return err
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("log format must be json or text, got %q", c.LogFormat)
	}
	return nil
}

func (c Config) SlugOptions() slug.Options {
	return slug.Options{
		Style:      slug.Style(c.SlugStyle),
		Duplicates: slug.DuplicatePolicy(c.SlugDuplicates),
	}
}

func (c Config) LoaderOptions() loader.Options {
	return loader.Options{
		Extensions:  c.Extensions,
		Exclude:     c.Exclude,
		Concurrency: c.ReadConcurrency,
	}
}

func (c Config) CheckOptions() check.Options {
	return check.Options{
		EntryPoints: c.EntryPoints,
		Languages:   c.SmokeLanguages,
	}
}

// LinkOptions returns resolution options for a corpus with the given assets.
func (c Config) LinkOptions(assets []string) linkgraph.Options {
	return linkgraph.Options{
		Slug:       c.SlugOptions(),
		Assets:     assets,
		IndexFiles: c.IndexFiles,
	}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("log level must be debug, info, warn or error: %w", err)
	}
	return l, nil
}

// stringList accepts both YAML lists and comma separated strings, the
// latter being how lists arrive from the environment.
func stringList(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func normalizeExt(ext string) string {
	if strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
