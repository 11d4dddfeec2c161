package main

import (
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dgallion1/docvet/internal/config"
)

// app holds state shared by the subcommands of one invocation.
type app struct {
	stdout, stderr io.Writer
	cfgFile        string
	noColor        bool
	v              *viper.Viper
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "docvet",
		Short: "Check a Markdown documentation tree for broken links and snippets",
		Long: `docvet parses every Markdown document under a root, builds the link graph
between them and reports:

  • links to documents that do not exist
  • links to headings that do not exist
  • documents nothing links to (orphans)
  • heading levels that skip
  • code blocks with unbalanced delimiters or no closing fence

Configuration comes from flags, DOCVET_* environment variables and an
optional .docvet.yaml, in that order of precedence.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper(a.cfgFile)
			if err != nil {
				return err
			}
			a.v = v
			if a.noColor {
				color.NoColor = true
			}
			return a.bind(cmd.Flags(), map[string]string{
				config.KeyLogLevel:  "log-level",
				config.KeyLogFormat: "log-format",
			})
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./.docvet.yaml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "json", "log format (json, text)")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colors in pretty output")

	root.AddCommand(
		newCheckCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
	)
	return root
}

// bind ties flags to config keys. Only flags set on the command line
// override the file and environment.
func (a *app) bind(fs *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		if f := fs.Lookup(name); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// load resolves the configuration for a command. A positional argument, if
// given, is the root.
func (a *app) load(args []string) (config.Config, error) {
	if len(args) > 0 {
		a.v.Set(config.KeyRoot, args[0])
	}
	cfg := config.Load(a.v)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	level, _ := config.ParseLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// addCheckFlags registers the flags shared by check and watch.
func addCheckFlags(fs *pflag.FlagSet) {
	fs.StringSlice("entry", nil, "entry-point document exempt from the orphan rule (repeatable)")
	fs.StringSlice("exclude", nil, "glob of paths to skip (repeatable)")
	fs.StringSlice("languages", nil, "fence languages to smoke-check (default all known)")
	fs.String("format", "text", "report format (text, json, yaml, pretty)")
	fs.String("slug-style", "github", "heading anchor style (github, plain)")
	fs.String("duplicate-slugs", "suffix", "duplicate heading anchors (suffix, none)")
	fs.Int("workers", 4, "documents parsed in parallel")
}

var checkBindings = map[string]string{
	config.KeyEntryPoints:    "entry",
	config.KeyExclude:        "exclude",
	config.KeySmokeLanguages: "languages",
	config.KeyFormat:         "format",
	config.KeySlugStyle:      "slug-style",
	config.KeySlugDuplicates: "duplicate-slugs",
	config.KeyWorkers:        "workers",
}
