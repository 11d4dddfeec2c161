package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docvet/internal/config"
	"github.com/dgallion1/docvet/internal/loader"
	"github.com/dgallion1/docvet/internal/pipeline"
	"github.com/dgallion1/docvet/internal/report"
)

func newCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [root]",
		Short: "Check a documentation tree once and print the report",
		Example: `  docvet check docs --entry README.md
  docvet check --format json > report.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bind(cmd.Flags(), checkBindings); err != nil {
				return err
			}
			cfg, err := a.load(args)
			if err != nil {
				return err
			}
			log := newLogger(a.stderr, cfg)

			rep, err := checkOnce(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			if err := emit(a.stdout, rep, cfg); err != nil {
				return err
			}
			if code := rep.ExitCode(); code != report.ExitOK {
				return &exitError{code: code}
			}
			return nil
		},
	}
	addCheckFlags(cmd.Flags())
	return cmd
}

// checkOnce loads the configured root and validates it.
func checkOnce(ctx context.Context, cfg config.Config, log *slog.Logger) (*report.Report, error) {
	corpus, err := loader.Load(ctx, cfg.Root, cfg.LoaderOptions())
	if err != nil {
		return nil, err
	}
	log.Debug("loaded corpus", "root", cfg.Root, "documents", len(corpus.Files), "assets", len(corpus.Assets))

	v, err := pipeline.NewValidator(cfg, log)
	if err != nil {
		return nil, err
	}
	return v.Validate(ctx, corpus)
}

func emit(w io.Writer, rep *report.Report, cfg config.Config) error {
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	if err := report.Write(w, rep, format); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
