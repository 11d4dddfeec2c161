package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docvet/internal/config"
	"github.com/dgallion1/docvet/internal/loader"
	"github.com/dgallion1/docvet/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Re-check the tree whenever a file under it changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bindings := map[string]string{config.KeyWatchDebounce: "debounce"}
			for k, f := range checkBindings {
				bindings[k] = f
			}
			if err := a.bind(cmd.Flags(), bindings); err != nil {
				return err
			}
			cfg, err := a.load(args)
			if err != nil {
				return err
			}
			log := newLogger(a.stderr, cfg)
			ctx := cmd.Context()

			m, err := loader.NewMatcher(cfg.LoaderOptions())
			if err != nil {
				return err
			}
			w, err := watch.New(cfg.Root, m, cfg.WatchDebounce, log)
			if err != nil {
				return err
			}
			defer w.Close()

			recheck := func(ctx context.Context) {
				rep, err := checkOnce(ctx, cfg, log)
				if err != nil {
					if ctx.Err() == nil {
						log.Error("check failed", "error", err)
					}
					return
				}
				fmt.Fprintf(a.stdout, "--- %s ---\n", time.Now().Format(time.TimeOnly))
				if err := emit(a.stdout, rep, cfg); err != nil {
					log.Error("write report", "error", err)
				}
			}

			log.Info("watching", "root", cfg.Root, "debounce", cfg.WatchDebounce.String())
			recheck(ctx)
			err = w.Run(ctx, func(ctx context.Context, changed []string) {
				log.Info("re-checking", "changed", len(changed))
				recheck(ctx)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	addCheckFlags(cmd.Flags())
	cmd.Flags().Duration("debounce", 300*time.Millisecond, "quiet period before re-checking")
	return cmd
}
