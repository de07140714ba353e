package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadscout_backend/internal/audits"
	"leadscout_backend/internal/bootstrap"
	"leadscout_backend/internal/scoring"
	"leadscout_backend/platform/config"
	"leadscout_backend/platform/logger"
	"leadscout_backend/platform/validator"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Operate the lead scoring engine from the command line",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newScoreCmd(), newResolveCmd(), newRescoreCmd())
	return root
}

func newScoreCmd() *cobra.Command {
	var (
		businessName string
		domain       string
		location     string
		asOf         string
	)

	cmd := &cobra.Command{
		Use:   "score [BUNDLE.json]",
		Short: "Score a saved upstream bundle offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read bundle: %w", err)
			}

			var bundle scoring.Bundle
			if err := json.Unmarshal(raw, &bundle); err != nil {
				return fmt.Errorf("decode bundle: %w", err)
			}

			now := time.Now()
			if asOf != "" {
				now, err = time.Parse(time.RFC3339, asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of: %w", err)
				}
			}

			in := scoring.Input{BusinessName: businessName, Domain: domain, Location: location}
			if err := scoring.ValidateInput(in); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), scoring.Evaluate(in, bundle, now))
		},
	}

	cmd.Flags().StringVar(&businessName, "business", "", "Business name")
	cmd.Flags().StringVar(&domain, "domain", "", "Business website domain")
	cmd.Flags().StringVar(&location, "location", "", "Business location")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Evaluation time (RFC3339); defaults to now")
	_ = cmd.MarkFlagRequired("business")
	_ = cmd.MarkFlagRequired("domain")
	return cmd
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [LOCATION]",
		Short: "Resolve free-text location to a location code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := bootstrap.NewResolver(config.FromEnv())
			if err != nil {
				return err
			}

			m := resolver.Resolve(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d\n", m.Code, m.Name, m.Score)
			return nil
		},
	}
}

func newRescoreCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rescore",
		Short: "Re-evaluate archived audits with the current scoring formulas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Env)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pool, err := bootstrap.OpenPool(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			deps, err := bootstrap.NewAuditDeps(ctx, cfg, log, nil)
			if err != nil {
				return err
			}
			defer deps.Close()

			module := audits.NewModule(pool, deps.Fetcher, deps.Resolver, validator.New(), log, deps.Options...)
			summary, err := module.Service().RescoreArchived(ctx, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of audits to rescore")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

