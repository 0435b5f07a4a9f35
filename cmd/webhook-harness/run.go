package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/smallbiznis/campusswap/internal/harness"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errScenariosFailed = errors.New("one or more scenarios failed")

func runCmd() *cobra.Command {
	var (
		opts    harness.Options
		format  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:           "run",
		Short:         "Run the success, failure, invalid-signature and tampered-payload scenarios",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Secret == "" {
				opts.Secret = os.Getenv("PAYMENT_GATEWAY_SECRET_KEY")
			}
			if opts.Secret == "" {
				return errors.New("--secret or PAYMENT_GATEWAY_SECRET_KEY is required")
			}

			log := zap.NewNop()
			if verbose {
				dev, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				defer dev.Sync()
				log = dev
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 4*opts.Timeout+5*time.Second)
			defer cancel()

			report := harness.NewRunner(opts, log).Run(ctx)
			if err := report.Write(cmd.OutOrStdout(), format); err != nil {
				return err
			}
			if !report.OK() {
				return errScenariosFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.BaseURL, "url", "http://localhost:8080", "Base URL of the webhook service")
	cmd.Flags().StringVar(&opts.Secret, "secret", "", "Gateway shared secret (defaults to PAYMENT_GATEWAY_SECRET_KEY)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Per-request timeout")
	cmd.Flags().StringVar(&opts.SuccessOrderID, "success-order", "", "Order paid by the success scenario")
	cmd.Flags().StringVar(&opts.FailedOrderID, "failed-order", "", "Order used by the failure scenario")
	cmd.Flags().Float64Var(&opts.Amount, "amount", 189.99, "Payment amount")
	cmd.Flags().StringVarP(&format, "output", "o", harness.FormatText, "Report format (text, json, yaml)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log each scenario")

	return cmd
}
