package main

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/smallbiznis/campusswap/internal/harness"
	"github.com/spf13/cobra"
)

func signCmd() *cobra.Command {
	var (
		p      harness.Payload
		secret string
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print a signed webhook body for manual delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("PAYMENT_GATEWAY_SECRET_KEY")
			}
			if secret == "" {
				return errors.New("--secret or PAYMENT_GATEWAY_SECRET_KEY is required")
			}
			if p.Timestamp == "" {
				p.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(harness.Sign(p, secret))
		},
	}

	cmd.Flags().StringVar(&p.PaymentID, "payment-id", "PAY_MANUAL", "Payment id")
	cmd.Flags().StringVar(&p.OrderID, "order-id", "ORD_HARNESS_SUCCESS", "Order id")
	cmd.Flags().StringVar(&p.Status, "status", "SUCCESS", "Payment status (SUCCESS, FAILED, PENDING)")
	cmd.Flags().Float64Var(&p.Amount, "amount", 189.99, "Payment amount")
	cmd.Flags().StringVar(&p.Timestamp, "timestamp", "", "RFC 3339 timestamp (defaults to now)")
	cmd.Flags().StringVar(&secret, "secret", "", "Gateway shared secret (defaults to PAYMENT_GATEWAY_SECRET_KEY)")

	return cmd
}
