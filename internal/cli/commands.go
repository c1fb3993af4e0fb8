package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"leopards-connector/internal/features/shipments/domain"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newTestConnectionCmd(env func() (*Env, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "test-connection",
		Short: "Validate the API credentials with a sample tariff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			rate, err := e.Quotes.TestConnection(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connection OK. Sample rate for 1 kg: %s\n", rate.StringFixed(2))
			return nil
		},
	}
}

func newQuoteCmd(env func() (*Env, error)) *cobra.Command {
	var (
		weight float64
		city   string
		total  string
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a parcel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orderTotal, err := decimal.NewFromString(total)
			if err != nil {
				return fmt.Errorf("invalid --total %q: %w", total, err)
			}
			e, err := env()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			quote := e.Quotes.Quote(ctx, domain.QuoteRequest{WeightKg: weight, City: city, OrderTotal: orderTotal})
			if err := writeJSON(cmd, quote); err != nil {
				return err
			}
			if !quote.Success {
				return fmt.Errorf("quote failed: %s", quote.Error)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&weight, "weight", 1, "parcel weight in kg")
	cmd.Flags().StringVar(&city, "city", "", "destination city")
	cmd.Flags().StringVar(&total, "total", "0", "order total collected on delivery")
	return cmd
}

func newTrackCmd(env func() (*Env, error)) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "track <cn>",
		Short: "Show the tracking report of a packet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cn := strings.TrimSpace(args[0])
			e, err := env()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			result, err := e.Courier.TrackPackets(ctx, cn)
			if result == nil {
				return fmt.Errorf("track failed: %w", err)
			}
			if asJSON {
				if werr := writeJSON(cmd, result); werr != nil {
					return werr
				}
				if err != nil {
					return fmt.Errorf("track failed: %w", err)
				}
				return nil
			}

			if result.Cancelled {
				fmt.Fprintf(cmd.OutOrStdout(), "Packet %s is CANCELLED.\n", cn)
				return nil
			}
			if err != nil {
				return fmt.Errorf("track failed: %w", err)
			}
			res := domain.Reconcile("", result.Packets)
			fmt.Fprintln(cmd.OutOrStdout(), domain.TrackingSummary(res.Label, result.Packets))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the parsed report as JSON")
	return cmd
}

func newCancelCmd(env func() (*Env, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <cn>",
		Short: "Cancel a booked packet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cn := strings.TrimSpace(args[0])
			e, err := env()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if err := e.Courier.CancelPackets(ctx, cn); err != nil {
				return fmt.Errorf("cancel failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Packet %s cancelled.\n", cn)
			return nil
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
