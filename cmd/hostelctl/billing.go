package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hostel-ops-backend/config"
	"hostel-ops-backend/internal/billing"
	"hostel-ops-backend/internal/identity"
	"hostel-ops-backend/internal/ledger"
	"hostel-ops-backend/internal/parse"
	"hostel-ops-backend/internal/store"
)

func (c *cli) rateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Manage monthly meal rates",
	}
	set := &cobra.Command{
		Use:   "set <YYYY-MM> <rate>",
		Short: "Set the price of one meal for a month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := parse.Month(args[0])
			if err != nil {
				return err
			}
			rate, err := parse.Amount(args[1])
			if err != nil {
				return err
			}
			return c.withStore(cmd, func(ctx context.Context, s store.Store, cfg *config.Config) error {
				r, err := ledger.NewMealLedger(s).SetRate(ctx, identity.System, month, rate)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Meal rate for %s set to %s\n", r.Month, formatAmount(r.RatePerMeal))
				return nil
			})
		},
	}
	cmd.AddCommand(set)
	return cmd
}

func (c *cli) summaryCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "summary <YYYY-MM>",
		Short: "Print the monthly summary of every resident, or of one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := parse.Month(args[0])
			if err != nil {
				return err
			}
			return c.withStore(cmd, func(ctx context.Context, s store.Store, cfg *config.Config) error {
				meals, rent := ledger.NewMealLedger(s), ledger.NewRentLedger(s)
				guard := billing.NewGuard(billing.NewAggregator(s, meals, rent), s)

				var fleet billing.FleetSummary
				if userID != "" {
					sum, err := guard.MonthlySummary(ctx, identity.System, userID, month)
					if err != nil {
						return err
					}
					fleet = billing.FleetSummary{Month: month, Summaries: []billing.MonthlySummary{sum},
						TotalDue: sum.TotalDue, TotalPaid: sum.PaidAmount, TotalBalance: sum.Balance}
				} else {
					fleet, err = guard.Residents(ctx, identity.System, month)
					if err != nil {
						return err
					}
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tROOM\tMEALS\tMEAL COST\tRENT\tDUE\tPAID\tBALANCE\tSTATUS")
				for _, row := range fleet.Summaries {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n", row.Name, row.Room, row.TotalMeals,
						formatAmount(row.MealCost), formatAmount(row.Rent), formatAmount(row.TotalDue),
						formatAmount(row.PaidAmount), formatAmount(row.Balance), row.PaymentStatus)
				}
				fmt.Fprintf(tw, "TOTAL\t\t\t\t\t%s\t%s\t%s\t\n", formatAmount(fleet.TotalDue), formatAmount(fleet.TotalPaid), formatAmount(fleet.TotalBalance))
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Only summarise this user id")
	return cmd
}
