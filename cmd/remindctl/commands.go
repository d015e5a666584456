package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Priya8975/subscription-reminders/internal/domain"
	"github.com/Priya8975/subscription-reminders/internal/engine"
	"github.com/spf13/cobra"
)

type previewer interface {
	Today() time.Time
	Preview(ctx context.Context, date time.Time, force bool) ([]domain.DueEvent, error)
}

type enqueuer interface {
	Enqueue(ctx context.Context, req engine.CheckRequest) error
}

type dedupClearer interface {
	ClearSubscription(ctx context.Context, subscriptionID string) (int, error)
	ClearAll(ctx context.Context) (int, error)
}

type app struct {
	checker previewer
	queue   enqueuer
	dedup   dedupClearer
	close   func()
}

type appKey struct{}

func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}

func newRootCmd(open func(ctx context.Context) (*app, error)) *cobra.Command {
	var current *app

	root := &cobra.Command{
		Use:          "remindctl",
		Short:        "Inspect and trigger subscription renewal reminders",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := open(ctx)
			if err != nil {
				return err
			}
			current = a
			cmd.SetContext(context.WithValue(ctx, appKey{}, a))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if current != nil && current.close != nil {
				current.close()
			}
		},
	}

	root.AddCommand(newDueCmd(), newCheckCmd(), newClearCmd())
	return root
}

func newDueCmd() *cobra.Command {
	var (
		date   string
		force  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List reminders that fire on a date",
		Long: `List the reminders a check would send on the given date, without
sending anything or touching dedup flags.

Examples:
  remindctl due                     # today
  remindctl due --date 2025-06-07   # a specific day
  remindctl due --force             # include subscriptions billing today`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)

			day := a.checker.Today()
			if date != "" {
				parsed, err := engine.ParseCalendarDate(date)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD")
				}
				day = parsed
			}

			events, err := a.checker.Preview(cmd.Context(), day, force)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if events == nil {
					events = []domain.DueEvent{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(events)
			}

			fmt.Fprintf(out, "Reminders due on %s\n", engine.FormatCalendarDate(day))
			if len(events) == 0 {
				fmt.Fprintln(out, "  none")
				return nil
			}
			for _, ev := range events {
				n := engine.NewNotification(ev)
				fmt.Fprintf(out, "  %-36s  %s\n", ev.Subscription.ID, n.Body)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "calendar date to evaluate (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&force, "force", false, "also list subscriptions billing that day")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print events as JSON")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Queue a reminder check for the server to run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := engine.NewCheckRequest("cli", force)
			if err := appFrom(cmd).queue.Enqueue(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued check %s (force=%t)\n", req.ID, force)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "bypass dedup and include subscriptions billing today")
	return cmd
}

func newClearCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear [subscription-id]",
		Short: "Forget which reminders were already sent",
		Long: `Drop dedup flags so reminders are sent again on the next check.
Pass a subscription id, or --all to clear every flag.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return errors.New("pass a subscription id or --all, not both")
			}
			if !all && len(args) != 1 {
				return errors.New("a subscription id is required (or --all)")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)

			var (
				n   int
				err error
			)
			if all {
				n, err = a.dedup.ClearAll(cmd.Context())
			} else {
				n, err = a.dedup.ClearSubscription(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d reminder flag(s)\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "clear flags for every subscription")
	return cmd
}
