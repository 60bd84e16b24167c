package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/aaronwang/stay-auction/shared/database"
	"github.com/aaronwang/stay-auction/shared/notify"
	"github.com/aaronwang/stay-auction/shared/winlose"
	"github.com/aaronwang/stay-auction/shared/winner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Env carries what every command needs
type Env struct {
	// OpenStore connects to the store; called once per command
	OpenStore func() (database.Store, error)
	// Publisher receives events emitted by close; may be nil
	Publisher notify.Publisher
	Log       logrus.FieldLogger
}

// RootCmd builds the bidctl command tree
func RootCmd(env *Env) *cobra.Command {
	root := &cobra.Command{
		Use:           "bidctl",
		Short:         "Operate nightly auctions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		MigrateCmd(env),
		CreateAuctionCmd(env),
		ResolveCmd(env),
		WinnersCmd(env),
		CloseCmd(env),
		StandingCmd(env),
	)
	return root
}

// withStore opens the store, runs fn and closes the store again
func (e *Env) withStore(fn func(store database.Store) error) error {
	store, err := e.OpenStore()
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func (e *Env) resolver(store database.Store) *winner.Resolver {
	return winner.NewResolver(store, e.Publisher, e.Log)
}

func (e *Env) analyzer(store database.Store) *winlose.Analyzer {
	return winlose.NewAnalyzer(store)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// schemaIniter is implemented by stores that manage their own schema
type schemaIniter interface {
	InitSchema(ctx context.Context) error
}

// MigrateCmd creates the tables
func MigrateCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the auction, bid and calendar tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withStore(func(store database.Store) error {
				initer, ok := store.(schemaIniter)
				if !ok {
					return fmt.Errorf("store does not manage a schema")
				}
				if err := initer.InitSchema(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			})
		},
	}
}

// ResolveCmd prints the booking periods of an auction
func ResolveCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <auction-id>",
		Short: "Print the booking periods each winner would receive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withStore(func(store database.Store) error {
				periods, err := env.resolver(store).BookingPeriods(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), periods)
			})
		},
	}
}

// WinnersCmd prints per-night winners, or periods without --daily
func WinnersCmd(env *Env) *cobra.Command {
	var daily bool
	cmd := &cobra.Command{
		Use:   "winners <auction-id>",
		Short: "Print the winners of an auction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withStore(func(store database.Store) error {
				r := env.resolver(store)
				if !daily {
					periods, err := r.BookingPeriods(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), periods)
				}
				winners, err := r.DailyWinners(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), winners)
			})
		},
	}
	cmd.Flags().BoolVar(&daily, "daily", false, "print one winner per night instead of booking periods")
	return cmd
}

// CloseCmd settles an auction
func CloseCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "close <auction-id>",
		Short: "Award winning bids and end the auction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withStore(func(store database.Store) error {
				settlement, err := env.resolver(store).Close(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), settlement)
			})
		},
	}
}

// StandingCmd prints a user's win/loss report
func StandingCmd(env *Env) *cobra.Command {
	var insights bool
	cmd := &cobra.Command{
		Use:   "standing <auction-id> <user-id>",
		Short: "Compare a user's bid with the recorded nightly prices",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[1], err)
			}
			return env.withStore(func(store database.Store) error {
				a := env.analyzer(store)
				var report any
				if insights {
					report, err = a.Insights(cmd.Context(), userID, args[0])
				} else {
					report, err = a.Standing(cmd.Context(), userID, args[0])
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().BoolVar(&insights, "insights", false, "include a rating and recommendations")
	return cmd
}
