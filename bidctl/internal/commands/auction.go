package commands

import (
	"fmt"
	"time"

	"github.com/aaronwang/stay-auction/shared/database"
	"github.com/aaronwang/stay-auction/shared/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// CreateAuctionCmd registers an auction for a property's date window
func CreateAuctionCmd(env *Env) *cobra.Command {
	var (
		id, start, end, objective            string
		propertyID                           int64
		startingPrice, increment, minimumBid int64
		minNights, maxNights                 int
		duration                             time.Duration
		active                               bool
	)

	cmd := &cobra.Command{
		Use:   "create-auction",
		Short: "Register an auction for a property's date window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := models.ParseDate(start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			endDate, err := models.ParseDate(end)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			if endDate.Before(startDate) {
				return fmt.Errorf("--end must not be before --start")
			}
			if id == "" {
				id = uuid.NewString()
			}

			now := time.Now().UTC()
			auction := &models.Auction{
				ID:               id,
				PropertyID:       propertyID,
				StartDate:        startDate,
				EndDate:          endDate,
				MinNights:        minNights,
				MaxNights:        maxNights,
				StartingPrice:    startingPrice,
				BidIncrement:     increment,
				MinimumBid:       minimumBid,
				AuctionStartTime: now,
				AuctionEndTime:   now.Add(duration),
				Objective:        models.AuctionObjective(objective),
				Status:           models.AuctionStatusPending,
			}
			if active {
				auction.Status = models.AuctionStatusActive
			}

			return env.withStore(func(store database.Store) error {
				if err := store.CreateAuction(cmd.Context(), auction); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), auction)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&id, "id", "", "auction id (generated when empty)")
	f.Int64Var(&propertyID, "property", 0, "property id")
	f.StringVar(&start, "start", "", "first night, YYYY-MM-DD")
	f.StringVar(&end, "end", "", "last night, YYYY-MM-DD")
	f.IntVar(&minNights, "min-nights", 1, "minimum stay")
	f.IntVar(&maxNights, "max-nights", 0, "maximum stay, 0 for none")
	f.Int64Var(&startingPrice, "starting-price", 0, "base price per night in minor units")
	f.Int64Var(&increment, "increment", 0, "bid increment in minor units")
	f.Int64Var(&minimumBid, "minimum-bid", 0, "minimum price per night in minor units")
	f.StringVar(&objective, "objective", string(models.ObjectiveHighestPerNight), "HIGHEST_TOTAL, HIGHEST_PER_NIGHT or HYBRID")
	f.DurationVar(&duration, "duration", 72*time.Hour, "how long bidding stays open")
	f.BoolVar(&active, "active", true, "open the auction for bids immediately")
	cmd.MarkFlagRequired("property")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	return cmd
}
