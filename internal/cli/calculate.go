package cli

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/loopstate/core/internal/app/streakorch"
	"github.com/loopstate/core/internal/app/xporch"
	"github.com/loopstate/core/internal/daemon"
	"github.com/loopstate/core/internal/domain"
	"github.com/loopstate/core/internal/infra/sqlite"
)

func init() {
	calculateCmd.AddCommand(calculateStreakCmd)
	calculateCmd.AddCommand(calculateXPCmd)
	rootCmd.AddCommand(calculateCmd)

	calculateStreakCmd.Flags().StringVar(&csUserID, "user", "", "user ID (required)")
	calculateStreakCmd.Flags().StringVar(&csStreakKey, "key", "daily", "streak key")
	calculateStreakCmd.Flags().IntVar(&csEventsRequired, "events-required", 1, "events required per day")
	calculateStreakCmd.Flags().IntVar(&csLeewayHours, "leeway-hours", 0, "leeway hours past local midnight")
	calculateStreakCmd.Flags().StringVar(&csFreezeBehavior, "freeze-behavior", "no_freezes", "no_freezes, auto_consume, or manual_consume")
	calculateStreakCmd.Flags().StringVar(&csZone, "zone", "", "IANA zone override (default: resolve from event log)")
	_ = calculateStreakCmd.MarkFlagRequired("user")

	calculateXPCmd.Flags().StringVar(&cxUserID, "user", "", "user ID (required)")
	calculateXPCmd.Flags().StringVar(&cxExperienceKey, "key", "xp", "experience key")
	calculateXPCmd.Flags().StringVar(&cxZone, "zone", "", "IANA zone override (default: UTC)")
	_ = calculateXPCmd.MarkFlagRequired("user")
}

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Run a one-shot local recalculation against the local store",
}

var (
	csUserID         string
	csStreakKey      string
	csEventsRequired int
	csLeewayHours    int
	csFreezeBehavior string
	csZone           string
)

var calculateStreakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Recalculate a streak summary from its event log",
	RunE:  runCalculateStreak,
}

func runCalculateStreak(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	repo := sqlite.NewStreakStore(d.DB, csUserID, csStreakKey)
	params := streakorch.Params{
		UserID: csUserID,
		Config: domain.StreakConfig{
			StreakKey:            csStreakKey,
			EventsRequiredPerDay: csEventsRequired,
			LeewayHours:          csLeewayHours,
			FreezeBehavior:       domain.FreezeBehavior(csFreezeBehavior),
		},
		Zone: csZone,
	}

	summary, err := streakorch.Run(context.Background(), repo, params, time.Now)
	if err != nil {
		return err
	}
	return printJSON(summary)
}

var (
	cxUserID        string
	cxExperienceKey string
	cxZone          string
)

var calculateXPCmd = &cobra.Command{
	Use:   "xp",
	Short: "Recalculate an XP summary from its event log",
	RunE:  runCalculateXP,
}

func runCalculateXP(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	repo := sqlite.NewXPStore(d.DB, cxUserID, cxExperienceKey)
	params := xporch.Params{
		UserID: cxUserID,
		Config: domain.XPConfig{ExperienceKey: cxExperienceKey},
		Zone:   cxZone,
	}

	summary, err := xporch.Run(context.Background(), repo, params, time.Now)
	if err != nil {
		return err
	}
	return printJSON(summary)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
