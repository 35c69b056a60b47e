package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ak/mealplanner/internal/app/middleware"
	"github.com/ak/mealplanner/internal/domain/models"
	"github.com/ak/mealplanner/internal/domain/services"
	"github.com/ak/mealplanner/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDay parses an optional YYYY-MM-DD value, defaulting to today.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

func newPruneCmd() *cobra.Command {
	var now string
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop ingredient tracking records older than 30 days",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(now)
			if err != nil {
				return err
			}

			ctx := context.Background()
			_, log, repos, cleanup, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			svc := services.NewTrackingService(repos.Tracking, repos.Schedule, repos.Dish, log)
			removed, err := svc.Prune(ctx, day)
			if err != nil {
				return err
			}
			fmt.Printf("removed %d tracking record(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().StringVar(&now, "now", "", "reference date (YYYY-MM-DD, default today)")
	return cmd
}

func newUpcomingCmd() *cobra.Command {
	var today string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List dishes cooked today or tomorrow that still need ingredients",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(today)
			if err != nil {
				return err
			}

			ctx := context.Background()
			_, log, repos, cleanup, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			svc := services.NewTrackingService(repos.Tracking, repos.Schedule, repos.Dish, log)
			upcoming, err := svc.Upcoming(ctx, day)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(upcoming)
			}

			if len(upcoming) == 0 {
				fmt.Println("all ingredients for the next two days are in")
				return nil
			}
			for _, u := range upcoming {
				state := "ingredients not tracked"
				if u.Tracked {
					state = "missing: " + strings.Join(u.Missing, ", ")
				}
				fmt.Printf("%s %-6s %s (%s)\n", u.Date, u.MealType, u.DishName, state)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&today, "today", "", "first day of the window (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newSlotsCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "slots DATE MEAL",
		Short: "Show the next free slots after a meal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, log, repos, cleanup, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			svc := services.NewScheduleService(repos.Schedule, log)
			slots, err := svc.NextSlots(ctx, args[0], args[1], count)
			if err != nil {
				return err
			}
			for _, s := range slots {
				fmt.Println(s)
			}
			if len(slots) < count {
				fmt.Fprintf(os.Stderr, "only %d free slot(s) within %d days\n", len(slots), services.PlacementHorizonDays)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of slots")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var subject, household string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API bearer token signed with jwt.secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if !cfg.AuthEnabled() {
				return fmt.Errorf("jwt.secret is not set; the API is running without auth")
			}

			jwtCfg := middleware.JWTConfig{
				Secret:         cfg.JWT.Secret,
				Issuer:         cfg.JWT.Issuer,
				AccessTokenTTL: cfg.JWT.AccessTokenTTL,
			}
			if ttl > 0 {
				jwtCfg.AccessTokenTTL = ttl
			}

			token, err := middleware.GenerateToken(jwtCfg, subject, household)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "household", "token subject")
	cmd.Flags().StringVar(&household, "household", "", "household name stored in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default jwt.access_token_ttl)")
	return cmd
}
