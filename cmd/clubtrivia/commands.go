package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/clubtrivia/clubtrivia/internal/hydrate"
	"github.com/clubtrivia/clubtrivia/internal/metrics"
	"github.com/clubtrivia/clubtrivia/internal/storage"
	"github.com/clubtrivia/clubtrivia/internal/trivia"
	"github.com/spf13/cobra"
)

var (
	playWon   bool
	playScore int
	playTime  int
	playLives int
	playMode  string
)

func init() {
	playCmd.Flags().BoolVar(&playWon, "won", false, "Whether the game was won")
	playCmd.Flags().IntVar(&playScore, "score", 0, "The score achieved")
	playCmd.Flags().IntVar(&playTime, "time", 0, "Seconds used")
	playCmd.Flags().IntVar(&playLives, "lives", 0, "Lives remaining")
	playCmd.Flags().StringVar(&playMode, "mode", "daily", "The game mode")

	rootCmd.AddCommand(hydrateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(gamesCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(serveMetricsCmd)
}

var hydrateCmd = &cobra.Command{
	Use:   "hydrate",
	Short: "Run the startup hydration and print the resolved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.teardown()

		ctx := context.Background()
		session, err := a.orchestrator.Run(ctx)
		if err != nil {
			log.Warn("Hydration degraded", "error", err)
		}

		// Daily content is the same for guests and members; warm it in
		// bulk so per-club reads stay local for the rest of the day.
		if err := a.games.FetchAll(ctx); err != nil {
			log.Warn("Bulk daily games fetch failed, falling back to per-club fetches", "error", err)
		}

		switch s := session.(type) {
		case hydrate.Authenticated:
			fmt.Printf("Authenticated as %s (%d points, %d clubs)\n", s.User.ID, s.User.Points, len(s.User.ClubMembers))
			fmt.Printf("All attempts fetched: %t\n", a.server.AllFetched())
		default:
			fmt.Println("Guest session")
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <club>",
	Short: "Show played-today, streak and record per game type for a club",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.teardown()

		ctx := context.Background()
		if _, err := a.orchestrator.Run(ctx); err != nil {
			log.Warn("Hydration degraded", "error", err)
		}

		scope := trivia.ClubScope(args[0])
		store := a.orchestrator.Attempts()
		bundle, err := store.ClubData(ctx, scope)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d games played\n", scope, bundle.TotalGames)
		for _, gt := range trivia.GameTypes {
			rec, ok := bundle.LastAttempts[gt]
			if !ok {
				continue
			}
			played, _ := store.PlayedToday(ctx, scope, gt)
			fmt.Printf("  %-12s played_today=%-5t won=%-5t streak=%d record=%d\n",
				gt, played, rec.Won, rec.Streak, rec.RecordScore)
		}
		return nil
	},
}

var playCmd = &cobra.Command{
	Use:   "play <club> <game-type>",
	Short: "Record an attempt for a club and game type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.teardown()

		ctx := context.Background()
		if _, err := a.orchestrator.Run(ctx); err != nil {
			log.Warn("Hydration degraded", "error", err)
		}

		gt, err := trivia.ParseGameType(args[1])
		if err != nil {
			return err
		}

		rec, err := a.orchestrator.Attempts().RecordAttempt(ctx, trivia.ClubScope(args[0]), trivia.AttemptRecord{
			GameType:       gt,
			Won:            playWon,
			Score:          playScore,
			TimeUsed:       playTime,
			LivesRemaining: playLives,
			GameMode:       playMode,
		})
		if err != nil {
			// The just-played outcome is still the user's result; only
			// server persistence failed.
			return fmt.Errorf("attempt was not persisted: %w", err)
		}
		fmt.Printf("Recorded %s attempt: won=%t score=%d streak=%d record=%d\n",
			rec.GameType, rec.Won, rec.Score, rec.Streak, rec.RecordScore)
		return nil
	},
}

var gamesCmd = &cobra.Command{
	Use:   "games <club>",
	Short: "Show which daily games are available for a club",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.teardown()

		ctx := context.Background()
		if _, err := a.orchestrator.Run(ctx); err != nil {
			log.Warn("Hydration degraded", "error", err)
		}

		bundle, err := a.games.ClubGames(ctx, trivia.ClubScope(args[0]))
		if err != nil {
			return err
		}
		for _, gt := range trivia.GameTypes {
			if payload, ok := bundle.Game(gt); ok {
				fmt.Printf("  %-12s %d bytes\n", gt, len(payload))
			}
		}
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear all on-device snapshots (guest progress included)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.teardown()

		keys := []string{
			storage.KeySession, storage.KeyAttempts, storage.KeyGuestAttempts,
			storage.KeyDailyGames, storage.KeyLastDay,
			storage.KeyAccessToken, storage.KeyRefreshToken,
		}
		for _, key := range keys {
			if err := a.store.Delete(key); err != nil {
				return err
			}
		}
		fmt.Println("Device snapshots cleared")
		return nil
	},
}

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Expose Prometheus metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.teardown()

		port := a.cfg.MetricsPort
		if port == "" {
			port = "9091"
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.NewMetricsHandler())
		log.Info("Metrics server started", "port", port)
		return http.ListenAndServe(":"+port, mux)
	},
}
