package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pitcall-engine/internal/advisory"
	"pitcall-engine/internal/api"
	"pitcall-engine/internal/db"
	"pitcall-engine/internal/engine"
	"pitcall-engine/internal/hub"
	"pitcall-engine/internal/telemetry"
	"pitcall-engine/internal/track"
)

var dbPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "pitcall",
		Short: "Pit-Call Timing Engine - realtime pit stop call advisories",
		Long: `Continuously converts noisy position/speed telemetry for a single car
into a calibrated time-to-call estimate and a discrete advisory status,
and streams the result to any number of connected display clients.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "pitcall.db", "Path to SQLite advisory log (empty disables recording)")

	// Add commands
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(replayCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// serveCmd runs the engine with its WebSocket and REST surfaces
func serveCmd() *cobra.Command {
	var port int
	var trackPath string
	var windowSize int
	var lookaheadM float64

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pit-call timing engine server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := track.Load(trackPath)
			if err != nil {
				return err
			}

			h := hub.New()
			defer h.Close()
			eng := engine.New(cfg, h, windowSize, lookaheadM)

			var database *db.Database
			if dbPath != "" {
				database, err = db.New(dbPath)
				if err != nil {
					return fmt.Errorf("database error: %w", err)
				}
				defer database.Close()
			}

			server := api.NewServer(eng, h, database)
			addr := fmt.Sprintf(":%d", port)

			fmt.Printf("🏁 Pit-Call Timing Engine\n")
			fmt.Printf("   Listening on http://localhost%s\n", addr)
			fmt.Printf("   Track: %s (call point %.0fm, buffer %.1fs)\n", trackPath, cfg.CallPointM(), cfg.BufferS)
			if database != nil {
				fmt.Printf("   Advisory log: %s\n", dbPath)
			}
			fmt.Println()
			fmt.Println("Endpoints:")
			fmt.Println("  WS   /ws/telemetry")
			fmt.Println("  WS   /ws/advisories")
			fmt.Println("  GET  /health")
			fmt.Println("  GET  /api/v1/track")
			fmt.Println("  GET  /api/v1/advisory/latest")
			fmt.Println("  GET  /api/v1/advisories")
			fmt.Println("  GET  /api/v1/stats")
			fmt.Println()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			httpServer := &http.Server{Addr: addr, Handler: server.Router()}
			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})

			if database != nil {
				id, packets := h.Subscribe()
				g.Go(func() error {
					defer h.Unsubscribe(id)
					if err := database.Record(ctx, packets); err != nil && !errors.Is(err, context.Canceled) {
						return err
					}
					return nil
				})
			}

			g.Go(func() error {
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8765, "Server port")
	cmd.Flags().StringVarP(&trackPath, "track", "t", "tracks/monaco.json", "Path to track configuration JSON")
	cmd.Flags().IntVarP(&windowSize, "window", "w", 50, "Sliding window size in samples")
	cmd.Flags().Float64VarP(&lookaheadM, "lookahead", "l", engine.DefaultLookaheadM, "Profile lookahead distance in meters")
	return cmd
}

// replayCmd streams a lap telemetry file to a running engine
func replayCmd() *cobra.Command {
	var url string
	var format string
	var rateHz float64

	cmd := &cobra.Command{
		Use:   "replay [file]",
		Short: "Stream a lap telemetry file to a running engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, err := telemetry.NewParser(format).ParseFile(args[0])
			if err != nil {
				return err
			}
			if len(samples) == 0 {
				return fmt.Errorf("no samples in %s", args[0])
			}

			fmt.Printf("Connecting to %s...\n", url)
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer conn.Close()

			interval := time.Duration(float64(time.Second) / rateHz)
			fmt.Printf("Streaming %d samples from %s at %.0f Hz...\n", len(samples), args[0], rateHz)

			start := time.Now()
			for i, s := range samples {
				if err := conn.WriteJSON(s); err != nil {
					return fmt.Errorf("send failed at sample %d: %w", i, err)
				}
				if i > 0 && i%100 == 0 {
					fmt.Printf("\rSent %d/%d samples...", i, len(samples))
				}
				time.Sleep(interval)
			}

			elapsed := time.Since(start)
			fmt.Printf("\n✓ Streamed %d samples in %v\n", len(samples), elapsed.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "ws://localhost:8765/ws/telemetry", "Engine telemetry WebSocket URL")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "File format (csv, json)")
	cmd.Flags().Float64VarP(&rateHz, "rate", "r", 10, "Samples per second")
	return cmd
}

// generateCmd produces a synthetic lap telemetry file
func generateCmd() *cobra.Command {
	var output string
	var lapLength float64
	var step float64
	var topSpeed float64
	var seed int64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic lap telemetry file",
		RunE: func(cmd *cobra.Command, args []string) error {
			rng := rand.New(rand.NewSource(seed))
			samples := telemetry.GenerateLap(lapLength, step, topSpeed, rng)
			if len(samples) == 0 {
				return fmt.Errorf("invalid lap parameters")
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("error creating output file: %w", err)
			}
			defer file.Close()

			w := csv.NewWriter(file)
			if err := w.Write([]string{"lap_distance_m", "speed_kph"}); err != nil {
				return err
			}
			for _, s := range samples {
				record := []string{
					strconv.FormatFloat(s.LapDistanceM, 'f', 1, 64),
					strconv.FormatFloat(s.SpeedKPH, 'f', 1, 64),
				}
				if err := w.Write(record); err != nil {
					return err
				}
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}

			fmt.Printf("✓ Generated %d samples over %.0fm to %s\n", len(samples), lapLength, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "lap.csv", "Output file")
	cmd.Flags().Float64VarP(&lapLength, "lap-length", "L", 3337, "Lap length in meters")
	cmd.Flags().Float64VarP(&step, "step", "s", 10, "Sample spacing in meters")
	cmd.Flags().Float64VarP(&topSpeed, "top-speed", "T", 280, "Straight-line top speed in km/h")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "Random seed")
	return cmd
}

// queryCmd queries the recorded advisory history
func queryCmd() *cobra.Command {
	var status string
	var limit int
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query recorded advisories",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.New(dbPath)
			if err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer database.Close()

			q := db.AdvisoryQuery{
				Status: advisory.Status(status),
				Limit:  limit,
			}

			start := time.Now()
			results, err := database.QueryAdvisories(q)
			if err != nil {
				return fmt.Errorf("query error: %w", err)
			}
			elapsed := time.Since(start)

			switch outputFormat {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				enc.Encode(results)
			default:
				fmt.Printf("Found %d advisories (query time: %v)\n\n", len(results), elapsed)
				for _, r := range results {
					fmt.Printf("[%s] %-10s | dist %.1fm @ %.1f km/h | t_call %.2fs | t_safe %.2fs\n",
						r.EmittedAt.Format("2006-01-02 15:04:05"),
						r.Packet.Status, r.Packet.LapDistanceM, r.Packet.SpeedKPH,
						r.Packet.TCall, r.Packet.TSafe)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "S", "", "Filter by status (GREEN, AMBER, RED, LOCKED_OUT)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 100, "Maximum records to return")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")
	return cmd
}

// statsCmd shows advisory log statistics
func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show advisory log statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.New(dbPath)
			if err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer database.Close()

			stats, err := database.GetStats()
			if err != nil {
				return fmt.Errorf("error getting stats: %w", err)
			}

			fmt.Println("📊 Pit-Call Advisory Log Statistics")
			fmt.Println("===================================")
			fmt.Printf("  Total Advisories:  %v\n", stats["total_advisories"])
			if byStatus, ok := stats["by_status"].(map[string]int64); ok {
				for _, s := range []string{"GREEN", "AMBER", "RED", "LOCKED_OUT"} {
					if n := byStatus[s]; n > 0 {
						fmt.Printf("  %-18s %d\n", s+":", n)
					}
				}
			}
			if v, ok := stats["min_t_safe"]; ok {
				fmt.Printf("  Tightest Margin:   %.2fs\n", v)
			}
			if v, ok := stats["max_speed_kph"]; ok {
				fmt.Printf("  Top Speed:         %.1f km/h\n", v)
			}
			fmt.Printf("  Database:          %s\n", dbPath)

			return nil
		},
	}
}
