// MacroLens: FRED economic data tools for AI agents
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/macrolens/api"
	"github.com/seenimoa/macrolens/internal/config"
	"github.com/seenimoa/macrolens/internal/fred"
	"github.com/seenimoa/macrolens/internal/logging"
	"github.com/seenimoa/macrolens/internal/mcp"
	"github.com/seenimoa/macrolens/internal/news"
	"github.com/seenimoa/macrolens/internal/snapshot"
	"github.com/seenimoa/macrolens/internal/tools"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	// A .env file is optional; environment variables win either way.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "macrolens",
	Short: "MacroLens: FRED economic data tools for AI agents",
	Long: `MacroLens gives AI agent runtimes read access to FRED
(Federal Reserve Economic Data) time series. Every fetch is
snapshotted locally so agents can recall what the data looked like
when they saw it. Tools are exposed over MCP stdio, a REST API,
and this CLI.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(statusCmd)
}

// newLogger builds the process logger from the loaded config. It writes to
// stderr so command output and the MCP wire stay clean on stdout.
func newLogger() (*zap.Logger, error) {
	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, nil
}

// buildDeps wires the tool dependency set from the loaded config.
func buildDeps(log *zap.Logger) *tools.Deps {
	return &tools.Deps{
		Client: fred.New(fred.Options{
			BaseURL:    cfg.FRED.BaseURL,
			APIKey:     cfg.FRED.APIKey,
			RequireKey: cfg.FRED.RequireAPIKey,
			Timeout:    time.Duration(cfg.FRED.TimeoutSec) * time.Second,
		}),
		Store:            snapshot.NewStore(cfg.Snapshots.Dir, log),
		News:             news.New(time.Duration(cfg.News.CacheTTLMin)*time.Minute, log),
		Log:              log,
		SnapshotsEnabled: cfg.Snapshots.Enabled,
		HistoryLimit:     cfg.Snapshots.HistoryLimit,
	}
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("MacroLens %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch [series...]",
	Short: "Fetch observations for one or more FRED series",
	Long: `Fetch observations for one or more FRED series and snapshot them
locally. Series are fetched concurrently.

Examples:
  macrolens fetch GDP
  macrolens fetch GDP UNRATE CPIAUCSL --limit 24 --sort-order desc
  macrolens fetch GDPC1 --units pc1 --frequency q --start 2020-01-01`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		deps := buildDeps(log)
		if noSave, _ := cmd.Flags().GetBool("no-save"); noSave {
			deps.SnapshotsEnabled = false
		}
		reg := tools.NewRegistry(deps)

		shared := map[string]any{}
		for flag, key := range map[string]string{
			"sort-order":     "sort_order",
			"units":          "units",
			"frequency":      "frequency",
			"aggregation":    "aggregation_method",
			"start":          "observation_start",
			"end":            "observation_end",
			"realtime-start": "realtime_start",
			"realtime-end":   "realtime_end",
			"vintage-dates":  "vintage_dates",
		} {
			if cmd.Flags().Changed(flag) {
				shared[key], _ = cmd.Flags().GetString(flag)
			}
		}
		for flag, key := range map[string]string{
			"limit":       "limit",
			"offset":      "offset",
			"output-type": "output_type",
		} {
			if cmd.Flags().Changed(flag) {
				shared[key], _ = cmd.Flags().GetInt(flag)
			}
		}

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(4)

		results := make([]string, len(args))
		for i, id := range args {
			i, id := i, id
			g.Go(func() error {
				toolArgs := map[string]any{"series_id": id}
				for k, v := range shared {
					toolArgs[k] = v
				}
				raw, err := json.Marshal(toolArgs)
				if err != nil {
					return err
				}

				out, err := reg.Execute(ctx, tools.NameGetSeriesObservations, raw)
				if err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}

				var obs []fred.Observation
				if err := json.Unmarshal([]byte(out), &obs); err != nil {
					return fmt.Errorf("%s: decode result: %w", id, err)
				}
				last := obs[len(obs)-1]
				results[i] = fmt.Sprintf("✅ %s: %d observations (latest %s = %s)",
					id, len(obs), last.Date, last.Value)
				return nil
			})
		}

		err = g.Wait()
		for _, line := range results {
			if line != "" {
				fmt.Println(line)
			}
		}
		return err
	},
}

func init() {
	fetchCmd.Flags().Int("limit", 10, "maximum number of observations")
	fetchCmd.Flags().Int("offset", 0, "observation offset")
	fetchCmd.Flags().Int("output-type", 1, "FRED output type (1-4)")
	fetchCmd.Flags().String("sort-order", "", "sort order (asc, desc)")
	fetchCmd.Flags().String("units", "", "data value transformation (lin, chg, ch1, pch, pc1, pca, cch, cca, log)")
	fetchCmd.Flags().String("frequency", "", "frequency aggregation (d, w, bw, m, q, sa, a, ...)")
	fetchCmd.Flags().String("aggregation", "", "aggregation method (avg, sum, eop)")
	fetchCmd.Flags().String("start", "", "observation start date (YYYY-MM-DD)")
	fetchCmd.Flags().String("end", "", "observation end date (YYYY-MM-DD)")
	fetchCmd.Flags().String("realtime-start", "", "real-time period start (YYYY-MM-DD)")
	fetchCmd.Flags().String("realtime-end", "", "real-time period end (YYYY-MM-DD)")
	fetchCmd.Flags().String("vintage-dates", "", "comma-separated vintage dates")
	fetchCmd.Flags().Bool("no-save", false, "skip writing a local snapshot")
}

// --- History Command ---

var historyCmd = &cobra.Command{
	Use:   "history [series]",
	Short: "Show the saved snapshot history for a series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		deps := buildDeps(log)
		if cmd.Flags().Changed("limit") {
			deps.HistoryLimit, _ = cmd.Flags().GetInt("limit")
		}
		reg := tools.NewRegistry(deps)

		raw, _ := json.Marshal(map[string]string{"series_id": args[0]})
		out, err := reg.Execute(cmd.Context(), tools.NameGetSeriesHistory, raw)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 3, "number of snapshots to include")
}

// --- Series Command ---

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "List all series with saved snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		reg := tools.NewRegistry(buildDeps(log))
		out, err := reg.Execute(cmd.Context(), tools.NameListSavedSeries, nil)
		if err != nil {
			return err
		}

		var ids []string
		if err := json.Unmarshal([]byte(out), &ids); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
		if len(ids) == 0 {
			fmt.Println("No saved series. Run `macrolens fetch <series>` first.")
			return nil
		}
		fmt.Printf("Saved series (%d):\n", len(ids))
		for _, id := range ids {
			fmt.Printf("  %s\n", id)
		}
		return nil
	},
}

// --- Snapshots Command ---

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots [series]",
	Short: "List snapshot files for a series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		reg := tools.NewRegistry(buildDeps(log))
		raw, _ := json.Marshal(map[string]string{"series_id": args[0]})
		out, err := reg.Execute(cmd.Context(), tools.NameListHistory, raw)
		if err != nil {
			return err
		}

		var names []string
		if err := json.Unmarshal([]byte(out), &names); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
		if len(names) == 0 {
			fmt.Printf("No snapshots for %s.\n", args[0])
			return nil
		}
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
		return nil
	},
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Show recent economic news from Fed and statistical agency feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		limit, _ := cmd.Flags().GetInt("limit")
		reg := tools.NewRegistry(buildDeps(log))
		raw, _ := json.Marshal(map[string]int{"limit": limit})
		out, err := reg.Execute(cmd.Context(), tools.NameGetEconomicNews, raw)
		if err != nil {
			return err
		}

		var articles []news.Article
		if err := json.Unmarshal([]byte(out), &articles); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
		if len(articles) == 0 {
			fmt.Println("No news available.")
			return nil
		}
		for _, a := range articles {
			fmt.Printf("📰 %s\n", a.Title)
			fmt.Printf("   %s · %s\n", a.Source, a.PublishedAt.Format("2006-01-02 15:04"))
			if a.Summary != "" {
				fmt.Printf("   %s\n", a.Summary)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().Int("limit", 10, "maximum number of articles")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		if cmd.Flags().Changed("port") {
			cfg.API.Port, _ = cmd.Flags().GetInt("port")
		}

		srv := api.NewServer(cfg, buildDeps(log))
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 MacroLens API server listening on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "port override for the API server")
}

// --- MCP Command (stdio server) ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve tools over MCP stdio for AI agent runtimes",
	Long: `Serve the tool registry over the Model Context Protocol on
stdin/stdout. Logs go to stderr so the protocol stream stays clean.

Register with an agent runtime like:
  {"command": "macrolens", "args": ["mcp"]}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		reg := tools.NewRegistry(buildDeps(log))
		srv := mcp.NewServer("macrolens", version, reg, log)
		return srv.Serve(cmd.Context())
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  MacroLens: System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Println()

		// Config summary
		fmt.Println("  Configuration:")
		fmt.Printf("    FRED API:    %s (timeout %ds)\n", cfg.FRED.BaseURL, cfg.FRED.TimeoutSec)
		fmt.Printf("    Snapshots:   %s (enabled: %v, history limit: %d)\n",
			cfg.Snapshots.Dir, cfg.Snapshots.Enabled, cfg.Snapshots.HistoryLimit)
		fmt.Printf("    News cache:  %d min\n", cfg.News.CacheTTLMin)
		fmt.Printf("    API Server:  %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Printf("    Logging:     %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
		fmt.Println()

		// API keys status
		fmt.Println("  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
