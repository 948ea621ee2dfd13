package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lancedesk/seopass/internal/cache"
	"github.com/lancedesk/seopass/internal/config"
	"github.com/lancedesk/seopass/internal/content"
	"github.com/lancedesk/seopass/internal/correct"
	"github.com/lancedesk/seopass/internal/database"
	"github.com/lancedesk/seopass/internal/detect"
	"github.com/lancedesk/seopass/internal/importer"
	"github.com/lancedesk/seopass/internal/improve"
	"github.com/lancedesk/seopass/internal/optimizer"
	"github.com/lancedesk/seopass/internal/pipeline"
	"github.com/lancedesk/seopass/internal/preserve"
	"github.com/lancedesk/seopass/internal/progress"
	"github.com/lancedesk/seopass/internal/retry"
	"github.com/lancedesk/seopass/internal/rewrite"
	"github.com/lancedesk/seopass/internal/server"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "seopass",
	Short:   "Multi-pass SEO content validation and correction",
	Long:    "seopass validates content against SEO rules and runs correction passes until the compliance target is reached.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("seopass", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/seopass/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to adjust thresholds, the compliance target, and the rewrite provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Sessions:")
		fmt.Printf("  Total: %d\n", stats.TotalSessions)
		fmt.Printf("  Compliant: %d\n", stats.CompliantSessions)
		fmt.Println("\nCache:")
		fmt.Printf("  Entries: %d\n", stats.CacheEntries)
		if counts, err := db.CacheTierCounts(); err == nil {
			for tier, n := range counts {
				fmt.Printf("    %s: %d\n", tier, n)
			}
		}
		fmt.Println("\nLearned strategies:")
		fmt.Printf("  Total: %d\n", stats.LearnedStrategies)
		return nil
	},
}

// --- validate command ---

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate [content.json]",
	Short: "Validate a content file without correcting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := content.Load(args[0])
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		det := detect.New(cfg.Thresholds)
		vc := cache.New(db, cfg.Cache)
		pipe := pipeline.New(det, nil, nil, vc, cfg.Optimizer)
		detection := pipe.Validate(c)

		if validateJSON {
			return json.NewEncoder(os.Stdout).Encode(detection)
		}

		fmt.Printf("Compliance score: %.1f / 100\n", detection.ComplianceScore)
		fmt.Printf("Issues: %d (%d critical, %d major, %d minor)\n\n",
			detection.TotalIssues, detection.CriticalIssues, detection.MajorIssues, detection.MinorIssues)
		for _, line := range detect.Summarize(detection.Issues) {
			fmt.Printf("  %s\n", line)
		}
		if detection.IsCompliant {
			fmt.Println("Content is fully compliant.")
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print the detection as JSON")
}

// --- optimize command ---

var (
	optimizeOutput  string
	optimizeMaxIter int
	optimizeTarget  float64
	optimizeDryRun  bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [content.json]",
	Short: "Run multi-pass optimization on a content file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := content.Load(args[0])
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if optimizeMaxIter > 0 {
			cfg.Optimizer.MaxIterations = optimizeMaxIter
		}
		if optimizeTarget > 0 {
			cfg.Optimizer.TargetComplianceScore = optimizeTarget
		}

		opt := buildOptimizer(cfg, db)
		result := opt.Optimize(context.Background(), c)

		fmt.Printf("Score: %.1f -> %.1f over %d pass(es)\n",
			result.BaselineScore, result.FinalScore, result.Passes)
		fmt.Printf("Terminated: %s (compliant: %v)\n", result.TerminationReason, result.ComplianceAchieved)
		if result.Trend != nil {
			fmt.Printf("Trend: %s, velocity %+.2f per pass\n", result.Trend.Direction, result.Trend.Velocity)
			if result.Trend.ConvergencePredicted {
				fmt.Printf("Predicted passes to full compliance: %d\n", result.Trend.PassesToConvergence)
			}
		}

		if optimizeDryRun {
			fmt.Println("Dry run; content file left untouched.")
			return nil
		}

		output := optimizeOutput
		if output == "" {
			output = args[0]
		}
		if err := result.Content.Save(output); err != nil {
			return err
		}
		fmt.Printf("Wrote optimized content to %s\n", output)
		fmt.Println("Run 'seopass report' for the full pass history.")
		return nil
	},
}

func init() {
	optimizeCmd.Flags().StringVarP(&optimizeOutput, "output", "o", "", "Write optimized content to this file (default: overwrite input)")
	optimizeCmd.Flags().IntVar(&optimizeMaxIter, "max-iterations", 0, "Override the maximum number of passes")
	optimizeCmd.Flags().Float64Var(&optimizeTarget, "target", 0, "Override the target compliance score")
	optimizeCmd.Flags().BoolVar(&optimizeDryRun, "dry-run", false, "Run the optimization but do not write the result")
}

// --- report command ---

var reportCmd = &cobra.Command{
	Use:   "report [session-id]",
	Short: "Show the report of a session (latest if omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var session *database.Session
		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session ID: %s", args[0])
			}
			session, err = db.GetSession(id)
			if err != nil {
				return err
			}
		} else {
			session, err = db.LatestSession()
			if err != nil {
				return err
			}
		}
		if session == nil {
			return fmt.Errorf("no session found; run 'seopass optimize' first")
		}

		raw, err := db.GetReport(session.ID)
		if err != nil {
			return err
		}
		if raw == "" {
			return fmt.Errorf("no report stored for session %d", session.ID)
		}

		var rep progress.Report
		if err := json.Unmarshal([]byte(raw), &rep); err != nil {
			return fmt.Errorf("decoding report: %w", err)
		}
		fmt.Print(rep.Format())
		return nil
	},
}

// --- import command ---

var importOutput string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import existing content from the web",
}

var importPageCmd = &cobra.Command{
	Use:   "page [url]",
	Short: "Import a single page as a content file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		im := importer.New(15 * time.Second)
		c, err := im.Page(args[0])
		if err != nil {
			return err
		}

		output := importOutput
		if output == "" {
			output = "content.json"
		}
		if err := c.Save(output); err != nil {
			return err
		}
		fmt.Printf("Imported %q (%d images, %d internal links, %d outbound links)\n",
			c.Title, len(c.ImagePrompts), len(c.InternalLinks), len(c.OutboundLinks))
		fmt.Printf("Wrote %s; set focus_keyword before optimizing.\n", output)
		return nil
	},
}

var importFeedLimit int

var importFeedCmd = &cobra.Command{
	Use:   "feed [url]",
	Short: "Import entries of an RSS/Atom feed as content files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		im := importer.New(15 * time.Second)
		records, err := im.Feed(args[0], importFeedLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("Feed contained no usable entries.")
			return nil
		}

		dir := importOutput
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		for i, c := range records {
			path := filepath.Join(dir, fmt.Sprintf("entry-%02d.json", i+1))
			if err := c.Save(path); err != nil {
				return err
			}
			fmt.Printf("  %s: %q\n", path, c.Title)
		}
		fmt.Printf("Imported %d entries.\n", len(records))
		return nil
	},
}

func init() {
	importCmd.PersistentFlags().StringVarP(&importOutput, "output", "o", "", "Output file (page) or directory (feed)")
	importFeedCmd.Flags().IntVar(&importFeedLimit, "limit", 0, "Maximum entries to import")
	importCmd.AddCommand(importPageCmd)
	importCmd.AddCommand(importFeedCmd)
}

// --- cache command ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the validation cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show persistent cache entry counts per tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		counts, err := db.CacheTierCounts()
		if err != nil {
			return err
		}
		if len(counts) == 0 {
			fmt.Println("Cache is empty.")
			return nil
		}
		for tier, n := range counts {
			fmt.Printf("  %s: %d\n", tier, n)
		}
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge [content-hash]",
	Short: "Purge expired entries, or all entries for a content hash",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var n int64
		if len(args) == 1 {
			n, err = db.PurgeCacheByContent(args[0])
		} else {
			n, err = db.PurgeExpiredCache(time.Now())
		}
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d cache entries.\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local report server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// buildOptimizer wires the full correction stack for one run.
func buildOptimizer(cfg *config.Config, db *database.DB) *optimizer.Optimizer {
	det := detect.New(cfg.Thresholds)
	vc := cache.New(db, cfg.Cache)
	rng := correct.NewRand(cfg.Optimizer.CorrectionSeed)
	provider := rewrite.FromConfig(cfg.Rewrite)
	correctors := correct.Set(cfg.Thresholds, rng, provider, cfg.Rewrite.MaxTokens)
	rm := retry.NewManager(cfg.Retry, db)
	pipe := pipeline.New(det, correctors, rm, vc, cfg.Optimizer)
	imp := improve.NewTracker(det, vc)
	prog := progress.NewTracker(db, cfg.Optimizer.MaxHistoryEntries)
	return optimizer.New(cfg.Optimizer, pipe, imp, prog, preserve.New(), vc)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "seopass.db")
	return database.Open(dbPath)
}
