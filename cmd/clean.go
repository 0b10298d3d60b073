package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/brogergvhs/pagetidy/internal/config"
	"github.com/brogergvhs/pagetidy/internal/dom"
	"github.com/brogergvhs/pagetidy/internal/fetch"
	"github.com/brogergvhs/pagetidy/internal/pipeline"
	"github.com/brogergvhs/pagetidy/internal/sources"
	"github.com/brogergvhs/pagetidy/internal/ui"
	"github.com/brogergvhs/pagetidy/internal/util"

	"github.com/spf13/cobra"
)

var (
	// rule
	flagSelector   string
	flagPhrase     string
	flagTransforms []string

	// selection
	flagRange    string
	flagList     string
	flagAllowExt string

	// runtime
	flagOutput     string
	flagInPlace    bool
	flagArchive    string
	flagWorkers    int
	flagDryRun     bool
	flagSkipBroken bool

	// headers/auth
	flagCookie     string
	flagCookieFile string
	flagUserAgent  string
	flagCFBypass   bool
)

func init() {
	cleanCmd := &cobra.Command{
		Use:   "clean [file|dir|url]...",
		Short: "Remove the unwanted paragraph from HTML files, directories or URLs. Uses the defaults from the selected config, overwritten by CLI flags",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runClean,
	}

	addRuleFlags(cleanCmd)

	// selection
	cleanCmd.Flags().StringVar(&flagRange, "range", "", "clean a range of sources by index (e.g. 2-5)")
	cleanCmd.Flags().StringVar(&flagList, "list", "", "clean specific source indices (e.g. 1,3,5)")
	cleanCmd.Flags().StringVar(&flagAllowExt, "allow-ext", "", "file extensions picked up from directories (e.g. \"html|htm\")")

	// runtime
	cleanCmd.Flags().StringVar(&flagOutput, "output", "", "output folder for cleaned pages")
	cleanCmd.Flags().BoolVar(&flagInPlace, "in-place", false, "rewrite local files in place instead of writing copies")
	cleanCmd.Flags().StringVar(&flagArchive, "archive", "", "also bundle cleaned pages into this zip file")
	cleanCmd.Flags().IntVar(&flagWorkers, "workers", 4, "parallel pages")
	cleanCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "show what would be cleaned, don’t write anything")
	cleanCmd.Flags().BoolVar(&flagSkipBroken, "skip-broken", false, "keep going when a page fails instead of failing the run")

	addClientFlags(cleanCmd)

	rootCmd.AddCommand(cleanCmd)
}

func addRuleFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagSelector, "selector", "", "primary CSS selector of the element to remove (default \"ul + p\")")
	c.Flags().StringVar(&flagPhrase, "phrase", "", "fallback: remove the first paragraph containing this text, any case (default \"Here are\")")
	c.Flags().StringSliceVar(&flagTransforms, "transform", nil, "extra rewrites after cleanup: "+strings.Join(dom.TransformNames(), ", "))
}

func addClientFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	c.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	c.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	c.Flags().BoolVar(&flagCFBypass, "cf-bypass", false, "use a browser-like TLS fingerprint for Cloudflare-fronted sites")
}

func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg, usedPath, err := config.LoadMerged(config.Options{
		IgnoreConfig: flagIgnoreConfig,
		Debug:        flagDebug,
		Selector:     flagSelector,
		Phrase:       flagPhrase,
		Transforms:   flagTransforms,
		Output:       flagOutput,
		InPlace:      flagInPlace,
		Archive:      flagArchive,
		SkipBroken:   flagSkipBroken,
		DefaultRange: flagRange,
		DefaultList:  flagList,
		Cookie:       flagCookie,
		CookieFile:   flagCookieFile,
		UserAgent:    flagUserAgent,
		CFBypass:     flagCFBypass,
		Listen:       flagListen,
		Upstream:     flagUpstream,
		Workers:      workersFlag(cmd),
	})
	if err != nil {
		return nil, "", err
	}

	if flagAllowExt != "" {
		cfg.AllowExt = splitExt(flagAllowExt)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, usedPath, nil
}

func newClient(cfg *config.Config, logSvc *ui.Logger) (*http.Client, error) {
	return util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:     30 * time.Second,
		UserAgent:   util.PickUserAgent(cfg.UserAgent),
		Cookie:      cfg.Cookie,
		CookieFile:  cfg.CookieFile,
		CFBypass:    cfg.CFBypass,
		DebugLogger: logSvc,
	})
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, usedPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logSvc := ui.NewLogger(cfg.Debug)
	defer logSvc.Sync()

	if usedPath != "" {
		fmt.Printf("Config file: %s\n", usedPath)
	}

	fmt.Println("Full config:")
	cfg.Print()
	fmt.Println()

	all, err := sources.Resolve(args, cfg.AllowExt)
	if err != nil {
		return err
	}

	selected := sources.Filter(all, cfg.DefaultRange, cfg.DefaultList)
	if len(selected) == 0 {
		return fmt.Errorf("no pages selected (found %d)", len(all))
	}

	cleaner, err := cfg.NewCleaner()
	if err != nil {
		return err
	}
	logSvc.Debugf("locator: %s, fallback selector: %s, transforms: %v",
		cleaner.Locator().Name(), cfg.Rule().FallbackSelector(), cleaner.Transforms())

	if flagDryRun {
		fmt.Printf("Dry-run: %d of %d pages selected.\n\n", len(selected), len(all))
		for i, s := range selected {
			fmt.Printf("%3d) %-4s %s\n     -> %s\n", i+1, s.Kind, s.Ref, dryRunTarget(cfg, s))
		}
		return nil
	}

	client, err := newClient(cfg, logSvc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := pipeline.New(fetch.NewLoader(client), cleaner, logSvc, pipeline.Options{
		OutputDir:  cfg.Output,
		InPlace:    cfg.InPlace,
		Workers:    cfg.Workers,
		SkipBroken: cfg.SkipBroken,
	})

	pm := ui.NewProgressManager(os.Stdout)
	handle := pm.Register("Pages", len(selected))

	stats := &ui.Stats{}
	start := time.Now()

	results, runErr := runner.Run(ctx, selected, handle, stats)
	pm.Close()

	if ctx.Err() != nil {
		// Run has returned, so no worker is still writing.
		n := util.CleanupInterrupted(cfg.Output)
		logSvc.Warnf("interrupted: removed %d unfinished files", n)
	}

	if entries := pipeline.ArchiveEntries(results); cfg.Archive != "" && len(entries) > 0 {
		if err := util.CreateArchive(entries, cfg.Archive); err != nil {
			logSvc.Errorf("archive %s failed: %v", cfg.Archive, err)
		} else {
			fmt.Printf("Archive:  %s (%d pages)\n", cfg.Archive, len(entries))
		}
	}

	fmt.Println()
	fmt.Println("Clean Summary:")
	fmt.Printf("Pages:    %d\n", stats.TotalPages.Load())
	fmt.Printf("Removed:  %d (primary %d, fallback %d)\n", stats.Removed(), stats.Primary.Load(), stats.Fallback.Load())
	if failed := stats.Failed.Load(); failed > 0 {
		fmt.Printf("Failed:   %d\n", failed)
	}
	fmt.Printf("Data:     %s\n", util.Human(stats.TotalBytes.Load()))
	fmt.Printf("Time:     %s\n", time.Since(start).Round(time.Millisecond))

	if runErr != nil {
		return runErr
	}

	fmt.Println("\nAll done.")
	return nil
}

// workersFlag returns the --workers value only when it was set explicitly,
// so a profile or env value is not masked by the flag default.
func workersFlag(cmd *cobra.Command) int {
	if f := cmd.Flags().Lookup("workers"); f != nil && f.Changed {
		return flagWorkers
	}
	return 0
}

func dryRunTarget(cfg *config.Config, s sources.Source) string {
	if cfg.InPlace && !s.IsRemote() {
		return "(in place)"
	}

	return filepath.Join(cfg.Output, s.Name)
}

func splitExt(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ',' || r == ' '
	})

	out := []string{}
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			out = append(out, f)
		}
	}

	return out
}
