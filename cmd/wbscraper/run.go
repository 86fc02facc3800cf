package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"wbscraper/pkg/auth"
	"wbscraper/pkg/config"
	"wbscraper/pkg/crawler"
	"wbscraper/pkg/logger"
	"wbscraper/pkg/metrics"
	"wbscraper/pkg/storage"
	"wbscraper/pkg/ui"
	"wbscraper/pkg/ui/tui"
	"wbscraper/pkg/weibo"
)

var (
	outputDir       string
	cookie          string
	metricsListen   string
	includeIndirect bool
	minFollower     int
	maxFollowPages  int
	skipImages      bool
	useTUI          bool
	notify          bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run once over the configured seeds",
	Long: `Fetch every seed in user_id_list. Seeds listed in user_mblog.id_list get their
timeline crawled; seeds in user_mutual_follow.id_list get their reciprocal-follow
network discovered into mutual_follow.json, rewritten after every new member.

The cookie comes from --cookie, WBSCRAPER_COOKIE, the config file, or the
keychain entry saved with 'wbscraper auth set', in that order.`,
	Example: `  # Use wbscraper.yaml in the current directory
  wbscraper run

  # Expand beyond direct reciprocal followers and expose metrics
  wbscraper run --include-indirect --metrics-listen 127.0.0.1:9090`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func addRunFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&outputDir, "output", "o", "", "output directory")
	fs.StringVar(&cookie, "cookie", "", "Weibo cookie string")
	fs.StringVar(&metricsListen, "metrics-listen", "", "serve Prometheus metrics on host:port")
	fs.BoolVar(&includeIndirect, "include-indirect", false, "expand members beyond the seed")
	fs.IntVar(&minFollower, "min-follower", -1, "minimum followers_count for a member")
	fs.IntVar(&maxFollowPages, "max-follow-pages", -1, "follow listing pages checked per candidate (0 = all)")
	fs.BoolVar(&skipImages, "skip-images", false, "do not download post pictures")
	fs.BoolVar(&useTUI, "tui", false, "show a live dashboard instead of console output")
	fs.BoolVar(&notify, "notify", false, "send a desktop notification when the run ends")
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd.Flags())
	addRunFlags(rootCmd.Flags())
}

func collectRunFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if cookie != "" {
		flags["cookie"] = cookie
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if metricsListen != "" {
		flags["metrics-listen"] = metricsListen
	}
	if cmd.Flags().Changed("include-indirect") {
		flags["include-indirect"] = includeIndirect
	}
	if minFollower >= 0 {
		flags["min-follower"] = minFollower
	}
	if maxFollowPages >= 0 {
		flags["max-follow-pages"] = maxFollowPages
	}
	if cmd.Flags().Changed("skip-images") {
		flags["skip-images"] = skipImages
	}
	return flags
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, collectRunFlags(cmd))
	if err != nil {
		return err
	}

	if useTUI {
		// the dashboard owns the terminal, logs go to a file only
		logger.SetConsoleOutput(nil)
		if cfg.Logging.File == "" {
			cfg.Logging.File = filepath.Join(cfg.Output.BaseDirectory, "wbscraper.log")
		}
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("wbscraper starting")

	if cfg.Weibo.Cookie == "" {
		cred, source, err := auth.NewManager().Resolve(cfg.Auth.Profile)
		if err != nil {
			ui.PrintWarning("No cookie configured, requests will be anonymous", err)
		} else {
			cfg.Weibo.Cookie = cred.Cookie
			if cred.UserAgent != "" {
				cfg.Weibo.UserAgent = cred.UserAgent
			}
			log.WithField("source", source).Info("Cookie loaded")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen); err != nil {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
		log.WithField("listen", cfg.Metrics.Listen).Info("Serving metrics")
	}

	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		return err
	}
	client := weibo.NewClient(&cfg.Weibo, log)

	c := crawler.New(cfg, client, store, log)

	var summary *crawler.Summary
	var runErr error
	if useTUI {
		summary, runErr = runWithDashboard(ctx, stop, cfg, c)
	} else {
		ui.PrintLogo()
		ui.PrintInfo("Seeds", strconv.Itoa(len(cfg.UserIDList)))
		ui.PrintInfo("Output", store.BaseDir())
		summary, runErr = c.Run(ctx)
	}
	printSummary(summary)
	if notify && summary != nil {
		failed := 0
		for _, seed := range summary.Seeds {
			if seed.Err != nil {
				failed++
			}
		}
		if err := ui.NewNotifier().RunFinished(len(summary.Seeds), failed); err != nil {
			log.WithError(err).Warn("Desktop notification failed")
		}
	}
	if runErr != nil {
		return runErr
	}
	ui.PrintSuccess("Run completed")
	return nil
}

// runWithDashboard runs the crawler behind the TUI. Quitting the dashboard cancels the run.
func runWithDashboard(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, c *crawler.Crawler) (*crawler.Summary, error) {
	dash := tui.NewTUI(cfg.UserIDList, cfg.UserMutualFollow.MaxMembers, cancel)
	c.WithObserver(dash)

	type outcome struct {
		summary *crawler.Summary
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		summary, err := c.Run(ctx)
		dash.RunFinished(err)
		dash.Stop()
		done <- outcome{summary: summary, err: err}
	}()

	if err := dash.Start(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("dashboard failed: %w", err)
	}
	res := <-done
	return res.summary, res.err
}

func printSummary(summary *crawler.Summary) {
	if summary == nil {
		return
	}
	ui.PrintHighlight("Run " + summary.RunID)
	for _, seed := range summary.Seeds {
		label := strconv.FormatInt(seed.SeedID, 10)
		if seed.Profile != nil {
			label += " (" + seed.Profile.ScreenName + ")"
		}
		line := fmt.Sprintf("posts=%d images=%d", seed.Posts, seed.Images)
		if seed.Network != nil {
			line += fmt.Sprintf(" members=%d stop=%s calls=%d", len(seed.Network.Members), seed.Network.Stop, seed.Network.Calls)
		}
		if seed.Err != nil {
			ui.PrintWarning(label+" failed", seed.Err)
			continue
		}
		ui.PrintInfo(label, line)
	}
}
