package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"wbscraper/internal/downloader"
	"wbscraper/pkg/config"
	"wbscraper/pkg/logger"
	"wbscraper/pkg/network"
	"wbscraper/pkg/ratelimit"
	"wbscraper/pkg/weibo"
)

// API is the subset of the Weibo client a run needs
type API interface {
	FetchUserProfile(ctx context.Context, id int64) (*weibo.UserProfile, error)
	FetchFollowerPage(ctx context.Context, id int64, page int) (*weibo.FollowerPage, error)
	FetchPostPage(ctx context.Context, id int64, page int) ([]weibo.Document, error)
	FetchLongText(ctx context.Context, mblogID string) (string, error)
	DownloadImage(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Store is where a run writes its output
type Store interface {
	network.SnapshotWriter
	SaveUser(profile *weibo.UserProfile) error
	SavePosts(seedID int64, posts []*weibo.Post) error
	IsImageSaved(seedID int64, pictureID string) bool
	SaveImage(seedID int64, pictureID string, r io.Reader) error
}

// SeedReport is what happened to one seed
type SeedReport struct {
	SeedID  int64
	Profile *weibo.UserProfile
	Posts   int
	Images  int
	Network *network.Result
	Err     error
}

// Summary is the outcome of a run
type Summary struct {
	RunID string
	Seeds []*SeedReport
}

// Crawler runs once over the configured seeds
type Crawler struct {
	cfg      *config.Config
	api      API
	store    Store
	logger   logger.Logger
	sleeper  ratelimit.Sleeper
	observer Observer
}

// New creates a crawler
func New(cfg *config.Config, api API, store Store, log logger.Logger) *Crawler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Crawler{
		cfg:      cfg,
		api:      api,
		store:    store,
		logger:   log,
		observer: nopObserver{},
	}
}

// WithSleeper replaces the governor clock, for tests
func (c *Crawler) WithSleeper(s ratelimit.Sleeper) *Crawler {
	c.sleeper = s
	return c
}

// WithObserver reports progress events to o
func (c *Crawler) WithObserver(o Observer) *Crawler {
	if o == nil {
		o = nopObserver{}
	}
	c.observer = o
	return c
}

func (c *Crawler) newGovernor(log logger.Logger) *ratelimit.Governor {
	gov := ratelimit.NewGovernor(ratelimit.GovernorConfig{
		PageSleepCount:    c.cfg.RateLimit.PageSleepCount,
		PageSleepDuration: c.cfg.RateLimit.PageSleepDuration,
		RequestsPerMinute: c.cfg.RateLimit.RequestsPerMinute,
	}, log)
	if c.sleeper != nil {
		gov.WithSleeper(c.sleeper)
	}
	return gov
}

// Run processes every seed in order. A failing seed is logged and the run moves on;
// the returned error joins every seed failure.
func (c *Crawler) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}
	log := c.logger.WithField("run_id", summary.RunID)

	logger.LogComponentStart(log, "crawler", map[string]interface{}{
		"seeds":            len(c.cfg.UserIDList),
		"include_indirect": c.cfg.UserMutualFollow.IncludeIndirect,
		"min_follower":     c.cfg.UserMutualFollow.MinFollower,
		"skip_images":      c.cfg.Download.SkipImages,
	})

	var pool *downloader.WorkerPool
	imageCounts := make(map[int64]int)
	var drained sync.WaitGroup
	if !c.cfg.Download.SkipImages {
		pool = downloader.NewWorkerPool(
			c.cfg.Download.ConcurrentDownloads,
			c.api,
			c.store,
			ratelimit.NewPerMinute(c.cfg.RateLimit.RequestsPerMinute),
			log,
		)
		pool.Start(ctx)
		drained.Add(1)
		go func() {
			defer drained.Done()
			for res := range pool.Results() {
				if res.Skipped {
					continue
				}
				if res.Error == nil {
					imageCounts[res.Job.SeedID]++
				}
				c.observer.ImageDone(res.Job.SeedID, res.Job.PictureID, res.Error)
			}
		}()
	}

	var errs []error
	for _, seedID := range c.cfg.UserIDList {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		c.observer.SeedStarted(seedID)
		report := c.runSeed(ctx, log.WithField("seed", seedID), seedID, pool)
		summary.Seeds = append(summary.Seeds, report)
		c.observer.SeedFinished(report)
		if report.Err != nil {
			log.WithError(report.Err).ErrorWithFields("Seed failed", map[string]interface{}{"seed": seedID})
			errs = append(errs, fmt.Errorf("seed %d: %w", seedID, report.Err))
		}
	}

	if pool != nil {
		pool.Stop()
		drained.Wait()
		for _, report := range summary.Seeds {
			report.Images = imageCounts[report.SeedID]
		}
	}

	log.InfoWithFields("Run finished", map[string]interface{}{
		"seeds":  len(summary.Seeds),
		"failed": len(errs),
	})
	return summary, errors.Join(errs...)
}

func (c *Crawler) runSeed(ctx context.Context, log logger.Logger, seedID int64, pool *downloader.WorkerPool) *SeedReport {
	report := &SeedReport{SeedID: seedID}

	profile, err := c.api.FetchUserProfile(ctx, seedID)
	if err != nil {
		report.Err = fmt.Errorf("fetching profile: %w", err)
		return report
	}
	report.Profile = profile
	if err := c.store.SaveUser(profile); err != nil {
		report.Err = err
		return report
	}
	log.InfoWithFields("Profile saved", map[string]interface{}{
		"screen_name":     profile.ScreenName,
		"followers_count": profile.FollowersCount,
	})

	if c.cfg.CrawlsPosts(seedID) {
		n, err := c.crawlPosts(ctx, log, seedID, pool)
		report.Posts = n
		if err != nil {
			report.Err = fmt.Errorf("crawling posts: %w", err)
			return report
		}
	}

	if c.cfg.DiscoversNetwork(seedID) {
		result, err := c.discoverNetwork(ctx, log, profile)
		report.Network = result
		if err != nil {
			report.Err = fmt.Errorf("discovering network: %w", err)
			return report
		}
	}
	return report
}

func (c *Crawler) discoverNetwork(ctx context.Context, log logger.Logger, seed *weibo.UserProfile) (*network.Result, error) {
	mf := c.cfg.UserMutualFollow
	gov := c.newGovernor(log)
	oracle := network.NewOracle(c.api, gov, network.OracleOptions{
		MaxPages: mf.MaxFollowPages,
		Timeout:  mf.CandidateTimeout,
	}, log)
	writer := observedWriter{SnapshotWriter: c.store, observer: c.observer}
	engine := network.NewEngine(c.api, gov, oracle, writer, network.Policy{
		MinFollower:       mf.MinFollower,
		MaxMutualFollower: mf.MaxMutualFollower,
		IncludeIndirect:   mf.IncludeIndirect,
		MaxMembers:        mf.MaxMembers,
	}, log)

	result, err := engine.Run(ctx, seed)
	if result != nil {
		log.InfoWithFields("Network discovery finished", map[string]interface{}{
			"members": len(result.Members),
			"stop":    string(result.Stop),
			"calls":   result.Calls,
		})
	}
	return result, err
}
