package crawler

import (
	"context"
	"fmt"

	"wbscraper/internal/downloader"
	"wbscraper/pkg/logger"
	"wbscraper/pkg/ratelimit"
	"wbscraper/pkg/weibo"
)

// crawlPosts pages through a seed's timeline until an empty page or, when since_date
// is set, the first unpinned post older than it. That post is kept and ends the crawl.
// mblog.json is rewritten after each page.
func (c *Crawler) crawlPosts(ctx context.Context, log logger.Logger, seedID int64, pool *downloader.WorkerPool) (int, error) {
	since := c.cfg.SinceDate()
	gov := c.newGovernor(log)
	var posts []*weibo.Post

	for page := 1; ; page++ {
		if err := gov.BeforeCall(ctx); err != nil {
			return len(posts), err
		}
		docs, err := c.api.FetchPostPage(ctx, seedID, page)
		if err != nil {
			return len(posts), fmt.Errorf("timeline page %d: %w", page, err)
		}
		if len(docs) == 0 {
			break
		}

		reachedCutoff := false
		for _, doc := range docs {
			post, err := weibo.ParsePost(doc)
			if err != nil {
				return len(posts), fmt.Errorf("timeline page %d: %w", page, err)
			}
			if err := c.expandLongText(ctx, gov, post); err != nil {
				return len(posts), err
			}
			if err := queueImages(pool, seedID, post); err != nil {
				return len(posts), err
			}
			posts = append(posts, post)
			if !since.IsZero() && !post.IsTop && post.CreatedAt.Before(since) {
				reachedCutoff = true
				break
			}
		}

		if err := c.store.SavePosts(seedID, posts); err != nil {
			return len(posts), err
		}
		c.observer.PostsSaved(seedID, len(posts))
		log.InfoWithFields("Timeline page saved", map[string]interface{}{
			"page":  page,
			"posts": len(posts),
		})
		if reachedCutoff {
			break
		}
	}
	return len(posts), nil
}

func (c *Crawler) expandLongText(ctx context.Context, gov *ratelimit.Governor, post *weibo.Post) error {
	var err error
	post.Walk(func(p *weibo.Post) {
		if err != nil || !p.IsLongText {
			return
		}
		if err = gov.BeforeCall(ctx); err != nil {
			return
		}
		var text string
		text, err = c.api.FetchLongText(ctx, p.MblogID)
		if err != nil {
			err = fmt.Errorf("long text of %s: %w", p.MblogID, err)
			return
		}
		p.LongText = text
	})
	return err
}

func queueImages(pool *downloader.WorkerPool, seedID int64, post *weibo.Post) error {
	if pool == nil {
		return nil
	}
	var err error
	post.Walk(func(p *weibo.Post) {
		for i, pid := range p.PictureIDs {
			if err != nil {
				return
			}
			err = pool.Submit(downloader.ImageJob{URL: p.PictureURLs[i], PictureID: pid, SeedID: seedID})
		}
	})
	return err
}
