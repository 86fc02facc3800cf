package network

import (
	"context"
	"fmt"
	"time"

	"wbscraper/pkg/logger"
	"wbscraper/pkg/weibo"
)

// FollowerLister returns one page of the accounts a user follows
type FollowerLister interface {
	FetchFollowerPage(ctx context.Context, id int64, page int) (*weibo.FollowerPage, error)
}

// Pacer is called before every request
type Pacer interface {
	BeforeCall(ctx context.Context) error
	Calls() int
}

// OracleOptions bound the work spent on a single candidate. Zero values mean unbounded.
type OracleOptions struct {
	MaxPages int
	Timeout  time.Duration
}

// Oracle answers whether a candidate follows a target
type Oracle struct {
	client FollowerLister
	pacer  Pacer
	opts   OracleOptions
	logger logger.Logger
}

// NewOracle creates an oracle that shares pacer with the rest of the traversal
func NewOracle(client FollowerLister, pacer Pacer, opts OracleOptions, log logger.Logger) *Oracle {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Oracle{
		client: client,
		pacer:  pacer,
		opts:   opts,
		logger: log.WithField("component", "oracle"),
	}
}

// IsFollowedBackBy pages through candidateID's follow listing looking for targetID.
// Exhausting the listing, or hitting MaxPages or Timeout, yields false.
// Timeout budgets only the time spent fetching and scanning; pacer pauses are not charged to it.
func (o *Oracle) IsFollowedBackBy(ctx context.Context, candidateID, targetID int64) (bool, error) {
	remaining := o.opts.Timeout

	for page := 1; ; page++ {
		if o.opts.MaxPages > 0 && page > o.opts.MaxPages {
			o.logger.WarnWithFields("Follow listing page ceiling reached, treating as not reciprocal", map[string]interface{}{
				"candidate": candidateID,
				"max_pages": o.opts.MaxPages,
			})
			return false, nil
		}
		if o.opts.Timeout > 0 && remaining <= 0 {
			o.warnTimedOut(candidateID, page)
			return false, nil
		}

		if err := o.pacer.BeforeCall(ctx); err != nil {
			return false, err
		}

		started := time.Now()
		fp, expired, err := o.fetchPage(ctx, remaining, candidateID, page)
		remaining -= time.Since(started)
		if err != nil {
			if expired {
				o.warnTimedOut(candidateID, page)
				return false, nil
			}
			return false, fmt.Errorf("follow listing of %d page %d: %w", candidateID, page, err)
		}
		if fp.Exhausted() {
			return false, nil
		}

		ids, err := fp.IDs()
		if err != nil {
			return false, fmt.Errorf("follow listing of %d page %d: %w", candidateID, page, err)
		}
		for _, id := range ids {
			if id == targetID {
				return true, nil
			}
		}
	}
}

// fetchPage runs one listing request under what is left of the candidate budget.
// expired is true only when that budget, not the caller or the client, ended the request.
func (o *Oracle) fetchPage(ctx context.Context, budget time.Duration, candidateID int64, page int) (*weibo.FollowerPage, bool, error) {
	if o.opts.Timeout <= 0 {
		fp, err := o.client.FetchFollowerPage(ctx, candidateID, page)
		return fp, false, err
	}
	fetchCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	fp, err := o.client.FetchFollowerPage(fetchCtx, candidateID, page)
	expired := err != nil && ctx.Err() == nil && fetchCtx.Err() == context.DeadlineExceeded
	return fp, expired, err
}

func (o *Oracle) warnTimedOut(candidateID int64, page int) {
	o.logger.WarnWithFields("Reciprocity check timed out, treating as not reciprocal", map[string]interface{}{
		"candidate": candidateID,
		"page":      page,
		"timeout":   o.opts.Timeout.String(),
	})
}
