package network

import (
	"context"
	"fmt"

	"wbscraper/pkg/logger"
	"wbscraper/pkg/metrics"
	"wbscraper/pkg/weibo"
)

// DefaultMaxMembers is the frontier size cap when none is configured
const DefaultMaxMembers = 100

// SnapshotWriter persists the whole frontier for a seed, replacing the previous snapshot
type SnapshotWriter interface {
	WriteSnapshot(seedID int64, members []Member) error
}

// Policy decides which followers may join the network
type Policy struct {
	MinFollower int
	// MaxMutualFollower is carried from configuration and not consulted
	MaxMutualFollower int
	IncludeIndirect   bool
	MaxMembers        int
}

// Result is the outcome of one traversal
type Result struct {
	Members []Member
	Stop    StopReason
	Calls   int
}

// Engine runs the breadth-first reciprocal-follow discovery for one seed at a time
type Engine struct {
	client FollowerLister
	pacer  Pacer
	oracle *Oracle
	writer SnapshotWriter
	policy Policy
	logger logger.Logger
}

// NewEngine wires an engine. pacer must be the same instance the oracle uses.
func NewEngine(client FollowerLister, pacer Pacer, oracle *Oracle, writer SnapshotWriter, policy Policy, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}
	if policy.MaxMembers <= 0 {
		policy.MaxMembers = DefaultMaxMembers
	}
	return &Engine{
		client: client,
		pacer:  pacer,
		oracle: oracle,
		writer: writer,
		policy: policy,
		logger: log.WithField("component", "network"),
	}
}

// Run discovers the network around seed. On error the returned Result still holds
// the members admitted so far, which are already persisted.
func (e *Engine) Run(ctx context.Context, seed *weibo.UserProfile) (*Result, error) {
	log := e.logger.WithField("seed", seed.ID)
	frontier := NewFrontier(seed)
	result := &Result{}

	finish := func(stop StopReason, err error) (*Result, error) {
		result.Members = frontier.Members()
		result.Stop = stop
		result.Calls = e.pacer.Calls()
		return result, err
	}

	if err := e.writer.WriteSnapshot(seed.ID, frontier.Members()); err != nil {
		return finish("", fmt.Errorf("persisting initial snapshot: %w", err))
	}

	for i := 0; ; i++ {
		if i >= 1 && !e.policy.IncludeIndirect {
			log.Debug("Seed expanded and indirect discovery disabled, stopping")
			return finish(StoppedByDepthLimit, nil)
		}
		if i >= frontier.Len() {
			log.Debug("Every member expanded, stopping")
			return finish(StoppedByIndexExhausted, nil)
		}

		full, err := e.expand(ctx, log, seed.ID, frontier, frontier.At(i))
		if err != nil {
			return finish("", err)
		}
		if full {
			log.WarnWithFields("Network size cap reached, stopping", map[string]interface{}{
				"max_members": e.policy.MaxMembers,
			})
			return finish(StoppedBySizeCap, nil)
		}
	}
}

// expand walks every follower page of now, admitting reciprocal followers of the seed.
// It reports true when the frontier is full.
func (e *Engine) expand(ctx context.Context, log logger.Logger, seedID int64, frontier *Frontier, now Member) (bool, error) {
	for page := 1; ; page++ {
		if frontier.Len() >= e.policy.MaxMembers {
			return true, nil
		}
		log.InfoWithFields("Checking followers for reciprocity", map[string]interface{}{
			"user":        now.ID,
			"screen_name": now.ScreenName,
			"page":        page,
		})

		if err := e.pacer.BeforeCall(ctx); err != nil {
			return false, err
		}
		fp, err := e.client.FetchFollowerPage(ctx, now.ID, page)
		if err != nil {
			return false, fmt.Errorf("followers of %d page %d: %w", now.ID, page, err)
		}
		if fp.Exhausted() {
			return false, nil
		}
		candidates, err := fp.Profiles()
		if err != nil {
			return false, fmt.Errorf("followers of %d page %d: %w", now.ID, page, err)
		}

		for _, cand := range candidates {
			if frontier.Len() >= e.policy.MaxMembers {
				return true, nil
			}
			if frontier.Visited(cand.ID) {
				log.DebugWithFields("Already in network, skipping", map[string]interface{}{"candidate": cand.ID})
				metrics.CandidatesSkipped.WithLabelValues("visited").Inc()
				continue
			}
			if cand.FollowersCount < e.policy.MinFollower {
				log.DebugWithFields("Below follower floor, skipping", map[string]interface{}{
					"candidate":       cand.ID,
					"followers_count": cand.FollowersCount,
					"min_follower":    e.policy.MinFollower,
				})
				metrics.CandidatesSkipped.WithLabelValues("min_follower").Inc()
				continue
			}

			reciprocal, err := e.oracle.IsFollowedBackBy(ctx, cand.ID, seedID)
			if err != nil {
				return false, fmt.Errorf("reciprocity of %d: %w", cand.ID, err)
			}
			if !reciprocal {
				metrics.CandidatesSkipped.WithLabelValues("not_reciprocal").Inc()
				continue
			}

			member, added := frontier.Admit(cand, now.Depth+1)
			if !added {
				continue
			}
			if err := e.writer.WriteSnapshot(seedID, frontier.Members()); err != nil {
				return false, fmt.Errorf("persisting snapshot after admitting %d: %w", cand.ID, err)
			}
			metrics.MembersAdmitted.Inc()
			log.InfoWithFields("Reciprocal follower admitted", map[string]interface{}{
				"candidate":   member.ID,
				"screen_name": member.ScreenName,
				"rank":        member.Rank,
				"depth":       member.Depth,
			})
		}
	}
}
