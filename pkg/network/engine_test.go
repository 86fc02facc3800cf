package network

import (
	"context"
	"testing"
	"time"

	"wbscraper/pkg/errors"
	"wbscraper/pkg/logger"
	"wbscraper/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedID int64 = 1

type harness struct {
	graph  *fakeGraph
	pacer  Pacer
	writer *recordingWriter
	log    *logger.TestLogger
	engine *Engine
}

func newHarness(graph *fakeGraph, policy Policy, opts OracleOptions) *harness {
	h := &harness{
		graph:  graph,
		pacer:  &countingPacer{},
		writer: &recordingWriter{},
		log:    logger.NewTestLogger(),
	}
	oracle := NewOracle(graph, h.pacer, opts, h.log)
	h.engine = NewEngine(graph, h.pacer, oracle, h.writer, policy, h.log)
	return h
}

func (h *harness) run(t *testing.T) *Result {
	t.Helper()
	result, err := h.engine.Run(context.Background(), h.graph.profile(seedID))
	require.NoError(t, err)
	return result
}

func TestEngine_PopularityFloorDirectOnly(t *testing.T) {
	// A=2 and B=3 both follow the seed back; only A clears the floor.
	graph := newFakeGraph().
		user(seedID, 100, 2, 3).
		user(2, 5000, seedID).
		user(3, 500, seedID)

	h := newHarness(graph, Policy{MinFollower: 1000}, OracleOptions{})
	result := h.run(t)

	assert.Equal(t, []int64{seedID, 2}, memberIDs(result.Members))
	assert.Equal(t, StoppedByDepthLimit, result.Stop)
	assert.Equal(t, 1, result.Members[1].Depth)
	assert.Equal(t, 1, result.Members[1].Rank)
	assert.Equal(t, result.Members, h.writer.last())
}

func TestEngine_NonReciprocalNeverAdmitted(t *testing.T) {
	// C=4 follows plenty of people across several pages, never the seed.
	graph := newFakeGraph().
		user(seedID, 100, 4).
		user(4, 10000, 20, 21, 22, 23, 24)

	h := newHarness(graph, Policy{}, OracleOptions{})
	result := h.run(t)

	assert.Equal(t, []int64{seedID}, memberIDs(result.Members))
	assert.Equal(t, StoppedByDepthLimit, result.Stop)
	// seed: pages 1,2. C: pages 1,2,3,4.
	assert.Equal(t, 6, result.Calls)
}

func TestEngine_IndirectCheckedAgainstSeed(t *testing.T) {
	// A=2 follows the seed back. A's listing has D=5 and E=6.
	// D follows the seed but not A; E follows A but not the seed.
	graph := newFakeGraph().
		user(seedID, 100, 2).
		user(2, 100, seedID, 5, 6).
		user(5, 100, seedID).
		user(6, 100, 2)

	h := newHarness(graph, Policy{IncludeIndirect: true}, OracleOptions{})
	result := h.run(t)

	require.Equal(t, []int64{seedID, 2, 5}, memberIDs(result.Members))
	assert.Equal(t, StoppedByIndexExhausted, result.Stop)
	assert.Equal(t, []int{0, 1, 2}, []int{result.Members[0].Depth, result.Members[1].Depth, result.Members[2].Depth})
}

func TestEngine_DepthPolicyNeverAdmitsViaOtherMembers(t *testing.T) {
	graph := newFakeGraph().
		user(seedID, 100, 2).
		user(2, 100, seedID, 5).
		user(5, 100, seedID)

	h := newHarness(graph, Policy{IncludeIndirect: false}, OracleOptions{})
	result := h.run(t)

	assert.Equal(t, []int64{seedID, 2}, memberIDs(result.Members))
	for _, req := range graph.requests {
		assert.NotEqual(t, int64(5), req.id, "member 2 must not be expanded")
	}
}

func TestEngine_Dedup(t *testing.T) {
	// 2 is listed twice by the seed and again by 3; the seed itself shows up in listings.
	graph := newFakeGraph().
		user(seedID, 100, 2, 2, 3).
		user(2, 100, seedID, 3).
		user(3, 100, seedID, 2)

	h := newHarness(graph, Policy{IncludeIndirect: true}, OracleOptions{})
	result := h.run(t)

	ids := memberIDs(result.Members)
	assert.Equal(t, []int64{seedID, 2, 3}, ids)

	seen := make(map[int64]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate member %d", id)
		seen[id] = true
	}
	assert.True(t, h.log.HasMessage("Already in network, skipping"))
}

func TestEngine_BreadthFirstOrder(t *testing.T) {
	graph := newFakeGraph().
		user(seedID, 100, 2, 3).
		user(2, 100, seedID, 4).
		user(3, 100, seedID, 5).
		user(4, 100, seedID).
		user(5, 100, seedID)

	h := newHarness(graph, Policy{IncludeIndirect: true}, OracleOptions{})
	result := h.run(t)

	assert.Equal(t, []int64{seedID, 2, 3, 4, 5}, memberIDs(result.Members))
	for i := 1; i < len(result.Members); i++ {
		assert.Equal(t, i, result.Members[i].Rank)
		assert.GreaterOrEqual(t, result.Members[i].Depth, result.Members[i-1].Depth)
	}
}

func TestEngine_SizeCap(t *testing.T) {
	graph := newFakeGraph().user(seedID, 100, 2, 3, 4, 5, 6)
	for id := int64(2); id <= 6; id++ {
		graph.user(id, 100, seedID)
	}

	h := newHarness(graph, Policy{MaxMembers: 3}, OracleOptions{})
	result := h.run(t)

	assert.Equal(t, []int64{seedID, 2, 3}, memberIDs(result.Members))
	assert.Equal(t, StoppedBySizeCap, result.Stop)
	assert.Len(t, h.log.GetMessagesByLevel("WARN"), 1)
	for _, req := range graph.requests {
		assert.NotEqual(t, int64(4), req.id, "no reciprocity check once full")
		assert.NotEqual(t, pageKey{seedID, 2}, req, "no follower page once full")
	}
}

func TestEngine_SizeCapBeforeExpandingNextMember(t *testing.T) {
	graph := newFakeGraph().
		user(seedID, 100, 2).
		user(2, 100, seedID, 7).
		user(7, 100, seedID, 2)

	h := newHarness(graph, Policy{IncludeIndirect: true, MaxMembers: 2}, OracleOptions{})
	result := h.run(t)

	assert.Equal(t, []int64{seedID, 2}, memberIDs(result.Members))
	assert.Equal(t, StoppedBySizeCap, result.Stop)
	// seed followers page 1 and the reciprocity check of 2; member 2 is never expanded
	assert.Equal(t, []pageKey{{seedID, 1}, {2, 1}}, graph.requests)
	assert.Equal(t, 2, result.Calls)
}

func TestEngine_GovernorPauseDoesNotCountAgainstCandidateTimeout(t *testing.T) {
	graph := newFakeGraph().user(seedID, 100, 2, 3, 4, 5)
	for id := int64(2); id <= 5; id++ {
		graph.user(id, 100, seedID)
	}

	// every other call sleeps for longer than the per-candidate budget
	gov := ratelimit.NewGovernor(ratelimit.GovernorConfig{PageSleepCount: 2, PageSleepDuration: 50 * time.Millisecond}, logger.NewTestLogger())
	log := logger.NewTestLogger()
	writer := &recordingWriter{}
	oracle := NewOracle(graph, gov, OracleOptions{Timeout: 20 * time.Millisecond}, log)
	engine := NewEngine(graph, gov, oracle, writer, Policy{}, log)

	result, err := engine.Run(context.Background(), graph.profile(seedID))
	require.NoError(t, err)

	assert.Equal(t, []int64{seedID, 2, 3, 4, 5}, memberIDs(result.Members))
	assert.False(t, log.HasMessage("Reciprocity check timed out, treating as not reciprocal"))
	assert.Greater(t, gov.Pauses(), 1)
}

func TestEngine_DefaultSizeCap(t *testing.T) {
	h := newHarness(newFakeGraph().user(seedID, 0), Policy{}, OracleOptions{})
	assert.Equal(t, DefaultMaxMembers, h.engine.policy.MaxMembers)
}

func TestEngine_SnapshotAfterEveryAdmission(t *testing.T) {
	graph := newFakeGraph().user(seedID, 100, 2, 3, 4)
	for id := int64(2); id <= 4; id++ {
		graph.user(id, 100, seedID)
	}

	h := newHarness(graph, Policy{}, OracleOptions{})
	result := h.run(t)

	// initial seed-only snapshot plus one per admission
	require.Len(t, h.writer.snapshots, 4)
	for i, snap := range h.writer.snapshots {
		require.Len(t, snap, i+1)
		assert.Equal(t, result.Members[:i+1], snap, "snapshot %d is a prefix of the result", i)
	}
}

func TestEngine_RequestFailureAborts(t *testing.T) {
	graph := newFakeGraph().
		user(seedID, 100, 2, 3, 4).
		user(2, 100, seedID).
		user(3, 100, seedID)
	graph.failures[pageKey{3, 1}] = errors.RequestFailed("fake", 500, nil, "unexpected status")

	h := newHarness(graph, Policy{}, OracleOptions{})
	result, err := h.engine.Run(context.Background(), graph.profile(seedID))

	require.Error(t, err)
	assert.True(t, errors.IsRequestFailed(err))
	assert.Equal(t, []int64{seedID, 2}, memberIDs(result.Members))
	assert.Equal(t, []int64{seedID, 2}, memberIDs(h.writer.last()))
}

func TestEngine_MalformedFollowerAborts(t *testing.T) {
	graph := newFakeGraph().
		user(seedID, 100, 2, 3).
		user(2, 100, seedID).
		user(3, 100, seedID)
	graph.malformed[3] = true

	h := newHarness(graph, Policy{}, OracleOptions{})
	_, err := h.engine.Run(context.Background(), graph.profile(seedID))

	require.Error(t, err)
	assert.True(t, errors.IsUnexpectedShape(err))
	assert.Len(t, h.writer.snapshots, 1, "nothing admitted from the malformed page")
}

func TestEngine_SnapshotFailureAborts(t *testing.T) {
	graph := newFakeGraph().user(seedID, 100, 2).user(2, 100, seedID)

	h := newHarness(graph, Policy{}, OracleOptions{})
	h.writer.failAt = 2
	_, err := h.engine.Run(context.Background(), graph.profile(seedID))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestEngine_SharedGovernorCountsEveryRequest(t *testing.T) {
	graph := newFakeGraph().
		user(seedID, 100, 2, 3).
		user(2, 100, 9, seedID).
		user(3, 100, 9)

	gov := ratelimit.NewGovernor(ratelimit.GovernorConfig{PageSleepCount: 2, PageSleepDuration: time.Second}, logger.NewTestLogger())
	sleeps := 0
	gov.WithSleeper(func(ctx context.Context, d time.Duration) error {
		sleeps++
		return nil
	})

	log := logger.NewTestLogger()
	writer := &recordingWriter{}
	oracle := NewOracle(graph, gov, OracleOptions{}, log)
	engine := NewEngine(graph, gov, oracle, writer, Policy{}, log)

	result, err := engine.Run(context.Background(), graph.profile(seedID))
	require.NoError(t, err)

	assert.Equal(t, graph.requestCount(), result.Calls)
	assert.Equal(t, graph.requestCount(), gov.Calls())
	assert.Equal(t, (gov.Calls()+1)/2, sleeps)
}

func TestEngine_MaxMutualFollowerIgnored(t *testing.T) {
	graph := newFakeGraph().user(seedID, 100, 2, 3).user(2, 100, seedID).user(3, 100, seedID)

	h := newHarness(graph, Policy{MaxMutualFollower: 1}, OracleOptions{})
	result := h.run(t)

	assert.Len(t, result.Members, 3)
}

func TestEngine_CancelledContext(t *testing.T) {
	graph := newFakeGraph().user(seedID, 100, 2).user(2, 100, seedID)
	h := newHarness(graph, Policy{}, OracleOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := h.engine.Run(ctx, graph.profile(seedID))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int64{seedID}, memberIDs(result.Members))
}
