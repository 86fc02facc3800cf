package network

import (
	"context"
	"fmt"
	"sync"

	"wbscraper/pkg/errors"
	"wbscraper/pkg/weibo"
)

type pageKey struct {
	id   int64
	page int
}

// fakeGraph serves follow listings from an in-memory graph, pageSize users per page
type fakeGraph struct {
	mu        sync.Mutex
	pageSize  int
	followers map[int64]int
	follows   map[int64][]int64
	notOK     map[int64]bool
	failures  map[pageKey]error
	malformed map[int64]bool
	requests  []pageKey
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		pageSize:  2,
		followers: make(map[int64]int),
		follows:   make(map[int64][]int64),
		notOK:     make(map[int64]bool),
		failures:  make(map[pageKey]error),
		malformed: make(map[int64]bool),
	}
}

func (g *fakeGraph) user(id int64, followersCount int, follows ...int64) *fakeGraph {
	g.followers[id] = followersCount
	g.follows[id] = follows
	return g
}

func (g *fakeGraph) profile(id int64) *weibo.UserProfile {
	return &weibo.UserProfile{
		UserSummary:    weibo.UserSummary{ID: id, ScreenName: fmt.Sprintf("user%d", id)},
		FollowersCount: g.followers[id],
	}
}

func (g *fakeGraph) FetchFollowerPage(ctx context.Context, id int64, page int) (*weibo.FollowerPage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := pageKey{id, page}
	g.requests = append(g.requests, key)
	if err := ctx.Err(); err != nil {
		return nil, errors.RequestFailed("fake", 0, err, "network error")
	}
	if err, ok := g.failures[key]; ok {
		return nil, err
	}
	if g.notOK[id] {
		return &weibo.FollowerPage{OK: false}, nil
	}

	list := g.follows[id]
	start := (page - 1) * g.pageSize
	if start >= len(list) {
		return &weibo.FollowerPage{OK: true}, nil
	}
	end := start + g.pageSize
	if end > len(list) {
		end = len(list)
	}

	out := &weibo.FollowerPage{OK: true}
	for _, uid := range list[start:end] {
		doc := weibo.Document{
			"id":              uid,
			"screen_name":     fmt.Sprintf("user%d", uid),
			"followers_count": g.followers[uid],
		}
		if g.malformed[uid] {
			delete(doc, "followers_count")
		}
		out.Users = append(out.Users, doc)
	}
	return out, nil
}

func (g *fakeGraph) requestCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

// countingPacer counts calls without sleeping
type countingPacer struct {
	mu    sync.Mutex
	calls int
}

func (p *countingPacer) BeforeCall(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	p.calls++
	return nil
}

func (p *countingPacer) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// recordingWriter keeps every snapshot it is given
type recordingWriter struct {
	snapshots [][]Member
	failAt    int
}

func (w *recordingWriter) WriteSnapshot(seedID int64, members []Member) error {
	if w.failAt > 0 && len(w.snapshots)+1 == w.failAt {
		return fmt.Errorf("disk full")
	}
	cp := make([]Member, len(members))
	copy(cp, members)
	w.snapshots = append(w.snapshots, cp)
	return nil
}

func (w *recordingWriter) last() []Member {
	if len(w.snapshots) == 0 {
		return nil
	}
	return w.snapshots[len(w.snapshots)-1]
}

func memberIDs(members []Member) []int64 {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return ids
}
