package network

import (
	"wbscraper/pkg/weibo"
)

// StopReason names the terminal state a traversal reached
type StopReason string

const (
	// StoppedByDepthLimit means the seed was expanded and indirect discovery is off
	StoppedByDepthLimit StopReason = "depth_limit"
	// StoppedByIndexExhausted means every admitted member has been expanded
	StoppedByIndexExhausted StopReason = "index_exhausted"
	// StoppedBySizeCap means the frontier reached its maximum size
	StoppedBySizeCap StopReason = "size_cap"
)

// Member is a user admitted to the network, with its discovery rank and depth.
// The seed is always rank 0 at depth 0.
type Member struct {
	weibo.UserProfile
	Rank  int `json:"rank"`
	Depth int `json:"depth"`
}

// VisitedSet holds the ids already admitted
type VisitedSet map[int64]struct{}

// Contains reports whether id has been admitted
func (v VisitedSet) Contains(id int64) bool {
	_, ok := v[id]
	return ok
}

// Frontier is the ordered member queue plus its visited set.
// Admit is the only way in, so both always hold the same ids.
type Frontier struct {
	members []Member
	visited VisitedSet
}

// NewFrontier creates a frontier holding only the seed
func NewFrontier(seed *weibo.UserProfile) *Frontier {
	f := &Frontier{visited: make(VisitedSet)}
	f.Admit(seed, 0)
	return f
}

// Admit appends profile at the given depth and marks it visited.
// Admitting an id twice is a no-op that returns the existing member and false.
func (f *Frontier) Admit(profile *weibo.UserProfile, depth int) (Member, bool) {
	if f.visited.Contains(profile.ID) {
		for _, m := range f.members {
			if m.ID == profile.ID {
				return m, false
			}
		}
	}
	m := Member{UserProfile: *profile, Rank: len(f.members), Depth: depth}
	f.members = append(f.members, m)
	f.visited[profile.ID] = struct{}{}
	return m, true
}

// Visited reports whether id is already in the network
func (f *Frontier) Visited(id int64) bool {
	return f.visited.Contains(id)
}

// Len returns the number of admitted members
func (f *Frontier) Len() int {
	return len(f.members)
}

// At returns the member at rank i
func (f *Frontier) At(i int) Member {
	return f.members[i]
}

// Members returns a copy of the admitted members in discovery order
func (f *Frontier) Members() []Member {
	out := make([]Member, len(f.members))
	copy(out, f.members)
	return out
}
