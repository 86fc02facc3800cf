// Package network discovers the reciprocal-follow network around a seed account.
//
// Engine runs a breadth-first traversal over the Weibo follow graph. Each admitted
// member's follow listing is paged; every listed account that is new and popular
// enough is checked by the Oracle, which pages through that account's own listing
// looking for the seed. Reciprocity is always checked against the seed, even for
// candidates found through other members.
//
// Every request goes through one shared Pacer, and the whole frontier is written
// through the SnapshotWriter after each admission, so a snapshot on disk is always
// a prefix of the final network.
//
// The traversal halts when the seed has been expanded and indirect discovery is off
// (StoppedByDepthLimit), when every member has been expanded (StoppedByIndexExhausted),
// or when the frontier holds Policy.MaxMembers members (StoppedBySizeCap). Any request
// or shape error aborts the run.
package network
