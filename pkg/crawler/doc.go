// Package crawler runs one pass over the configured seed accounts.
//
// For each seed it saves the profile, optionally crawls the post timeline (queueing
// pictures on the image worker pool) and optionally discovers the reciprocal-follow
// network. Seeds are independent: a failure stops that seed only.
//
// Progress can be followed with WithObserver; the terminal dashboard is one such observer.
package crawler
