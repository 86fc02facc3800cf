// Package storage owns the on-disk output of a run.
//
// Every seed gets its own directory under the output root:
//
//	<base>/<seed id>/user.json           profile of the seed
//	<base>/<seed id>/mblog.json          crawled posts, rewritten after each page
//	<base>/<seed id>/mutual_follow.json  discovered network, rewritten after each admission
//	<base>/<seed id>/image/<pid>.jpg     post pictures
//
// All files are written through a temporary file, fsync and rename, so a reader
// (or a crash) only ever sees a complete previous or complete new version.
// JSON is indented with four spaces and keeps non-ASCII text unescaped.
//
// Manager implements network.SnapshotWriter.
package storage
