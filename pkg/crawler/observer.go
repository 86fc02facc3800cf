package crawler

import (
	"wbscraper/pkg/network"
)

// Observer receives progress events from a run. Calls come from the crawling
// goroutine, except ImageDone which comes from the image drain goroutine.
type Observer interface {
	SeedStarted(seedID int64)
	PostsSaved(seedID int64, total int)
	MemberAdmitted(seedID int64, member network.Member, size int)
	ImageDone(seedID int64, pictureID string, err error)
	SeedFinished(report *SeedReport)
}

type nopObserver struct{}

func (nopObserver) SeedStarted(int64)                         {}
func (nopObserver) PostsSaved(int64, int)                     {}
func (nopObserver) MemberAdmitted(int64, network.Member, int) {}
func (nopObserver) ImageDone(int64, string, error)            {}
func (nopObserver) SeedFinished(*SeedReport)                  {}

// observedWriter reports every admission the engine persists. The first
// snapshot of a traversal holds only the seed and is not an admission.
type observedWriter struct {
	network.SnapshotWriter
	observer Observer
}

func (w observedWriter) WriteSnapshot(seedID int64, members []network.Member) error {
	if err := w.SnapshotWriter.WriteSnapshot(seedID, members); err != nil {
		return err
	}
	if len(members) > 1 {
		w.observer.MemberAdmitted(seedID, members[len(members)-1], len(members))
	}
	return nil
}
