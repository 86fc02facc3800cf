package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"wbscraper/pkg/crawler"
	"wbscraper/pkg/network"
)

// TUI is a full screen run dashboard. It implements crawler.Observer.
type TUI struct {
	program *tea.Program
	model   *Model
}

var _ crawler.Observer = (*TUI)(nil)

// NewTUI creates the dashboard. onQuit runs when the user presses q.
func NewTUI(seedIDs []int64, maxMembers int, onQuit func()) *TUI {
	model := NewModel(seedIDs, maxMembers)
	model.onQuit = onQuit
	program := tea.NewProgram(&model, tea.WithAltScreen())

	return &TUI{
		program: program,
		model:   &model,
	}
}

// Start blocks until the dashboard exits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop quits the dashboard
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send delivers a message to the dashboard
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

func (t *TUI) SeedStarted(seedID int64) {
	t.Send(SeedStartedMsg{SeedID: seedID})
}

func (t *TUI) PostsSaved(seedID int64, total int) {
	t.Send(PostsSavedMsg{SeedID: seedID, Total: total})
}

func (t *TUI) MemberAdmitted(seedID int64, member network.Member, size int) {
	t.Send(MemberAdmittedMsg{SeedID: seedID, Member: member, Size: size})
}

func (t *TUI) ImageDone(seedID int64, pictureID string, err error) {
	t.Send(ImageDoneMsg{SeedID: seedID, PictureID: pictureID, Err: err})
}

func (t *TUI) SeedFinished(report *crawler.SeedReport) {
	t.Send(SeedFinishedMsg{Report: report})
}

// RunFinished marks the run complete
func (t *TUI) RunFinished(err error) {
	t.Send(RunFinishedMsg{Err: err})
}

// Log adds a formatted line to the log panel
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}
