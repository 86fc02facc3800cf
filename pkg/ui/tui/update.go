package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"wbscraper/pkg/crawler"
	"wbscraper/pkg/network"
)

// SeedStartedMsg is sent when the crawler moves to a seed
type SeedStartedMsg struct {
	SeedID int64
}

// PostsSavedMsg is sent after each timeline page is written
type PostsSavedMsg struct {
	SeedID int64
	Total  int
}

// MemberAdmittedMsg is sent after a new member is persisted
type MemberAdmittedMsg struct {
	SeedID int64
	Member network.Member
	Size   int
}

// ImageDoneMsg is sent when a picture download ends
type ImageDoneMsg struct {
	SeedID    int64
	PictureID string
	Err       error
}

// SeedFinishedMsg carries the report of a finished seed
type SeedFinishedMsg struct {
	Report *crawler.SeedReport
}

// RunFinishedMsg is sent once the crawler returns
type RunFinishedMsg struct {
	Err error
}

// LogMsg adds a line to the log panel
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg refreshes the elapsed clock
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.network.Width = max(10, m.width/2-20)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		if m.finished {
			return m, nil
		}
		return m, tickCmd()

	case SeedStartedMsg:
		row := m.seed(msg.SeedID)
		row.State = SeedActive
		m.current = msg.SeedID
		m.lastMember = ""
		m.AddLogMessage("INFO", fmt.Sprintf("Seed %d started", msg.SeedID))
		return m, nil

	case PostsSavedMsg:
		m.seed(msg.SeedID).Posts = msg.Total
		return m, nil

	case MemberAdmittedMsg:
		row := m.seed(msg.SeedID)
		row.Members = msg.Size
		m.lastMember = msg.Member.ScreenName
		m.AddLogMessage("SUCCESS", fmt.Sprintf("#%d %s (%d followers, depth %d)",
			msg.Member.Rank, msg.Member.ScreenName, msg.Member.FollowersCount, msg.Member.Depth))
		return m, nil

	case ImageDoneMsg:
		row := m.seed(msg.SeedID)
		if msg.Err != nil {
			row.ImageErrors++
			m.AddLogMessage("WARN", fmt.Sprintf("Picture %s failed: %v", msg.PictureID, msg.Err))
		} else {
			row.Images++
		}
		return m, nil

	case SeedFinishedMsg:
		if msg.Report == nil {
			return m, nil
		}
		row := m.seed(msg.Report.SeedID)
		if msg.Report.Profile != nil {
			row.Name = msg.Report.Profile.ScreenName
		}
		row.Posts = msg.Report.Posts
		if msg.Report.Network != nil {
			row.Members = len(msg.Report.Network.Members)
			row.Stop = string(msg.Report.Network.Stop)
		}
		row.Err = msg.Report.Err
		if row.Err != nil {
			row.State = SeedFailed
			m.AddLogMessage("ERROR", fmt.Sprintf("Seed %d failed: %v", row.ID, row.Err))
		} else {
			row.State = SeedDone
			m.AddLogMessage("INFO", fmt.Sprintf("Seed %d done", row.ID))
		}
		return m, nil

	case RunFinishedMsg:
		m.finished = true
		m.runErr = msg.Err
		if msg.Err != nil {
			m.AddLogMessage("ERROR", "Run finished with errors")
		} else {
			m.AddLogMessage("SUCCESS", "Run finished")
		}
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = nil
		return m, nil
	}

	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
