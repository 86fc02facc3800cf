package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SeedState tracks where a seed is in the run
type SeedState int

const (
	SeedPending SeedState = iota
	SeedActive
	SeedDone
	SeedFailed
)

// SeedRow is the live tally for one seed
type SeedRow struct {
	ID          int64
	Name        string
	State       SeedState
	Posts       int
	Members     int
	Images      int
	ImageErrors int
	Stop        string
	Err         error
}

// LogMessage is a line in the log panel
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// Model is the run dashboard
type Model struct {
	spinner spinner.Model
	network progress.Model

	seeds      []*SeedRow
	index      map[int64]*SeedRow
	current    int64
	maxMembers int
	lastMember string

	startTime time.Time
	finished  bool
	runErr    error

	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int

	onQuit func()
}

// NewModel creates a dashboard for the given seeds. maxMembers scales the network bar.
func NewModel(seedIDs []int64, maxMembers int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)

	if maxMembers < 1 {
		maxMembers = 1
	}

	m := Model{
		spinner:        s,
		network:        progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		index:          make(map[int64]*SeedRow, len(seedIDs)),
		maxMembers:     maxMembers,
		startTime:      time.Now(),
		maxLogMessages: 50,
	}
	for _, id := range seedIDs {
		if _, dup := m.index[id]; dup {
			continue
		}
		row := &SeedRow{ID: id}
		m.seeds = append(m.seeds, row)
		m.index[id] = row
	}
	return m
}

// Init starts the spinner and the refresh tick
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func (m *Model) seed(id int64) *SeedRow {
	row, ok := m.index[id]
	if !ok {
		row = &SeedRow{ID: id}
		m.seeds = append(m.seeds, row)
		m.index[id] = row
	}
	return row
}

// AddLogMessage appends to the log panel, dropping the oldest line past the limit
func (m *Model) AddLogMessage(level, message string) {
	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   levelColor(level),
	})
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Counts returns how many seeds finished and how many of those failed
func (m *Model) Counts() (done, failed int) {
	for _, row := range m.seeds {
		switch row.State {
		case SeedDone:
			done++
		case SeedFailed:
			done++
			failed++
		}
	}
	return done, failed
}

// Seeds returns the rows in run order
func (m *Model) Seeds() []SeedRow {
	out := make([]SeedRow, len(m.seeds))
	for i, row := range m.seeds {
		out[i] = *row
	}
	return out
}
