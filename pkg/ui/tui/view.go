package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the dashboard
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderLogo())

	colWidth := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(colWidth),
		m.renderNetworkPanel(colWidth),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderSeedsPanel(colWidth),
		m.renderLogsPanel(colWidth),
	)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help, q to stop"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m Model) renderLogo() string {
	logo := `
╔════════════════════════════════════════════════╗
║  W B S C R A P E R  //  RECIPROCAL NETWORK MAP  ║
╚════════════════════════════════════════════════╝`
	return logoStyle.Width(m.width).Render(logo)
}

func (m Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" RUN ")
	done, failed := m.Counts()

	status := m.spinner.View() + " crawling"
	if m.finished {
		status = successStyle.Render("finished")
		if m.runErr != nil {
			status = errorStyle.Render("finished with errors")
		}
	}

	stats := []string{
		statLine("Elapsed:", formatDuration(time.Since(m.startTime))),
		statLine("Seeds:", fmt.Sprintf("%d/%d", done, len(m.seeds))),
		statLine("Failed:", fmt.Sprintf("%d", failed)),
		status,
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, stats...)),
	)
}

func (m Model) renderNetworkPanel(width int) string {
	title := titleStyle.Render(" NETWORK ")

	row, ok := m.index[m.current]
	if !ok {
		content := lipgloss.NewStyle().Foreground(muted).Render("Waiting for the first seed")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	members := row.Members
	if members == 0 {
		members = 1
	}
	ratio := float64(members) / float64(m.maxMembers)
	if ratio > 1 {
		ratio = 1
	}

	lines := []string{
		statLine("Seed:", seedLabel(row)),
		statLine("Members:", fmt.Sprintf("%d/%d", members, m.maxMembers)),
		m.network.ViewAs(ratio),
	}
	if m.lastMember != "" {
		lines = append(lines, statLine("Last admitted:", m.lastMember))
	}
	if row.Stop != "" {
		lines = append(lines, statLine("Stopped by:", row.Stop))
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
}

func (m Model) renderSeedsPanel(width int) string {
	title := titleStyle.Render(" SEEDS ")

	var items []string
	for _, row := range m.seeds {
		line := fmt.Sprintf("%s posts=%d members=%d images=%d", seedLabel(row), row.Posts, row.Members, row.Images)
		if row.ImageErrors > 0 {
			line += fmt.Sprintf(" (%d failed)", row.ImageErrors)
		}
		switch row.State {
		case SeedActive:
			items = append(items, seedActiveStyle.Render("▶ "+line))
		case SeedDone:
			items = append(items, seedIdleStyle.Render("✓ "+line))
		case SeedFailed:
			items = append(items, errorStyle.PaddingLeft(2).Render("✗ "+line))
		default:
			items = append(items, seedIdleStyle.Render("· "+line))
		}
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
}

func (m Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	maxMsgLen := width - 25
	var logs []string
	for _, entry := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(entry.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(entry.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", entry.Level))
		msg := entry.Message
		if maxMsgLen > 3 && len([]rune(msg)) > maxMsgLen {
			msg = string([]rune(msg)[:maxMsgLen-3]) + "..."
		}
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, logMessageStyle.Render(msg)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(muted).Render("No events yet...")
	}
	return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Stop the run and quit
    ctrl+l   - Clear the log
    ?        - Toggle this help

  Seeds:
    ▶        - In progress
    ✓        - Done
    ` + errorStyle.Render("✗") + `        - Failed, partial output kept
`
	return panelStyle.Width(m.width).Render(help)
}

func statLine(label, value string) string {
	return fmt.Sprintf("%s %s", statsLabelStyle.Render(label), statsValueStyle.Render(value))
}

func seedLabel(row *SeedRow) string {
	if row.Name == "" {
		return fmt.Sprintf("%d", row.ID)
	}
	return fmt.Sprintf("%d (%s)", row.ID, row.Name)
}

// formatDuration formats a duration as mm:ss or hh:mm:ss
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
