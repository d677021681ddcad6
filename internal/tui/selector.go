// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package tui implements the interactive torrent picker. It renders the
// qBittorrent torrent list as a filterable multi-select table and returns
// the chosen subset; cancelling returns an empty selection.
package tui

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/qbitseed/qbitseed/internal/domain"
)

// Sort columns
type sortColumn int

const (
	sortByName sortColumn = iota
	sortBySize
	sortByTracker
)

// Model is the selector state. The selection set is keyed by info hash so a
// torrent can never be selected twice.
type Model struct {
	torrents []domain.TorrentSummary
	filtered []domain.TorrentSummary
	selected map[string]domain.TorrentSummary

	filterInput textinput.Model
	filtering   bool

	cursor  int
	sortCol sortColumn
	sortAsc bool

	statusMsg string
	confirmed bool

	width  int
	height int
}

// NewModel creates the initial selector model for a non-empty torrent list.
func NewModel(torrents []domain.TorrentSummary) Model {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.CharLimit = 256
	ti.Width = 50

	m := Model{
		torrents:    torrents,
		filterInput: ti,
		selected:    make(map[string]domain.TorrentSummary),
		sortCol:     sortByName,
		sortAsc:     true,
	}
	m.applyFilter("")

	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filterInput.Width = msg.Width - 20
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFiltering(msg)
		}
		return m.updateBrowsing(msg)
	}

	return m, nil
}

func (m Model) updateFiltering(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.cancel()
	case "esc":
		// Clear the filter and return to the table
		m.filtering = false
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.applyFilter("")
		return m, nil
	case "enter":
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.applyFilter(m.filterInput.Value())
	return m, cmd
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m.cancel()

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}

	case "home", "g":
		m.cursor = 0

	case "end", "G":
		if len(m.filtered) > 0 {
			m.cursor = len(m.filtered) - 1
		}

	case " ":
		m.toggleCurrent()

	case "a": // Select all visible
		for _, torrent := range m.filtered {
			m.selected[torrent.InfoHash] = torrent
		}

	case "n": // Select none
		m.selected = make(map[string]domain.TorrentSummary)

	case "/":
		m.filtering = true
		m.filterInput.Focus()
		return m, textinput.Blink

	case "1":
		m.sortBy(sortByName)
	case "2":
		m.sortBy(sortBySize)
	case "3":
		m.sortBy(sortByTracker)

	case "enter":
		if len(m.selected) == 0 {
			m.statusMsg = "No torrents selected"
			return m, nil
		}
		m.confirmed = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) cancel() (tea.Model, tea.Cmd) {
	m.confirmed = false
	m.selected = make(map[string]domain.TorrentSummary)
	return m, tea.Quit
}

func (m *Model) toggleCurrent() {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return
	}
	torrent := m.filtered[m.cursor]
	if _, ok := m.selected[torrent.InfoHash]; ok {
		delete(m.selected, torrent.InfoHash)
	} else {
		m.selected[torrent.InfoHash] = torrent
	}
}

// applyFilter rebuilds the visible list. Substring matches win; fuzzy
// matching on the name is the fallback for inexact queries.
func (m *Model) applyFilter(query string) {
	query = strings.ToLower(strings.TrimSpace(query))

	if query == "" {
		m.filtered = append([]domain.TorrentSummary(nil), m.torrents...)
	} else {
		m.filtered = m.filtered[:0]
		for _, torrent := range m.torrents {
			name := strings.ToLower(torrent.Name)
			if strings.Contains(name, query) || strings.Contains(strings.ToLower(torrent.Category), query) {
				m.filtered = append(m.filtered, torrent)
				continue
			}
			if fuzzy.MatchNormalizedFold(query, torrent.Name) {
				m.filtered = append(m.filtered, torrent)
			}
		}
	}

	m.sortFiltered()

	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) sortBy(col sortColumn) {
	if m.sortCol == col {
		m.sortAsc = !m.sortAsc
	} else {
		m.sortCol = col
		m.sortAsc = true
	}
	m.sortFiltered()
}

func (m *Model) sortFiltered() {
	less := func(a, b domain.TorrentSummary) bool {
		switch m.sortCol {
		case sortBySize:
			return a.Size < b.Size
		case sortByTracker:
			return trackerHost(a.Tracker) < trackerHost(b.Tracker)
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}

	sort.SliceStable(m.filtered, func(i, j int) bool {
		if m.sortAsc {
			return less(m.filtered[i], m.filtered[j])
		}
		return less(m.filtered[j], m.filtered[i])
	})
}

// Selection returns the chosen torrents. Empty when the user cancelled.
func (m Model) Selection() []domain.TorrentSummary {
	if !m.confirmed {
		return nil
	}

	selection := make([]domain.TorrentSummary, 0, len(m.selected))
	for _, torrent := range m.selected {
		selection = append(selection, torrent)
	}
	sort.SliceStable(selection, func(i, j int) bool {
		return strings.ToLower(selection[i].Name) < strings.ToLower(selection[j].Name)
	})

	return selection
}

// View renders the selector
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("qBittorrent Cross-Seed"))
	b.WriteString("\n\n")

	b.WriteString(mutedStyle.Render("Filter: "))
	b.WriteString(m.filterInput.View())
	b.WriteString("\n\n")

	nameWidth := m.nameColumnWidth()
	b.WriteString(headerStyle.Render(fmt.Sprintf("    %s %s %s", PadRight("Name", nameWidth), PadLeft("Size", 10), "Tracker")))
	b.WriteString("\n")

	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		torrent := m.filtered[i]

		marker := "[ ]"
		if _, ok := m.selected[torrent.InfoHash]; ok {
			marker = selectedStyle.Render("[*]")
		}

		row := fmt.Sprintf("%s %s %s %s",
			marker,
			PadRight(TruncateString(torrent.Name, nameWidth), nameWidth),
			PadLeft(humanize.IBytes(uint64(torrent.Size)), 10),
			trackerHost(torrent.Tracker),
		)

		if i == m.cursor && !m.filtering {
			row = cursorStyle.Render(row)
		}

		b.WriteString(row)
		b.WriteString("\n")
	}

	if len(m.filtered) == 0 {
		b.WriteString(mutedStyle.Render("  no torrents match the filter"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.statusLine()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space toggle - a all - n none - / filter - 1/2/3 sort - enter confirm - q quit"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) statusLine() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}
	if len(m.filtered) < len(m.torrents) {
		return fmt.Sprintf("Showing %d/%d torrents | %d selected", len(m.filtered), len(m.torrents), len(m.selected))
	}
	return fmt.Sprintf("%d torrents | %d selected", len(m.torrents), len(m.selected))
}

func (m Model) nameColumnWidth() int {
	width := m.width - 30
	if width < 20 {
		width = 60
	}
	return width
}

// visibleRange windows the filtered list around the cursor so long lists
// stay within the terminal height.
func (m Model) visibleRange() (int, int) {
	rows := m.height - 9
	if rows < 5 {
		rows = 20
	}

	if len(m.filtered) <= rows {
		return 0, len(m.filtered)
	}

	start := m.cursor - rows/2
	if start < 0 {
		start = 0
	}
	end := start + rows
	if end > len(m.filtered) {
		end = len(m.filtered)
		start = end - rows
	}

	return start, end
}

func trackerHost(tracker string) string {
	if tracker == "" {
		return "-"
	}
	if parsed, err := url.Parse(tracker); err == nil && parsed.Hostname() != "" {
		return parsed.Hostname()
	}
	return tracker
}

// Run blocks on the terminal until the user confirms or cancels and returns
// the selected torrents. Interrupt or cancel yields an empty selection.
func Run(torrents []domain.TorrentSummary) ([]domain.TorrentSummary, error) {
	program := tea.NewProgram(NewModel(torrents), tea.WithAltScreen())

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("selector failed: %w", err)
	}

	model, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("selector returned unexpected model %T", final)
	}

	return model.Selection(), nil
}
