// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Velatura/sideband/pkg/cantus"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Focus states
const (
	composeFocusPresets = iota
	composeFocusInput
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// preset is a canned packet expressed in the compose command syntax
type preset struct {
	name    string
	command string
}

// Implement list.Item interface
func (p preset) Title() string       { return p.name }
func (p preset) Description() string { return p.command }
func (p preset) FilterValue() string { return p.name }

var composePresets = []preset{
	{"C Major", "scale c ionian"},
	{"A Minor", "scale a aeolian"},
	{"D Dorian", "scale d dorian"},
	{"G Mixolydian", "scale g mixolydian"},
	{"Tonic", "chord I maj"},
	{"Supertonic", "chord ii min"},
	{"Subdominant", "chord IV maj"},
	{"Dominant seventh", "chord V maj b7"},
	{"Relative minor", "chord vi min"},
	{"Leading-tone dim", "chord vii dim"},
	{"Neapolitan", "chord bII maj"},
	{"Tonic, first inversion", "chord I maj /3"},
}

// composeModel is the Bubble Tea model for the compose TUI
type composeModel struct {
	tx       *cantus.Transmitter
	send     func(...cantus.Event) error
	sendInfo string

	presetList list.Model
	cmdInput   textinput.Model

	focusedField int

	packetsSent int
	eventsSent  int
	lastSent    string

	eventLog      []monitorLogEntry
	maxLogEntries int

	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialComposeModel(tx *cantus.Transmitter, send func(...cantus.Event) error, sendInfo string) composeModel {
	// Command input
	ti := textinput.New()
	ti.Placeholder = "scale c ionian"
	ti.CharLimit = 64
	ti.Width = 40

	// Preset list
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	presetList := list.New([]list.Item{}, delegate, 30, 10)
	presetList.Title = "Presets"
	presetList.SetShowStatusBar(false)
	presetList.SetShowHelp(false)
	presetList.SetFilteringEnabled(false)

	items := make([]list.Item, len(composePresets))
	for i, p := range composePresets {
		items[i] = p
	}
	presetList.SetItems(items)

	return composeModel{
		tx:            tx,
		send:          send,
		sendInfo:      sendInfo,
		presetList:    presetList,
		cmdInput:      ti,
		focusedField:  composeFocusPresets,
		eventLog:      make([]monitorLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m composeModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m composeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()
	}

	return m, nil
}

func (m *composeModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "q":
		// Only quit from the preset list; the command line needs the letter
		if m.focusedField == composeFocusPresets {
			m.quitting = true
			return m, tea.Quit
		}

	case "tab", "shift+tab":
		if m.focusedField == composeFocusPresets {
			m.focusedField = composeFocusInput
			m.cmdInput.Focus()
		} else {
			m.focusedField = composeFocusPresets
			m.cmdInput.Blur()
		}
		return m, nil

	case "enter":
		return m.handleEnter()

	case "up", "down", "k", "j":
		if m.focusedField == composeFocusPresets {
			m.presetList, _ = m.presetList.Update(msg)
			return m, nil
		}
	}

	// Pass through to focused component
	if m.focusedField == composeFocusInput {
		var cmd tea.Cmd
		m.cmdInput, cmd = m.cmdInput.Update(msg)
		return m, cmd
	}

	m.presetList, _ = m.presetList.Update(msg)
	return m, nil
}

func (m *composeModel) handleEnter() (tea.Model, tea.Cmd) {
	switch m.focusedField {
	case composeFocusPresets:
		if p := m.getSelectedPreset(); p != nil {
			m.sendCommand(p.command)
		}
	case composeFocusInput:
		if m.sendCommand(m.cmdInput.Value()) {
			m.cmdInput.SetValue("")
		}
	}
	return m, nil
}

//////////////////////////////////////////////////////////////
// Sending
//////////////////////////////////////////////////////////////

// sendCommand parses and transmits one command line. Shape anomalies are
// logged but do not block the send; the stream must carry what the user
// asked for.
func (m *composeModel) sendCommand(command string) bool {
	command = strings.TrimSpace(command)
	if command == "" {
		return false
	}

	pkt, err := parseComposeCommand(command)
	if err != nil {
		m.addLogEntry(err.Error(), true)
		return false
	}

	for _, v := range cantus.ValidatePacket(pkt) {
		m.addLogEntry(v.Message, true)
	}

	events := m.tx.EncodePacket(pkt)
	if err := m.send(events...); err != nil {
		m.addLogEntry(fmt.Sprintf("send failed: %v", err), true)
		return false
	}

	m.packetsSent++
	m.eventsSent += len(events)
	m.lastSent = packetSummary(pkt)
	m.addLogEntry(fmt.Sprintf("sent %s", m.lastSent), false)
	return true
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *composeModel) addLogEntry(message string, isError bool) {
	entry := monitorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m *composeModel) getSelectedPreset() *preset {
	idx := m.presetList.Index()
	if idx < 0 || idx >= len(composePresets) {
		return nil
	}
	return &composePresets[idx]
}

func (m *composeModel) updateListSize() {
	listHeight := m.height / 2
	if listHeight < 6 {
		listHeight = 6
	}
	m.presetList.SetSize(28, listHeight)
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m composeModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	// Header
	s.WriteString(titleStyle.Render("SIDEBAND COMPOSE"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | Tab=switch Enter=send q=quit", m.sendInfo)))
	s.WriteString("\n\n")

	// Layout: left panel (presets) | right panel (command line)
	leftWidth := 30
	rightWidth := m.width - leftWidth - 6
	if rightWidth < 30 {
		rightWidth = 30
	}

	listStyle := boxStyle.Width(leftWidth)
	if m.focusedField == composeFocusPresets {
		listStyle = focusedBoxStyle.Width(leftWidth)
	}
	presetPanel := listStyle.Render(m.presetList.View())

	commandContent := m.renderCommandPanel(labelStyle, valueStyle, headerStyle)
	commandStyle := boxStyle.Width(rightWidth)
	if m.focusedField == composeFocusInput {
		commandStyle = focusedBoxStyle.Width(rightWidth)
	}
	commandPanel := commandStyle.Render(commandContent)

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, presetPanel, " ", commandPanel))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(m.renderEventLog(labelStyle, warningStyle, boxStyle))

	return s.String()
}

func (m composeModel) renderCommandPanel(labelStyle, valueStyle, headerStyle lipgloss.Style) string {
	var s strings.Builder

	s.WriteString(labelStyle.Render("Command: "))
	if m.focusedField == composeFocusInput {
		s.WriteString(m.cmdInput.View())
	} else {
		val := m.cmdInput.Value()
		if val == "" {
			val = m.cmdInput.Placeholder
		}
		s.WriteString(fmt.Sprintf("[%s]", val))
	}
	s.WriteString("\n\n")

	s.WriteString(headerStyle.Render("scale TONIC SCALE"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render("chord DEGREE [QUALITY] [EXT...] [/BASS]"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render("raw CODE [CODE...]"))
	s.WriteString("\n\n")

	s.WriteString(fmt.Sprintf("%s %s\n",
		labelStyle.Render("Sent:"),
		valueStyle.Render(fmt.Sprintf("%d packets (%d events)", m.packetsSent, m.eventsSent)),
	))
	if m.lastSent != "" {
		s.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Last:"),
			valueStyle.Render(m.lastSent),
		))
	}

	return s.String()
}

func (m composeModel) renderEventLog(labelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyleLocal := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	logHeight := 8
	if len(m.eventLog) < logHeight {
		logHeight = len(m.eventLog)
	}

	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		s.WriteString(headerStyle.Render("  (nothing sent yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyleLocal
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(timestamp),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}
