// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Velatura/sideband/pkg/cantus"
)

// Event log entry
type monitorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

// Monitor TUI model
type monitorModel struct {
	info          string
	statsInterval int
	showAll       bool
	stats         *cantus.Statistics
	eventLog      []monitorLogEntry
	maxLogEntries int
	lastScale     string
	lastScaleAt   time.Time
	lastChord     string
	lastChordAt   time.Time
	width         int
	height        int
	quitting      bool
}

// Messages
type monitorTickMsg time.Time
type midiEventMsg struct {
	event     cantus.Event
	packet    *cantus.Packet
	forwarded bool
	err       error
	anomalies []cantus.ValidationError
	bufferLen int
}

func initialMonitorModel(info string, statsInterval int, showAll bool) monitorModel {
	return monitorModel{
		info:          info,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         cantus.NewStatistics(),
		eventLog:      make([]monitorLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		monitorTickCmd(),
		tea.EnterAltScreen,
	)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

// packetSummary names a packet by its musical content for the event log
func packetSummary(p *cantus.Packet) string {
	kind := cantus.FormatPacketKind(p.Kind())
	if tonic, ok := p.Tonic(); ok {
		if scale, ok := p.Scale(); ok {
			return fmt.Sprintf("%s %s", kind, cantus.FormatScale(tonic, scale))
		}
	}
	if chord, ok := p.Chord(); ok {
		return fmt.Sprintf("%s %s", kind, chord.Symbol())
	}
	return fmt.Sprintf("%s codes=%s", kind, cantus.FormatCodes(p.Codes()))
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case monitorTickMsg:
		// Update statistics rates
		m.stats.CalculateRates()
		return m, monitorTickCmd()

	case midiEventMsg:
		m.stats.Update(msg.packet, msg.forwarded, msg.err, msg.anomalies)
		m.stats.RecordBufferLen(msg.bufferLen)

		if msg.err != nil {
			m.addLogEntry(msg.err.Error(), true)
		}
		if msg.packet != nil {
			if tonic, ok := msg.packet.Tonic(); ok {
				if scale, ok := msg.packet.Scale(); ok {
					m.lastScale = cantus.FormatScale(tonic, scale)
					m.lastScaleAt = msg.packet.Timestamp()
				}
			}
			if chord, ok := msg.packet.Chord(); ok {
				m.lastChord = chord.Symbol()
				m.lastChordAt = msg.packet.Timestamp()
			}

			if len(msg.anomalies) > 0 {
				for _, v := range msg.anomalies {
					m.addLogEntry(v.Message, true)
				}
			} else {
				m.addLogEntry(packetSummary(msg.packet), false)
			}
		} else if m.showAll && msg.forwarded {
			m.addLogEntry("pass "+msg.event.String(), false)
		}
	}

	return m, nil
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	entry := monitorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

// contextAge renders how stale a context line is
func contextAge(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf(" (%s ago)", time.Since(t).Round(time.Second))
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

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

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("SIDEBAND - MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Input: %s | Controller: %d, channel: %s | Press 'q' to quit",
		m.info, ccNumber, channelLabel())))
	s.WriteString("\n\n")

	// Musical context
	contextContent := strings.Builder{}
	if m.lastScale == "" && m.lastChord == "" {
		contextContent.WriteString(warningStyle.Render("Waiting for first packet..."))
	} else {
		if m.lastScale != "" {
			contextContent.WriteString(fmt.Sprintf("%s %s%s\n",
				labelStyle.Render("Key:"),
				valueStyle.Render(m.lastScale),
				headerStyle.Render(contextAge(m.lastScaleAt)),
			))
		}
		if m.lastChord != "" {
			contextContent.WriteString(fmt.Sprintf("%s %s%s\n",
				labelStyle.Render("Chord:"),
				valueStyle.Render(m.lastChord),
				headerStyle.Render(contextAge(m.lastChordAt)),
			))
		}
	}
	s.WriteString(boxStyle.Render(contextContent.String()))
	s.WriteString("\n\n")

	// Statistics
	m.stats.CalculateRates()
	errorTotal := m.stats.UnknownCodes + m.stats.SpuriousStops +
		m.stats.PartialDiscards + m.stats.RoleConflicts + m.stats.UnterminatedDrops

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		labelStyle.Render("Events:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.TotalEvents)),
		labelStyle.Render("Sideband:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.SidebandEvents)),
		labelStyle.Render("Packets:"), valueStyle.Render(fmt.Sprintf("%d (%d scale, %d chord)",
			m.stats.PacketsDecoded, m.stats.ScalePackets, m.stats.ChordPackets)),
	))

	if errorTotal > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s",
			labelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d", errorTotal)),
		))
		statsContent.WriteString(fmt.Sprintf(" (%s: %d, %s: %d, %s: %d, %s: %d)",
			headerStyle.Render("unknown"), m.stats.UnknownCodes,
			headerStyle.Render("spurious stop"), m.stats.SpuriousStops,
			headerStyle.Render("discarded"), m.stats.PartialDiscards,
			headerStyle.Render("unterminated"), m.stats.UnterminatedDrops,
		))
		statsContent.WriteString("\n")
	}

	if m.stats.AnomaliesSeen > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Anomalies:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.AnomaliesSeen)),
		))
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		labelStyle.Render("Packet Rate:"), valueStyle.Render(fmt.Sprintf("%.1f pkts/s", m.stats.PacketRate)),
		labelStyle.Render("Error Rate:"), func() string {
			if m.stats.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
			}
			return valueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	// Calculate how many log entries we can show
	logHeight := m.height - 15 // Reserve space for header, context, and stats
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					valueStyle.Render("• "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
