// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nosseb/macstat/pkg/mac50"
	"github.com/nosseb/macstat/pkg/mactalk"
)

const (
	focusModeList = iota
	focusTarget
)

// logEntry is one line of the event log
type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// modeItem adapts a mode to the bubbles list
type modeItem mac50.Mode

func (i modeItem) Title() string       { return mac50.Mode(i).String() }
func (i modeItem) Description() string { return "mode " + strconv.Itoa(int(i)) }
func (i modeItem) FilterValue() string { return mac50.Mode(i).String() }

type monitorModel struct {
	device   *mac50.Device
	stats    *mactalk.Statistics
	connInfo string
	interval time.Duration

	status       mac50.Status
	config       mac50.Config
	haveStatus   bool
	haveConfig   bool
	polling      bool
	pollFailures int

	modeList     list.Model
	targetInput  textinput.Model
	focusedField int

	log           []logEntry
	maxLogEntries int

	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type monitorTickMsg time.Time

type statusMsg struct {
	status mac50.Status
	err    error
}

type configMsg struct {
	config mac50.Config
	err    error
}

type commandResultMsg struct {
	message string
	err     error
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialMonitorModel(d *mac50.Device, stats *mactalk.Statistics, connInfo string, interval time.Duration) monitorModel {
	ti := textinput.New()
	ti.Placeholder = "0"
	ti.CharLimit = 12
	ti.Width = 14

	items := make([]list.Item, 0, len(mac50.Modes()))
	for _, mode := range mac50.Modes() {
		items = append(items, modeItem(mode))
	}
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)
	modeList := list.New(items, delegate, 36, 12)
	modeList.Title = "Modes"
	modeList.SetShowStatusBar(false)
	modeList.SetShowHelp(false)
	modeList.SetFilteringEnabled(false)

	return monitorModel{
		device:        d,
		stats:         stats,
		connInfo:      connInfo,
		interval:      interval,
		modeList:      modeList,
		targetInput:   ti,
		focusedField:  focusModeList,
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

//////////////////////////////////////////////////////////////
// Device Commands
//////////////////////////////////////////////////////////////

func (m monitorModel) refreshConfigCmd() tea.Cmd {
	d := m.device
	return func() tea.Msg {
		err := d.RefreshConfig()
		return configMsg{config: d.Config(), err: err}
	}
}

func (m monitorModel) refreshStatusCmd() tea.Cmd {
	d := m.device
	return func() tea.Msg {
		err := d.RefreshStatus()
		return statusMsg{status: d.Status(), err: err}
	}
}

func (m monitorModel) setModeCmd(mode mac50.Mode) tea.Cmd {
	d := m.device
	return func() tea.Msg {
		if err := d.SetMode(mode); err != nil {
			return commandResultMsg{err: fmt.Errorf("set mode %s: %w", mode, err)}
		}
		return commandResultMsg{message: "Mode set to " + mode.String()}
	}
}

func (m monitorModel) setTargetCmd(target int64) tea.Cmd {
	d := m.device
	return func() tea.Msg {
		if err := d.SetTargetPosition(target, false); err != nil {
			return commandResultMsg{err: fmt.Errorf("set target %d: %w", target, err)}
		}
		return commandResultMsg{message: fmt.Sprintf("Target position set to %d", target)}
	}
}

func monitorTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(m.refreshConfigCmd(), monitorTickCmd(m.interval))
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case monitorTickMsg:
		cmds := []tea.Cmd{monitorTickCmd(m.interval)}
		if !m.polling {
			m.polling = true
			cmds = append(cmds, m.refreshStatusCmd())
		}
		return m, tea.Batch(cmds...)

	case statusMsg:
		m.polling = false
		if msg.err != nil {
			m.pollFailures++
			if m.pollFailures == 1 {
				m.addLogEntry(fmt.Sprintf("Status refresh failed: %v", msg.err), true)
			}
			return m, nil
		}
		if m.pollFailures > 1 {
			m.addLogEntry(fmt.Sprintf("Status restored after %d failed polls", m.pollFailures), false)
		}
		m.pollFailures = 0
		if m.haveStatus && msg.status.Mode != m.status.Mode {
			m.addLogEntry(fmt.Sprintf("Mode changed: %s -> %s", m.status.Mode, msg.status.Mode), false)
		}
		m.status = msg.status
		m.haveStatus = true

	case configMsg:
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Config refresh failed: %v", msg.err), true)
			return m, nil
		}
		m.config = msg.config
		m.haveConfig = true
		m.addLogEntry("Configuration loaded", false)

	case commandResultMsg:
		if msg.err != nil {
			m.addLogEntry(msg.err.Error(), true)
			return m, nil
		}
		m.addLogEntry(msg.message, false)
		m.status = m.device.Status()
	}

	return m, nil
}

func (m monitorModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "q":
		if m.focusedField != focusTarget {
			m.quitting = true
			return m, tea.Quit
		}

	case "tab", "shift+tab":
		if m.focusedField == focusModeList {
			m.focusedField = focusTarget
			m.targetInput.Focus()
		} else {
			m.focusedField = focusModeList
			m.targetInput.Blur()
		}
		return m, nil

	case "r":
		if m.focusedField != focusTarget {
			return m, m.refreshConfigCmd()
		}

	case "enter":
		return m.handleEnter()
	}

	var cmd tea.Cmd
	if m.focusedField == focusTarget {
		m.targetInput, cmd = m.targetInput.Update(msg)
	} else {
		m.modeList, cmd = m.modeList.Update(msg)
	}
	return m, cmd
}

func (m monitorModel) handleEnter() (tea.Model, tea.Cmd) {
	if m.focusedField == focusModeList {
		item, ok := m.modeList.SelectedItem().(modeItem)
		if !ok {
			return m, nil
		}
		return m, m.setModeCmd(mac50.Mode(item))
	}

	value := strings.TrimSpace(m.targetInput.Value())
	if value == "" {
		value = m.targetInput.Placeholder
	}
	target, err := strconv.ParseInt(value, 0, 64)
	if err != nil {
		m.addLogEntry(fmt.Sprintf("Invalid target %q", value), true)
		return m, nil
	}
	return m, m.setTargetCmd(target)
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.log = append(m.log, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.log) > m.maxLogEntries {
		m.log = m.log[len(m.log)-m.maxLogEntries:]
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render(fmt.Sprintf("MACSTAT MONITOR - MOTOR %d", m.device.Address())))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit Tab=switch Enter=apply r=reload config", m.connInfo)))
	s.WriteString("\n\n")

	leftWidth := 36
	rightWidth := m.width - leftWidth - 6
	if rightWidth < 40 {
		rightWidth = 40
	}

	focusedBoxStyle := boxStyle.BorderForeground(lipgloss.Color("12"))
	listStyle := boxStyle
	if m.focusedField == focusModeList {
		listStyle = focusedBoxStyle
	}
	modePanel := listStyle.Width(leftWidth).Render(m.modeList.View())
	statusPanel := boxStyle.Width(rightWidth).Render(m.renderStatusPanel())

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, modePanel, " ", statusPanel))
	s.WriteString("\n")
	s.WriteString(m.renderStatisticsBar())
	s.WriteString("\n")
	s.WriteString(m.renderEventLog())

	return s.String()
}

func (m monitorModel) renderStatusPanel() string {
	var s strings.Builder
	row := func(label, value string) {
		s.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-17s", label)), valueStyle.Render(value)))
	}

	if !m.haveStatus {
		s.WriteString(warningStyle.Render("Waiting for first status..."))
		s.WriteString("\n\n")
	} else {
		st := m.status
		mode := st.Mode.String()
		if st.Mode == mac50.ModePosition {
			mode = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true).Render(mode)
		}
		s.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-17s", "Mode:")), mode))
		row("Actual position:", strconv.FormatInt(st.ActualPosition, 10))
		row("Target position:", strconv.FormatInt(st.TargetPosition, 10))
		row("Velocity:", strconv.FormatInt(st.ActualVelocity, 10))
		row("Load factor:", strconv.FormatInt(st.LoadFactor, 10))
		row("Winding energy:", strconv.FormatInt(st.WindingEnergy, 10))
		row("Dumped energy:", strconv.FormatInt(st.DumpedEnergy, 10))
		row("Supply voltage:", strconv.FormatInt(st.SupplyVoltage, 10))
		if st.ErrorFlags != 0 {
			s.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-17s", "Errors:")),
				errorStyle.Render(fmt.Sprintf("0x%08X", uint32(st.ErrorFlags)))))
		} else {
			row("Errors:", "none")
		}
		s.WriteString(headerStyle.Render("updated " + st.UpdatedAt.Format("15:04:05.000")))
		s.WriteString("\n\n")
	}

	if m.haveConfig {
		limits := "none"
		if m.config.HasPositionLimits() {
			limits = fmt.Sprintf("%d .. %d", m.config.MinPosition, m.config.MaxPosition)
		}
		row("Position limits:", limits)
		row("Serial number:", strconv.FormatInt(m.config.SerialNumber, 10))
		s.WriteString("\n")
	}

	s.WriteString(labelStyle.Render("Target: "))
	if m.focusedField == focusTarget {
		s.WriteString(m.targetInput.View())
	} else {
		val := m.targetInput.Value()
		if val == "" {
			val = m.targetInput.Placeholder
		}
		s.WriteString(fmt.Sprintf("[%s]", val))
	}
	if m.haveStatus && m.status.Mode != mac50.ModePosition {
		s.WriteString(" ")
		s.WriteString(headerStyle.Render("(requires POSITION)"))
	}

	return s.String()
}

func (m monitorModel) renderStatisticsBar() string {
	snap := m.stats.Snapshot()
	var validPercent float64
	if snap.TotalFrames > 0 {
		validPercent = float64(snap.ValidFrames) * 100.0 / float64(snap.TotalFrames)
	}

	errors := valueStyle.Render("0")
	if snap.Errors() > 0 {
		errors = errorStyle.Render(strconv.FormatUint(snap.Errors(), 10))
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  %s %s",
		labelStyle.Render("Frames:"), valueStyle.Render(strconv.FormatUint(snap.TotalFrames, 10)),
		labelStyle.Render("Valid:"), valueStyle.Render(fmt.Sprintf("%.1f%%", validPercent)),
		labelStyle.Render("Errors:"), errors,
		labelStyle.Render("Rate:"), valueStyle.Render(fmt.Sprintf("%.1f fr/s", snap.FrameRate)),
		labelStyle.Render("Avg:"), valueStyle.Render(snap.AverageLatency().Round(100*time.Microsecond).String()),
	)
	return boxStyle.Width(m.width - 4).Render(content)
}

func (m monitorModel) renderEventLog() string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	logHeight := m.height - 24
	if logHeight < 5 {
		logHeight = 5
	}
	start := len(m.log) - logHeight
	if start < 0 {
		start = 0
	}

	var content strings.Builder
	if len(m.log) == 0 {
		content.WriteString(headerStyle.Render("  (no events yet)"))
	}
	for _, entry := range m.log[start:] {
		timestamp := entry.timestamp.Format("15:04:05.000")
		if entry.isError {
			content.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), errorStyle.Render("✗ "+entry.message)))
		} else {
			content.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), warningStyle.Render("ℹ "+entry.message)))
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(content.String()))
	return s.String()
}
