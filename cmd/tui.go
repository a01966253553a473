// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Wheelworks Robotics

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wheelworks/createlink/pkg/create"
	"github.com/wheelworks/createlink/pkg/oi"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Live sensor dashboard",
	Long: `Stream the full sensor state and render it as a live dashboard with
decode statistics. Press q or Ctrl+C to exit.`,
	RunE: runTui,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

type frameMsg *oi.StreamFrame
type frameClosedMsg struct{}
type statsTickMsg time.Time

type dashModel struct {
	robot    *create.Robot
	connInfo string
	table    table.Model
	state    *oi.AllState
	lastSeen time.Time
	stats    oi.Statistics
	width    int
	quitting bool
}

func newDashModel(robot *create.Robot, connInfo string) dashModel {
	columns := []table.Column{
		{Title: "Sensor", Width: 22},
		{Title: "Value", Width: 28},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(14),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return dashModel{
		robot:    robot,
		connInfo: connInfo,
		table:    t,
	}
}

func waitForFrame(frames <-chan *oi.StreamFrame) tea.Cmd {
	return func() tea.Msg {
		frame, ok := <-frames
		if !ok {
			return frameClosedMsg{}
		}
		return frameMsg(frame)
	}
}

func statsTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return statsTickMsg(t)
	})
}

func (m dashModel) Init() tea.Cmd {
	return tea.Batch(waitForFrame(m.robot.Frames()), statsTickCmd())
}

func (m dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case frameMsg:
		m.applyFrame((*oi.StreamFrame)(msg))
		return m, waitForFrame(m.robot.Frames())

	case frameClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case statsTickMsg:
		m.stats = m.robot.Statistics()
		return m, statsTickCmd()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *dashModel) applyFrame(frame *oi.StreamFrame) {
	m.lastSeen = frame.Timestamp
	for _, p := range frame.Packets {
		if p.ID != oi.PacketGroup6 {
			continue
		}
		state, err := oi.DecodeAllState(p.Data)
		if err != nil {
			continue
		}
		m.state = state
	}
	m.table.SetRows(m.sensorRows())
}

func maskNames[T fmt.Stringer](items []T) string {
	if len(items) == 0 {
		return "none"
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.String())
	}
	return strings.Join(names, ", ")
}

func (m dashModel) sensorRows() []table.Row {
	s := m.state
	if s == nil {
		return nil
	}
	return []table.Row{
		{"Mode", oi.Mode(s.Mode).String()},
		{"Bumpers", maskNames(oi.DecodeBumpers(s.BumpsAndWheelDrops))},
		{"Wheel Drops", maskNames(oi.DecodeWheelDrops(s.BumpsAndWheelDrops))},
		{"Buttons", maskNames(oi.DecodeButtons(s.Buttons))},
		{"Overcurrents", maskNames(oi.DecodeOvercurrents(s.Overcurrents))},
		{"Wall", fmt.Sprintf("%d (signal %d)", s.Wall, s.WallSignal)},
		{"Cliff L/FL/FR/R", fmt.Sprintf("%d/%d/%d/%d", s.CliffLeft, s.CliffFrontLeft, s.CliffFrontRight, s.CliffRight)},
		{"Distance", fmt.Sprintf("%d mm", s.Distance)},
		{"Angle", fmt.Sprintf("%d deg", s.Angle)},
		{"Battery", fmt.Sprintf("%d/%d mAh @ %dmV", s.BatteryCharge, s.BatteryCapacity, s.Voltage)},
		{"Current", fmt.Sprintf("%d mA", s.Current)},
		{"Temperature", fmt.Sprintf("%d C", s.BatteryTemp)},
		{"Velocity", fmt.Sprintf("%d mm/s (radius %d)", s.Velocity, s.Radius)},
		{"Wheel Velocity L/R", fmt.Sprintf("%d/%d mm/s", s.LeftVelocity, s.RightVelocity)},
	}
}

func (m dashModel) View() string {
	if m.quitting {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)
	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	statsStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Createlink Dashboard"))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(m.connInfo))
	b.WriteString("\n\n")

	if m.state == nil {
		b.WriteString("Waiting for telemetry...\n")
	} else {
		b.WriteString(boxStyle.Render(m.table.View()))
		b.WriteString("\n")
	}

	b.WriteString(statsStyle.Render(fmt.Sprintf(
		"%d frames  %d packets  %d decode errors  %.1f fps  %.0f B/s",
		m.stats.TotalFrames, m.stats.TotalPackets, m.stats.DecodeErrors,
		m.stats.FrameRate, m.stats.ByteRate,
	)))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("q: quit"))
	b.WriteString("\n")
	return b.String()
}

func runTui(cmd *cobra.Command, args []string) error {
	robot, info, err := openRobot()
	if err != nil {
		return err
	}
	defer robot.Close()

	if err := robot.StreamPackets(oi.PacketGroup6); err != nil {
		return err
	}

	p := tea.NewProgram(newDashModel(robot, info), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
