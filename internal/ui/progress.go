package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"smoketester/internal/preflight"
)

type progressModel struct {
	title   string
	events  <-chan preflight.Event
	spinner spinner.Model
	prog    progress.Model
	items   []dutItem
	index   map[string]int
	summary string
	width   int
	done    bool
}

type dutItem struct {
	name   string
	status string
	stage  preflight.Stage
	detail string
}

type eventMsg preflight.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders pre-flight
// progress for the named DUTs. The model quits when events is closed.
func NewProgressModel(title string, duts []string, events <-chan preflight.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]dutItem, 0, len(duts))
	index := make(map[string]int, len(duts))
	for i, name := range duts {
		items = append(items, dutItem{name: name, status: "queued"})
		index[name] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(preflight.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.summary != "" {
		header = fmt.Sprintf("%s (%s)", header, m.summary)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth = 12
	nameWidth := max(m.width-statusWidth-4, 20)
	detailStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		fmt.Fprintf(&b, "  %s %s\n", status, truncate(item.name, nameWidth))
		if item.detail != "" {
			b.WriteString("  " + strings.Repeat(" ", statusWidth) + " ")
			b.WriteString(detailStyle.Render(truncate(item.detail, nameWidth)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev preflight.Event) tea.Cmd {
	if ev.DUT == "" {
		if ev.Status == preflight.StatusDone {
			m.summary = m.counts()
		}
		return nil
	}
	idx, ok := m.index[ev.DUT]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	if label := statusLabel(ev.Stage, ev.Status); label != "" {
		item.status = label
	}
	if ev.Stage != "" {
		item.stage = ev.Stage
	}
	if ev.Err != nil {
		item.detail = ev.Err.Error()
	}

	total := 0.0
	for _, it := range m.items {
		total += progressFromItem(it)
	}
	return m.prog.SetPercent(total / float64(len(m.items)))
}

func (m *progressModel) counts() string {
	var ok, failed int
	for _, it := range m.items {
		switch it.status {
		case "done":
			ok++
		case "error", "skipped":
			failed++
		}
	}
	return fmt.Sprintf("%d ok, %d failed", ok, failed)
}

func progressFromItem(it dutItem) float64 {
	switch it.status {
	case "done", "error", "skipped":
		return 1.0
	case "queued":
		return 0.0
	}
	switch it.stage {
	case preflight.StageBinary:
		return 0.2
	case preflight.StageOpen:
		return 0.6
	default:
		return 0.0
	}
}

func statusLabel(stage preflight.Stage, status preflight.Status) string {
	switch status {
	case preflight.StatusQueued:
		return "queued"
	case preflight.StatusDone:
		return "done"
	case preflight.StatusError:
		return "error"
	case preflight.StatusSkipped:
		return "skipped"
	case preflight.StatusWorking:
		return stageLabel(stage)
	default:
		return ""
	}
}

func stageLabel(stage preflight.Stage) string {
	switch stage {
	case preflight.StageBinary:
		return "checking"
	case preflight.StageOpen:
		return "opening"
	default:
		return ""
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "skipped":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	case "checking", "opening":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
