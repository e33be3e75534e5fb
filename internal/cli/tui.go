package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lwiedman/portgraph/pkg/topo"
)

// Tree styles
var (
	treeSourceStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	treePortStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	treeTrackedStyle = lipgloss.NewStyle().Foreground(colorGreen)
	treeDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

// maxEventLines bounds the event log tail shown in the TUI.
const maxEventLines = 8

// =============================================================================
// eventLog - collects change events across refreshes
// =============================================================================

// eventLog buffers formatted change events so the model can drain them
// after each refresh completes.
type eventLog struct {
	mu    sync.Mutex
	lines []string
}

var _ topo.Listener = (*eventLog)(nil)

func (l *eventLog) add(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, time.Now().Format("15:04:05")+" "+line)
}

func (l *eventLog) drain() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.lines
	l.lines = nil
	return out
}

func (l *eventLog) PortAdded(name string)   { l.add(styleAdded.Render("+ port ") + name) }
func (l *eventLog) PortRemoved(name string) { l.add(styleRemoved.Render("- port ") + name) }
func (l *eventLog) EdgeAdded(src, dest string) {
	l.add(styleAdded.Render("+ edge ") + fmtEdge(src, dest))
}
func (l *eventLog) EdgeRemoved(src, dest string) {
	l.add(styleRemoved.Render("- edge ") + fmtEdge(src, dest))
}

// =============================================================================
// watchModel - live port tree
// =============================================================================

type tickMsg time.Time

type refreshedMsg struct {
	err error
}

// watchModel is the bubbletea model for the live watch view.
type watchModel struct {
	monitor  *topo.Monitor
	events   *eventLog
	device   string
	interval time.Duration

	log         []string
	lastRefresh time.Time
	lastErr     error
	refreshes   int
	Height      int
}

func newWatchModel(mon *topo.Monitor, events *eventLog, device string, interval time.Duration) watchModel {
	return watchModel{
		monitor:  mon,
		events:   events,
		device:   device,
		interval: interval,
		Height:   24,
	}
}

func (m watchModel) Init() tea.Cmd {
	return m.refreshCmd()
}

func (m watchModel) refreshCmd() tea.Cmd {
	mon := m.monitor
	return func() tea.Msg {
		return refreshedMsg{err: mon.Refresh(context.Background())}
	}
}

func (m watchModel) scheduleTick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.refreshCmd()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height
	case tickMsg:
		return m, m.refreshCmd()
	case refreshedMsg:
		m.lastRefresh = time.Now()
		m.lastErr = msg.err
		m.refreshes++
		m.log = append(m.log, m.events.drain()...)
		if len(m.log) > maxEventLines {
			m.log = m.log[len(m.log)-maxEventLines:]
		}
		return m, m.scheduleTick()
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("portgraph watch"))
	b.WriteString(" " + treeDimStyle.Render(m.device))
	b.WriteString("\n")
	b.WriteString(treeDimStyle.Render("r refresh  q quit"))
	b.WriteString("\n\n")

	snap := m.monitor.Current()
	tracked := make(map[string]bool)
	for _, name := range m.monitor.TrackedPorts() {
		tracked[name] = true
	}

	for _, line := range portTree(snap, tracked) {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	status := fmt.Sprintf("%d ports · %d edges · refresh #%d", snap.PortCount(), snap.EdgeCount(), m.refreshes)
	if !m.lastRefresh.IsZero() {
		status += " at " + m.lastRefresh.Format("15:04:05")
	}
	b.WriteString(treeDimStyle.Render(status))
	b.WriteString("\n")
	if m.lastErr != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + m.lastErr.Error())
		b.WriteString("\n")
	}

	if len(m.log) > 0 {
		b.WriteString("\n")
		for _, line := range m.log {
			b.WriteString("  " + line)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// portTree renders the topology as an indented tree rooted at the
// source ports. Ports reachable from multiple parents appear once under
// the first parent visited; disconnected ports are listed at the end.
func portTree(snap topo.Snapshot, tracked map[string]bool) []string {
	children := make(map[string][]string)
	for _, e := range snap.Edges() {
		if e.Src == e.Dest {
			continue
		}
		children[e.Src] = append(children[e.Src], e.Dest)
	}
	for _, kids := range children {
		sort.Strings(kids)
	}

	var lines []string
	seen := make(map[string]bool)

	var walk func(name string, depth int)
	walk = func(name string, depth int) {
		if seen[name] {
			return
		}
		seen[name] = true

		indent := strings.Repeat("  ", depth)
		label := treePortStyle.Render(name)
		if depth == 0 {
			label = treeSourceStyle.Render(name)
		}
		if tracked[name] {
			label += " " + treeTrackedStyle.Render("●")
		}
		lines = append(lines, indent+label)

		for _, kid := range children[name] {
			walk(kid, depth+1)
		}
	}

	for _, src := range snap.Sources() {
		walk(src, 0)
	}
	for _, name := range snap.PortNames() {
		if !seen[name] {
			lines = append(lines, treeDimStyle.Render(name))
			seen[name] = true
		}
	}

	return lines
}

// runWatchTUI runs the interactive watch view until quit or ctx cancel.
func (c *CLI) runWatchTUI(ctx context.Context, mon *topo.Monitor, device string, interval time.Duration) error {
	events := &eventLog{}
	mon.Subscribe(events)
	defer mon.Unsubscribe(events)

	model := newWatchModel(mon, events, device, interval)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
