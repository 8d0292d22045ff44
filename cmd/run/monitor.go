package main

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-gl/bridge"
	"github.com/wippyai/wasm-gl/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB")).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	stoppedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#555555")).
			Padding(0, 1)
)

const monitorInterval = 250 * time.Millisecond

type keyMap struct {
	Stop key.Binding
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Stop, k.Quit} }
func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var keys = keyMap{
	Stop: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop guest")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type tickMsg time.Time

// doneMsg reports the end of the run loop.
type doneMsg struct{ err error }

type monitorModel struct {
	sess     *runtime.Session
	cancel   context.CancelFunc
	filename string
	help     help.Model

	state    runtime.State
	stats    bridge.StatsSnapshot
	frames   uint64
	fps      float64
	lastSeen uint64
	lastTick time.Time
	done     bool
	err      error
}

func newMonitorModel(sess *runtime.Session, cancel context.CancelFunc, filename string) *monitorModel {
	return &monitorModel{
		sess:     sess,
		cancel:   cancel,
		filename: filename,
		help:     help.New(),
		lastTick: time.Now(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(monitorInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *monitorModel) Init() tea.Cmd {
	return tick()
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, keys.Stop):
			if err := m.sess.Stop(context.Background()); err != nil {
				m.err = err
			}
			m.refresh(time.Now())
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tickMsg:
		m.refresh(time.Time(msg))
		if m.done {
			return m, nil
		}
		return m, tick()

	case doneMsg:
		m.done = true
		if msg.err != nil {
			m.err = msg.err
		}
		m.refresh(time.Now())
	}
	return m, nil
}

func (m *monitorModel) refresh(now time.Time) {
	m.state = m.sess.State()
	m.frames = m.sess.Frames()
	if m.state != runtime.StateStopped {
		m.stats = m.sess.Stats()
	}
	if dt := now.Sub(m.lastTick).Seconds(); dt > 0 {
		m.fps = float64(m.frames-m.lastSeen) / dt
	}
	m.lastSeen, m.lastTick = m.frames, now
}

func (m *monitorModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("WASM GL Runner"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	state := valueStyle.Render(m.state.String())
	if m.state == runtime.StateStopped {
		state = stoppedStyle.Render(m.state.String())
	}
	rows := []string{
		row("state", state),
		row("frames", valueStyle.Render(fmt.Sprint(m.frames))),
		row("fps", valueStyle.Render(fmt.Sprintf("%.1f", m.fps))),
		row("draw calls", valueStyle.Render(fmt.Sprint(m.stats.DrawCalls))),
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	b.WriteString("\n\n")

	var objects []string
	for _, cat := range slices.Sorted(maps.Keys(m.stats.Created)) {
		objects = append(objects, row(cat,
			valueStyle.Render(fmt.Sprintf("%d live / %d created", m.stats.Live[cat], m.stats.Created[cat]))))
	}
	if len(objects) == 0 {
		objects = append(objects, "no native objects")
	}
	b.WriteString(boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, objects...)))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

// monitor runs the session from a background goroutine while the
// terminal monitor owns the foreground. The session must not need the
// main thread, so this serves headless runs.
func monitor(ctx context.Context, sess *runtime.Session, src runtime.FrameSource, filename string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newMonitorModel(sess, cancel, filename), tea.WithAltScreen(), tea.WithContext(ctx))
	errc := make(chan error, 1)
	go func() {
		err := sess.Run(ctx, src)
		errc <- err
		p.Send(doneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	cancel()
	return <-errc
}

// startMonitor runs the terminal monitor in the background, for runs whose
// session needs the main thread. Call the returned function with the run
// result to close the monitor.
func startMonitor(sess *runtime.Session, cancel context.CancelFunc, filename string) func(error) {
	p := tea.NewProgram(newMonitorModel(sess, cancel, filename), tea.WithAltScreen())
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		p.Run()
	}()
	return func(err error) {
		p.Send(doneMsg{err: err})
		p.Quit()
		<-exited
	}
}
