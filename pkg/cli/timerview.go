package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/harrisonrobin/steady/pkg/focus"
)

const tickInterval = time.Second

type tickMsg time.Time

type timerKeys struct {
	Toggle key.Binding
	Reset  key.Binding
	Quit   key.Binding
}

func (k timerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Reset, k.Quit}
}

func (k timerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultTimerKeys = timerKeys{
	Toggle: key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "pause/resume")),
	Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// timerModel drives a focus.Timer from tick messages. Breathing cues are
// shown for meditations.
type timerModel struct {
	timer     *focus.Timer
	title     string
	subtitle  string
	breathing bool
	elapsed   time.Duration

	keys     timerKeys
	help     help.Model
	progress progress.Model
}

func newTimerModel(timer *focus.Timer, title, subtitle string, breathing bool) timerModel {
	return timerModel{
		timer:     timer,
		title:     title,
		subtitle:  subtitle,
		breathing: breathing,
		keys:      defaultTimerKeys,
		help:      help.New(),
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m timerModel) Init() tea.Cmd {
	m.timer.Start()
	return tick()
}

func (m timerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.timer.Stop()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			m.timer.Toggle()
		case key.Matches(msg, m.keys.Reset):
			m.timer.Start()
			m.elapsed = 0
		}
	case tea.WindowSizeMsg:
		m.progress.Width = min(max(msg.Width-8, 10), 60)
	case tickMsg:
		if m.timer.State() == focus.Running {
			m.elapsed += tickInterval
		}
		if m.timer.Tick(tickInterval) {
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

func (m timerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title) + "\n")
	if m.subtitle != "" {
		b.WriteString(mutedStyle.Render(m.subtitle) + "\n")
	}
	b.WriteString(clockStyle.Render(focus.FormatClock(m.timer.Remaining())) + "\n")
	b.WriteString(m.progress.ViewAs(m.timer.Progress()) + "\n")

	switch state := m.timer.State(); state {
	case focus.Paused:
		b.WriteString(warnStyle.Render("Paused") + "\n")
	case focus.Finished:
		b.WriteString(okStyle.Render("Done!") + "\n")
	case focus.Running:
		if m.breathing {
			b.WriteString(okStyle.Render(focus.BreathPhase(m.elapsed)) + "\n")
		}
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

// runTimer shows the interactive view, or with plain set prints a start and
// finish line only. It reports whether the run finished.
func runTimer(cmd cmdIO, timer *focus.Timer, title, subtitle string, breathing, plain bool) (bool, error) {
	if plain {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", title, focus.FormatClock(timer.Duration()))
		if err := timer.Run(cmd.Context(), tickInterval); err != nil {
			return false, err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Done!"))
		return true, nil
	}

	p := tea.NewProgram(newTimerModel(timer, title, subtitle, breathing),
		tea.WithContext(cmd.Context()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil {
		return false, err
	}
	return timer.State() == focus.Finished, nil
}
