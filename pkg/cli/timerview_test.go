package cli

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harrisonrobin/steady/pkg/focus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	pomodoros, sessions, minutes int
}

func (r *countingRecorder) AddPomodoro(n int) { r.pomodoros += n }

func (r *countingRecorder) AddMeditationSession(minutes int) {
	r.sessions++
	r.minutes += minutes
}

func step(t *testing.T, m timerModel, msg tea.Msg) (timerModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	tm, ok := next.(timerModel)
	require.True(t, ok)
	return tm, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestTimerViewPauseAndResume(t *testing.T) {
	timer, err := focus.NewMeditation(1, nil)
	require.NoError(t, err)
	m := newTimerModel(timer, "Meditation", "", true)
	m.Init()
	assert.Equal(t, focus.Running, timer.State())

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, focus.Paused, timer.State())
	assert.Contains(t, m.View(), "Paused")

	m, cmd := step(t, m, tickMsg(time.Now()))
	assert.NotNil(t, cmd, "keeps ticking while paused")
	assert.Equal(t, time.Minute, timer.Remaining())

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	assert.Equal(t, focus.Running, timer.State())
	m, _ = step(t, m, tickMsg(time.Now()))
	assert.Equal(t, 59*time.Second, timer.Remaining())
	assert.Contains(t, m.View(), "00:59")
	assert.Contains(t, m.View(), "Breathe in")
}

func TestTimerViewFinishRecords(t *testing.T) {
	rec := &countingRecorder{}
	timer, err := focus.NewMeditation(1, rec)
	require.NoError(t, err)
	m := newTimerModel(timer, "Meditation", "", true)
	m.Init()

	var cmd tea.Cmd
	for i := 0; i < 60; i++ {
		m, cmd = step(t, m, tickMsg(time.Now()))
	}
	assert.True(t, isQuit(cmd))
	assert.Equal(t, focus.Finished, timer.State())
	assert.Equal(t, 1, rec.sessions)
	assert.Equal(t, 1, rec.minutes)
	assert.Contains(t, m.View(), "Done!")
}

func TestTimerViewQuitAbandons(t *testing.T) {
	rec := &countingRecorder{}
	timer, err := focus.NewMeditation(1, rec)
	require.NoError(t, err)
	m := newTimerModel(timer, "Meditation", "", false)
	m.Init()

	m, _ = step(t, m, tickMsg(time.Now()))
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.True(t, isQuit(cmd))
	assert.Equal(t, focus.Idle, timer.State())
	assert.Zero(t, rec.sessions)
	assert.NotContains(t, m.View(), "Breathe")
}

func TestTimerViewRestart(t *testing.T) {
	timer, err := focus.NewMeditation(1, nil)
	require.NoError(t, err)
	m := newTimerModel(timer, "Meditation", "", true)
	m.Init()

	for i := 0; i < 4; i++ {
		m, _ = step(t, m, tickMsg(time.Now()))
	}
	assert.Contains(t, m.View(), "Breathe out")

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.Equal(t, time.Minute, timer.Remaining())
	assert.Equal(t, focus.Running, timer.State())
	assert.Contains(t, m.View(), "Breathe in")
}
