package focus

import (
	"errors"
	"fmt"
	"time"

	"github.com/harrisonrobin/steady/pkg/model"
)

var (
	ErrNoTask          = errors.New("choose a pending task to focus on")
	ErrInvalidDuration = errors.New("duration must be at least one minute")
)

// PomodoroPresets are the offered focus lengths, in minutes.
var PomodoroPresets = []int{25, 50, 5, 15}

// MeditationPresets are the offered meditation lengths, in minutes.
var MeditationPresets = []int{1, 3, 5}

const (
	DefaultPomodoroMinutes   = 25
	DefaultMeditationMinutes = 3
	breathHalfCycle          = 3 * time.Second
)

// Recorder receives finished sessions. *stats.Store implements it.
type Recorder interface {
	AddPomodoro(n int)
	AddMeditationSession(minutes int)
}

// Pomodoro is a focus run attached to one task.
type Pomodoro struct {
	*Timer
	Task      model.Task
	StartedAt time.Time
}

// NewPomodoro prepares a focus run on task. The task must exist and still
// be pending. Finishing the run records one pomodoro.
func NewPomodoro(task model.Task, minutes int, rec Recorder) (*Pomodoro, error) {
	if task.ID == 0 || task.Status == model.StatusCompleted {
		return nil, ErrNoTask
	}
	if minutes < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDuration, minutes)
	}
	p := &Pomodoro{Task: task, StartedAt: time.Now()}
	p.Timer = NewTimer(time.Duration(minutes)*time.Minute, func() {
		if rec != nil {
			rec.AddPomodoro(1)
		}
	})
	return p, nil
}

// NewMeditation prepares a meditation of minutes. Finishing it records a
// session of that length.
func NewMeditation(minutes int, rec Recorder) (*Timer, error) {
	if minutes < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDuration, minutes)
	}
	return NewTimer(time.Duration(minutes)*time.Minute, func() {
		if rec != nil {
			rec.AddMeditationSession(minutes)
		}
	}), nil
}

// BreathPhase is the breathing cue for a meditation that has run for
// elapsed: three seconds in, three seconds out.
func BreathPhase(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}
	if (elapsed/breathHalfCycle)%2 == 0 {
		return "Breathe in"
	}
	return "Breathe out"
}
