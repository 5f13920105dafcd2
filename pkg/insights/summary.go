// Package insights assembles the progress summary shown on the analytics
// view and in the gamification bar.
package insights

import (
	"context"
	"math"

	"github.com/harrisonrobin/steady/pkg/model"
	"github.com/harrisonrobin/steady/pkg/stats"
	"golang.org/x/sync/errgroup"
)

// Source is the remote half of the summary.
type Source interface {
	CompletionRate(ctx context.Context) (float64, error)
	ByCategory(ctx context.Context) (map[string]int, error)
	ByPriority(ctx context.Context) (map[string]int, error)
	Habits(ctx context.Context) []model.Habit
}

// Counters is the local half.
type Counters interface {
	Pomodoros() int
	Meditation() stats.Meditation
}

type Summary struct {
	CompletionRate     float64          `json:"completion_rate" yaml:"completion_rate"`
	AverageConsistency int              `json:"average_consistency" yaml:"average_consistency"`
	ByCategory         map[string]int   `json:"by_category" yaml:"by_category"`
	ByPriority         map[string]int   `json:"by_priority" yaml:"by_priority"`
	Habits             []model.Habit    `json:"habits" yaml:"habits"`
	Pomodoros          int              `json:"pomodoros" yaml:"pomodoros"`
	Meditation         stats.Meditation `json:"meditation" yaml:"meditation"`
}

// Gather queries src concurrently and merges in the local counters, which
// may be nil.
func Gather(ctx context.Context, src Source, counters Counters) (*Summary, error) {
	var s Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rate, err := src.CompletionRate(ctx)
		if err != nil {
			return err
		}
		s.CompletionRate = ClampRate(rate)
		return nil
	})
	g.Go(func() error {
		byCategory, err := src.ByCategory(ctx)
		s.ByCategory = byCategory
		return err
	})
	g.Go(func() error {
		byPriority, err := src.ByPriority(ctx)
		s.ByPriority = byPriority
		return err
	})
	g.Go(func() error {
		s.Habits = src.Habits(ctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.Habits == nil {
		s.Habits = []model.Habit{}
	}
	s.AverageConsistency = AverageConsistency(s.Habits)
	if counters != nil {
		s.Pomodoros = counters.Pomodoros()
		s.Meditation = counters.Meditation()
	}
	return &s, nil
}

// ClampRate bounds a completion percentage to [0, 100].
func ClampRate(rate float64) float64 {
	if math.IsNaN(rate) {
		return 0
	}
	return math.Min(100, math.Max(0, rate))
}

// AverageConsistency is the rounded mean consistency score, 0 without
// habits.
func AverageConsistency(habits []model.Habit) int {
	if len(habits) == 0 {
		return 0
	}
	var sum float64
	for _, h := range habits {
		sum += h.ConsistencyScore
	}
	return int(math.Round(sum / float64(len(habits))))
}
