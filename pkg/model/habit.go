package model

// Habit is the habit-tracking projection of a recurring task.
type Habit struct {
	ID               int64   `json:"id" yaml:"id"`
	Title            string  `json:"task" yaml:"task"`
	ConsistencyScore float64 `json:"consistency_score" yaml:"consistency_score"`
	LastCompleted    Date    `json:"last_completed" yaml:"last_completed"`
	Status           Status  `json:"status" yaml:"status"`
}

// Habits projects the recurring tasks out of tasks.
func Habits(tasks []Task) []Habit {
	habits := make([]Habit, 0)
	for _, t := range tasks {
		if !t.Recurring {
			continue
		}
		habits = append(habits, Habit{
			ID:               t.ID,
			Title:            t.Title,
			ConsistencyScore: t.ConsistencyScore,
			LastCompleted:    t.LastCompleted,
			Status:           t.Status,
		})
	}
	return habits
}
