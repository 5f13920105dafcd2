package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/harrisonrobin/steady/pkg/model"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(f string) error {
	switch f {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, json or yaml)", f)
}

// encode writes v as JSON or YAML. It reports false for table output, which
// each command renders itself.
func encode(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(border)).
		Headers(headers...)
}

// taskTable renders tasks with the priority column coloured. today marks
// overdue deadlines.
func taskTable(list []model.Task, today model.Date) string {
	if len(list) == 0 {
		return mutedStyle.Render("No tasks.")
	}
	t := newTable("ID", "TASK", "CATEGORY", "PRIORITY", "DEADLINE", "STATUS", "HABIT")
	for _, task := range list {
		deadline := task.Deadline.String()
		if task.Overdue(today) {
			deadline += " !"
		}
		habit := ""
		if task.Recurring {
			habit = fmt.Sprintf("↻ %.0f%%", task.ConsistencyScore)
		}
		id := strconv.FormatInt(task.ID, 10)
		if task.Temporary() {
			id = "…"
		}
		t.Row(id, task.Title, task.Category, string(task.Priority), deadline, string(task.Status), habit)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if col == 3 && row >= 0 && row < len(list) {
			return priorityStyle(list[row].Priority)
		}
		return cellStyle
	})
	return t.Render()
}

// countTable renders a label→count breakdown, largest first.
func countTable(title string, counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	t := newTable(title, "COUNT")
	for _, k := range keys {
		t.Row(k, strconv.Itoa(counts[k]))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return cellStyle
	})
	return t.Render()
}

func today() model.Date {
	return model.DateOf(time.Now())
}
