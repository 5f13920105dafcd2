// Package orgmode reads TODO headlines out of Org files for import.
package orgmode

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/harrisonrobin/steady/pkg/model"
)

var (
	headlineRegex = regexp.MustCompile(`^\*+\s+(TODO|DONE)\s+(?:\[#([A-Z])\]\s*)?(.*?)(?:\s+(:[\w@:]+:))?\s*$`)
	deadlineRegex = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2})[^>]*>`)
	repeaterRegex = regexp.MustCompile(`(?:SCHEDULED|DEADLINE):\s+<[^>]*\s[.+]?\+\d+[dwmy]>`)
)

// ParseFiles reads every file in turn.
func ParseFiles(filePaths []string) ([]model.Draft, error) {
	var all []model.Draft
	for _, filePath := range filePaths {
		f, err := os.Open(filePath)
		if err != nil {
			return nil, err
		}
		drafts, err := Parse(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		all = append(all, drafts...)
	}
	return all, nil
}

// Parse turns TODO and DONE headlines into drafts. Priority cookies map A to
// High, B to Medium and C to Low; the first tag becomes the category; a
// repeater on the deadline or schedule marks a habit.
func Parse(r io.Reader) ([]model.Draft, error) {
	scanner := bufio.NewScanner(r)
	var drafts []model.Draft
	var current *model.Draft

	flush := func() {
		if current != nil && current.Title != "" {
			drafts = append(drafts, current.WithDefaults())
		}
		current = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "*") {
			flush()
			m := headlineRegex.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			current = &model.Draft{Title: strings.TrimSpace(m[3]), Status: model.StatusPending}
			if m[1] == "DONE" {
				current.Status = model.StatusCompleted
			}
			switch m[2] {
			case "A":
				current.Priority = model.PriorityHigh
			case "B":
				current.Priority = model.PriorityMedium
			case "C":
				current.Priority = model.PriorityLow
			}
			if tags := strings.Split(strings.Trim(m[4], ":"), ":"); tags[0] != "" {
				current.Category = tags[0]
			}
			continue
		}
		if current == nil {
			continue
		}

		if m := deadlineRegex.FindStringSubmatch(line); m != nil {
			if d, err := model.ParseDate(m[1]); err == nil {
				current.Deadline = d
			}
		}
		if repeaterRegex.MatchString(line) {
			current.Recurring = true
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return drafts, nil
}
