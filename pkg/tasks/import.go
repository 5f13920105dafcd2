package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harrisonrobin/steady/pkg/model"
)

// ImportReport counts the outcome of an Import run.
type ImportReport struct {
	Added   int `json:"added" yaml:"added"`
	Skipped int `json:"skipped" yaml:"skipped"`
	Failed  int `json:"failed" yaml:"failed"`
}

// Import adds drafts one after another through the optimistic path. A draft
// whose title matches a cached task, or an earlier draft, ignoring case, is
// skipped. Failures are collected and the run carries on unless ctx ends.
func (c *Coordinator) Import(ctx context.Context, drafts []model.Draft) (ImportReport, error) {
	var report ImportReport
	current, _ := c.cache.Get(c.key)
	seen := make(map[string]bool, len(current)+len(drafts))
	for _, t := range current {
		seen[titleKey(t.Title)] = true
	}

	var errs []error
	for _, d := range drafts {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		key := titleKey(d.Title)
		if key == "" || seen[key] {
			report.Skipped++
			continue
		}
		seen[key] = true
		if err := c.Add(ctx, d); err != nil {
			report.Failed++
			errs = append(errs, fmt.Errorf("import %q: %w", d.Title, err))
			continue
		}
		report.Added++
	}
	c.log.WithField("added", report.Added).WithField("skipped", report.Skipped).
		WithField("failed", report.Failed).Info("import finished")
	return report, errors.Join(errs...)
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
