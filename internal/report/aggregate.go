// Package report turns a flat outcome list into the grouped,
// severity-annotated, paginated structure the render layer shows.
// Aggregation is a pure function of its inputs: no locking, no state
// between calls.
package report

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"valfront/internal/status"
)

// DefaultPageSize is the number of groups per report page
const DefaultPageSize = 10

// Report holds the ordered group list produced by Aggregate
type Report struct {
	groups   []Group
	pageSize int
}

// Aggregate filters, groups, orders and annotates the outcome records.
// Malformed input degrades instead of failing: nil records produce an
// empty report, and a missing count key is treated as "exactly equal to
// the delivered rows" so no truncation banner appears.
func Aggregate(records []OutcomeRecord, counts map[string]int, opts Options) *Report {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	filtered := make([]OutcomeRecord, 0, len(records))
	for _, r := range records {
		if !opts.IncludeAll && r.Severity <= status.SeverityPassed {
			continue
		}
		filtered = append(filtered, r)
	}

	if opts.Dedup {
		filtered = dedupe(filtered)
	}

	// Partition by title, preserving discovery order
	index := make(map[string]int)
	var groups []Group
	for _, r := range filtered {
		key := groupTitle(r)
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, Group{Title: key})
		}
		g := &groups[gi]
		g.Records = append(g.Records, r)
		if r.Severity > g.Severity {
			g.Severity = r.Severity
		}
	}

	// Deterministic title order so the same input always yields the
	// same page contents
	coll := collate.New(language.Und)
	sort.SliceStable(groups, func(i, j int) bool {
		return coll.CompareString(groups[i].Title, groups[j].Title) < 0
	})

	for i := range groups {
		g := &groups[i]
		g.Delivered = len(g.Records)

		total, ok := 0, false
		if counts != nil {
			total, ok = counts[g.Title]
		}
		if !ok || total < g.Delivered {
			total = g.Delivered
		}
		g.Total = total

		if g.Delivered < g.Total {
			g.Partial = true
			g.Note = fmt.Sprintf("only the first %d of %d occurrences are shown", g.Delivered, g.Total)
		}
	}

	return &Report{groups: groups, pageSize: pageSize}
}

// groupTitle returns the grouping key for a record: the title when set,
// the feature for feature-only records, and a fixed bucket otherwise
func groupTitle(r OutcomeRecord) string {
	if r.Title != "" {
		return r.Title
	}
	if r.Feature != "" {
		return r.Feature
	}
	return "Uncategorized"
}

type dedupeKey struct {
	hasInstance bool
	instance    int64
	title       string
	severity    status.Severity
}

// dedupe removes records sharing an identical (instance, title, severity)
// key. Stable and order-preserving: the first delivery occurrence wins.
func dedupe(records []OutcomeRecord) []OutcomeRecord {
	seen := make(map[dedupeKey]bool, len(records))
	out := make([]OutcomeRecord, 0, len(records))

	for _, r := range records {
		key := dedupeKey{title: groupTitle(r), severity: r.Severity}
		if r.InstanceID != nil {
			key.hasInstance = true
			key.instance = *r.InstanceID
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// TotalGroups returns the number of groups across all pages
func (r *Report) TotalGroups() int {
	return len(r.groups)
}

// PageCount returns ceil(groupCount / pageSize)
func (r *Report) PageCount() int {
	return (len(r.groups) + r.pageSize - 1) / r.pageSize
}

// Groups returns the full ordered group list
func (r *Report) Groups() []Group {
	return r.groups
}

// Group looks up one group by title
func (r *Report) Group(title string) (Group, bool) {
	for _, g := range r.groups {
		if g.Title == title {
			return g, true
		}
	}
	return Group{}, false
}

// GetPage slices the ordered group list. A page beyond the last valid
// page yields an empty group list, not an error.
func (r *Report) GetPage(page int) Page {
	p := Page{
		Groups:      []Group{},
		TotalGroups: len(r.groups),
		Page:        page,
		PageCount:   r.PageCount(),
	}
	if page < 0 {
		return p
	}

	start := page * r.pageSize
	if start >= len(r.groups) {
		return p
	}
	end := start + r.pageSize
	if end > len(r.groups) {
		end = len(r.groups)
	}
	p.Groups = r.groups[start:end]
	return p
}
