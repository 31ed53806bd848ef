package report

import (
	"valfront/internal/status"
)

// OutcomeRecord is one rule-check result delivered by the backend.
// Fields other than Title, Feature and Severity may be absent depending
// on the check category; Expected/Observed/Message are display-only and
// never drive grouping or sorting.
type OutcomeRecord struct {
	InstanceID *int64          `json:"instance_id,omitempty"` // absent for file-level checks
	Severity   status.Severity `json:"severity"`
	Title      string          `json:"title"`
	Feature    string          `json:"feature,omitempty"`
	Expected   interface{}     `json:"expected,omitempty"`
	Observed   interface{}     `json:"observed,omitempty"`
	Message    string          `json:"message,omitempty"`
}

// Document is the outcomes payload for one file and category:
// the delivered records plus the total occurrence count per rule title.
// The backend caps how many rows it delivers per rule, so a count may
// exceed the number of records present.
type Document struct {
	Results   []OutcomeRecord  `json:"results"`
	Counts    map[string]int   `json:"counts"`
	Instances InstanceResolver `json:"instances,omitempty"`
}

// Instance is the display identity of a model element
type Instance struct {
	GUID string `json:"guid"`
	Type string `json:"type"`
}

// InstanceResolver maps instance ids to display identities. It is
// supplied by the caller; the aggregator only reads it.
type InstanceResolver map[int64]Instance

// Resolve returns the display (guid, type) pair for an instance id,
// with placeholders for absent or unknown ids
func (r InstanceResolver) Resolve(id *int64) (string, string) {
	if id == nil {
		return "-", "-"
	}
	inst, ok := r[*id]
	if !ok {
		return "?", "?"
	}
	return inst.GUID, inst.Type
}

// Group is the set of outcome records sharing one rule title, the unit
// of display and pagination in the report
type Group struct {
	Title     string          `json:"title"`
	Severity  status.Severity `json:"severity"` // max severity among members
	Records   []OutcomeRecord `json:"records"`
	Delivered int             `json:"delivered"`
	Total     int             `json:"total"`
	Partial   bool            `json:"partial"`
	Note      string          `json:"note,omitempty"`
}

// Page is one rendered slice of the ordered group list
type Page struct {
	Groups      []Group `json:"groups"`
	TotalGroups int     `json:"totalGroups"`
	Page        int     `json:"page"`
	PageCount   int     `json:"pageCount"`
}

// Options controls the aggregation pipeline
type Options struct {
	// IncludeAll keeps passed/not-applicable records; when false only
	// warnings and errors (severity > 2) survive the filter.
	IncludeAll bool
	// Dedup removes records sharing an identical (instance, title,
	// severity) key, keeping the first delivery occurrence.
	Dedup bool
	// PageSize defaults to DefaultPageSize when zero
	PageSize int
}
