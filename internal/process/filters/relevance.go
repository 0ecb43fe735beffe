// Package filters decides which articles move forward: the relevance test
// applied during ingestion and the language, completeness and duplicate
// filter applied to the raw dataset.
package filters

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	pipelineerrors "github.com/lueurxax/news-impact-pipeline/internal/core/errors"
)

// Mode selects how query words are matched against article keywords.
type Mode string

const (
	// ModeSubset requires every query word among the keywords.
	ModeSubset Mode = "subset"
	// ModeIntersect requires at least one query word among the keywords.
	ModeIntersect Mode = "intersect"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSubset, "":
		return ModeSubset, nil
	case ModeIntersect:
		return ModeIntersect, nil
	default:
		return "", fmt.Errorf("%w: relevance mode %q", pipelineerrors.ErrInvalidInput, s)
	}
}

// Relevance tests article keywords against a query.
type Relevance struct {
	query []string
	mode  Mode
	fold  cases.Caser
}

// NewRelevance builds a relevance test. Query words are trimmed and empty
// ones dropped.
func NewRelevance(query []string, mode Mode) *Relevance {
	r := &Relevance{mode: mode, fold: cases.Fold()}

	for _, q := range query {
		if q = strings.TrimSpace(q); q != "" {
			r.query = append(r.query, r.fold.String(q))
		}
	}

	return r
}

// Match reports whether keywords satisfy the query. An empty query matches
// everything in subset mode and nothing in intersect mode.
func (r *Relevance) Match(keywords []string) bool {
	set := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		set[r.fold.String(strings.TrimSpace(kw))] = struct{}{}
	}

	if r.mode == ModeIntersect {
		for _, q := range r.query {
			if _, ok := set[q]; ok {
				return true
			}
		}

		return false
	}

	for _, q := range r.query {
		if _, ok := set[q]; !ok {
			return false
		}
	}

	return true
}

// Query returns the normalized query words.
func (r *Relevance) Query() []string {
	return r.query
}
