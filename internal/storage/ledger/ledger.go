// Package ledger records every URL the pipeline has discovered so repeated
// runs enqueue each URL at most once. URLs are compared by exact string.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/lueurxax/news-impact-pipeline/internal/storage/dataset"
)

// Ledger is an append-only set of seen URLs.
type Ledger interface {
	// Contains reports whether url was recorded before.
	Contains(ctx context.Context, url string) (bool, error)
	// Add records urls and returns the ones that were not present, in input order.
	Add(ctx context.Context, urls []string) ([]string, error)
}

var (
	_ Ledger = (*FileLedger)(nil)
	_ Ledger = (*RedisLedger)(nil)
)

// FileLedger keeps the ledger in a CSV file with a single "url" column.
type FileLedger struct {
	path string

	mu   sync.Mutex
	seen map[string]struct{}
}

// OpenFile loads the ledger at path. A missing file is an empty ledger.
func OpenFile(path string) (*FileLedger, error) {
	tbl, err := dataset.Read(path, dataset.ColURL)
	if err != nil {
		return nil, fmt.Errorf("load url ledger: %w", err)
	}

	seen := make(map[string]struct{}, tbl.Len())
	for _, row := range tbl.Rows {
		seen[tbl.Get(row, dataset.ColURL)] = struct{}{}
	}

	return &FileLedger{path: path, seen: seen}, nil
}

// Contains reports whether url is in the ledger.
func (l *FileLedger) Contains(_ context.Context, url string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.seen[url]

	return ok, nil
}

// Add appends unseen urls to the file, one row each.
func (l *FileLedger) Add(_ context.Context, urls []string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var added []string

	for _, u := range urls {
		if _, ok := l.seen[u]; ok {
			continue
		}

		if err := dataset.Append(l.path, dataset.LedgerSchema, []string{u}); err != nil {
			return added, fmt.Errorf("record url: %w", err)
		}

		l.seen[u] = struct{}{}
		added = append(added, u)
	}

	return added, nil
}

// Len returns the number of recorded URLs.
func (l *FileLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.seen)
}
