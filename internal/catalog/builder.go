package catalog

import (
	"context"
	"fmt"
)

// Source is the boundary to an external media catalog. Both calls behind
// a section lookup may be slow network operations; the builder treats
// them as opaque and leaves cancellation to the caller's context.
type Source interface {
	// Section resolves a library section name to its key.
	Section(ctx context.Context, name string) (string, error)

	// Items lists every item in a section.
	Items(ctx context.Context, sectionKey string) ([]Item, error)

	// History lists the watch-history feed for a section, newest first.
	History(ctx context.Context, sectionKey string) ([]HistoryEntry, error)
}

// FetchError reports that the catalog or history fetch failed, or that
// the named section does not exist. The index is never partially
// populated on failure.
type FetchError struct {
	Section string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("catalog fetch for section %q: %v", e.Section, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// BuildMovieIndex fetches a flat (movie) section plus its history and
// returns the snapshot index.
func BuildMovieIndex(ctx context.Context, src Source, section string) (*Index, error) {
	return build(ctx, src, section, true, func(h HistoryEntry) string {
		return h.RatingKey
	})
}

// BuildSeriesIndex is the hierarchical variant: history rows report
// episodes, so each row is translated to its top-level series key before
// deduplication. Rows with no parent key are skipped.
func BuildSeriesIndex(ctx context.Context, src Source, section string) (*Index, error) {
	return build(ctx, src, section, false, func(h HistoryEntry) string {
		return h.ParentKey
	})
}

func build(ctx context.Context, src Source, section string, flat bool, historyKey func(HistoryEntry) string) (*Index, error) {
	sectionKey, err := src.Section(ctx, section)
	if err != nil {
		return nil, &FetchError{Section: section, Err: err}
	}

	items, err := src.Items(ctx, sectionKey)
	if err != nil {
		return nil, &FetchError{Section: section, Err: err}
	}

	history, err := src.History(ctx, sectionKey)
	if err != nil {
		return nil, &FetchError{Section: section, Err: err}
	}

	// History is newest-first; keep the first occurrence of each key so
	// WatchedOrder ends up de-duplicated in recency order.
	seen := make(map[string]bool)
	var watchedOrder []string
	for _, h := range history {
		key := historyKey(h)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		watchedOrder = append(watchedOrder, key)
	}

	ix := &Index{
		Records:      make(map[string]*Record, len(items)),
		WatchedOrder: watchedOrder,
		GenreIndex:   make(map[string][]string),
	}
	for _, item := range items {
		ix.add(newRecord(item, seen, flat))
	}
	return ix, nil
}
