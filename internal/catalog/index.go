package catalog

import "strings"

// Index is a queryable snapshot of one library section. It is built
// wholesale by BuildMovieIndex or BuildSeriesIndex and never updated in
// place; callers that want freshness rebuild and swap the whole thing.
type Index struct {
	// Records maps rating key to record.
	Records map[string]*Record

	// WatchedOrder lists rating keys newest-consumed first, each key at
	// most once. Keys may reference items outside Records (history can
	// outlive the library subset) and must be skipped by consumers.
	WatchedOrder []string

	// GenreIndex maps lower-cased genre to rating keys in record build
	// order.
	GenreIndex map[string][]string

	recordOrder []string
	genreOrder  []string
}

// Keys returns every record's rating key in build order.
func (ix *Index) Keys() []string {
	return ix.recordOrder
}

// Genres returns the known genre keys in the order they were first seen
// during the build. Partial-genre matching depends on this order being
// stable.
func (ix *Index) Genres() []string {
	return ix.genreOrder
}

// GenrePool resolves a genre query to its candidate pool. The query is
// lower-cased and matched exactly first; failing that, the first genre key
// (in insertion order) containing the query as a substring wins. A nil
// return means no genre matched.
func (ix *Index) GenrePool(genre string) []string {
	genre = strings.ToLower(genre)
	if keys, ok := ix.GenreIndex[genre]; ok {
		return keys
	}
	for _, g := range ix.genreOrder {
		if strings.Contains(g, genre) {
			return ix.GenreIndex[g]
		}
	}
	return nil
}

// WatchedCount reports how many records in the index carry the watched
// flag.
func (ix *Index) WatchedCount() int {
	n := 0
	for _, rec := range ix.Records {
		if rec.Watched {
			n++
		}
	}
	return n
}

func (ix *Index) add(rec *Record) {
	ix.Records[rec.ID] = rec
	ix.recordOrder = append(ix.recordOrder, rec.ID)
	for _, g := range rec.Genres {
		if _, ok := ix.GenreIndex[g]; !ok {
			ix.genreOrder = append(ix.genreOrder, g)
		}
		ix.GenreIndex[g] = append(ix.GenreIndex[g], rec.ID)
	}
}
