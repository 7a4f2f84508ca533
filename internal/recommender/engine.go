package recommender

import (
	"sort"

	"github.com/reelpick/reelpick/internal/catalog"
)

// Defaults applied when a caller passes a non-positive count.
const (
	DefaultLimit     = 10
	DefaultSeedCount = maxSeeds
)

// FallbackExplanation is the single line attached to fallback-ranked
// recommendations.
const FallbackExplanation = "Top rated in library"

// Recommendation pairs a record with its score and the reasons it
// ranked. In the ranked path Score is the breakdown total; in the
// fallback path it is the rating value the sort used, with an all-zero
// breakdown. That asymmetry is deliberate: fallback picks still need a
// number to display.
type Recommendation struct {
	Record      *catalog.Record
	Score       float64
	Breakdown   ScoreBreakdown
	Explanation []string
}

// Recommender ranks catalog records against a user's watch signal. It
// holds no state beyond the index snapshot it was given, so one instance
// per request is cheap and concurrent use across instances is safe.
type Recommender struct {
	index *catalog.Index
}

func New(index *catalog.Index) *Recommender {
	return &Recommender{index: index}
}

// FromHistory recommends up to n unwatched records scored against a
// profile of the seedCount most recently watched items. With no usable
// seeds, or when ranking produces nothing, it degrades to the top-rated
// fallback over the whole catalog. It never fails: no signal means an
// empty or fallback result, not an error.
func (r *Recommender) FromHistory(n, seedCount int) []Recommendation {
	if n <= 0 {
		n = DefaultLimit
	}
	if seedCount <= 0 {
		seedCount = DefaultSeedCount
	}

	var seeds []*catalog.Record
	for _, key := range r.index.WatchedOrder {
		rec, ok := r.index.Records[key]
		if !ok {
			continue
		}
		seeds = append(seeds, rec)
		if len(seeds) == seedCount {
			break
		}
	}
	if len(seeds) == 0 {
		return r.fallbackTopRated(n, nil)
	}

	profile := BuildSeedProfile(seeds)

	// Exclude everything the history ever mentioned, even keys that no
	// longer resolve to a record.
	watched := make(map[string]bool, len(r.index.WatchedOrder))
	for _, key := range r.index.WatchedOrder {
		watched[key] = true
	}
	var pool []string
	for _, key := range r.index.Keys() {
		if !watched[key] {
			pool = append(pool, key)
		}
	}

	recs := r.rank(pool, profile, n)
	if len(recs) == 0 {
		return r.fallbackTopRated(n, nil)
	}
	return recs
}

// ByGenre recommends within one genre's pool. The genre is matched
// exactly, then by substring in genre insertion order. Watched items in
// the pool (up to DefaultSeedCount, in pool order) seed the profile; a
// pool with no watched items falls back to top-rated scoped to that
// pool. A nil return means the genre matched nothing.
func (r *Recommender) ByGenre(genre string, n int) []Recommendation {
	if n <= 0 {
		n = DefaultLimit
	}

	pool := r.index.GenrePool(genre)
	if len(pool) == 0 {
		return nil
	}

	var seeds []*catalog.Record
	for _, key := range pool {
		rec, ok := r.index.Records[key]
		if !ok || !rec.Watched {
			continue
		}
		seeds = append(seeds, rec)
		if len(seeds) == maxSeeds {
			break
		}
	}

	if len(seeds) == 0 {
		return r.fallbackTopRated(n, pool)
	}
	return r.rank(pool, BuildSeedProfile(seeds), n)
}

// rank scores every unwatched record in the pool and returns the top n,
// ties kept in pool order via the stable sort.
func (r *Recommender) rank(pool []string, profile SeedProfile, n int) []Recommendation {
	var results []Recommendation
	for _, key := range pool {
		rec, ok := r.index.Records[key]
		if !ok || rec.Watched {
			continue
		}
		bd := Score(rec, profile)
		results = append(results, Recommendation{
			Record:      rec,
			Score:       bd.Total(),
			Breakdown:   bd,
			Explanation: bd.Explanations(),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > n {
		results = results[:n]
	}
	return results
}

// fallbackTopRated ranks unwatched records by audience rating, then
// critic rating, then zero. A nil pool means the whole catalog.
func (r *Recommender) fallbackTopRated(n int, pool []string) []Recommendation {
	if pool == nil {
		pool = r.index.Keys()
	}
	var candidates []*catalog.Record
	for _, key := range pool {
		rec, ok := r.index.Records[key]
		if !ok || rec.Watched {
			continue
		}
		candidates = append(candidates, rec)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return ratingValue(candidates[i]) > ratingValue(candidates[j])
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}

	recs := make([]Recommendation, 0, len(candidates))
	for _, rec := range candidates {
		recs = append(recs, Recommendation{
			Record:      rec,
			Score:       ratingValue(rec),
			Explanation: []string{FallbackExplanation},
		})
	}
	return recs
}

func ratingValue(rec *catalog.Record) float64 {
	if rec.AudienceRating != 0 {
		return rec.AudienceRating
	}
	if rec.Rating != 0 {
		return rec.Rating
	}
	return 0
}
