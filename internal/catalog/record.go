package catalog

import "strings"

// Record is one normalized catalog item (movie or series). Records are
// built once per index build and never mutated afterwards.
//
// Optional fields use their zero value for "absent": Year and Decade are 0
// when the source reported no year, Rating and AudienceRating are 0 when
// unrated. Genres, Directors and Cast are de-duplicated and keep source
// order; Genres are lower-cased, Cast is capped at the first 10 entries
// the source listed.
type Record struct {
	ID             string
	Title          string
	Year           int
	Decade         int
	Genres         []string
	Directors      []string
	Cast           []string
	Rating         float64
	AudienceRating float64
	Watched        bool
	Summary        string
	ArtworkURL     string
}

// maxCast bounds how many performer tags a record keeps.
const maxCast = 10

// Item is the raw shape a Source yields for one catalog entry. Tag slices
// are in source order; zero values mean the field was absent upstream.
type Item struct {
	RatingKey      string
	Title          string
	Year           int
	Genres         []string
	Directors      []string
	Cast           []string
	Rating         float64
	AudienceRating float64
	Summary        string
	Thumb          string
}

// HistoryEntry is one row of a watch-history feed, newest first. For
// hierarchical catalogs ParentKey carries the top-level (series) key and
// RatingKey the episode that was actually played.
type HistoryEntry struct {
	RatingKey string
	ParentKey string
}

func decadeOf(year int) int {
	if year == 0 {
		return 0
	}
	return (year / 10) * 10
}

// newRecord normalizes one raw item. When flat is false the item is a
// series container and primary-creator tags are dropped (the concept is
// not meaningful at that level).
func newRecord(item Item, watched map[string]bool, flat bool) *Record {
	var directors []string
	if flat {
		directors = dedup(item.Directors)
	}

	cast := item.Cast
	if len(cast) > maxCast {
		cast = cast[:maxCast]
	}

	return &Record{
		ID:             item.RatingKey,
		Title:          item.Title,
		Year:           item.Year,
		Decade:         decadeOf(item.Year),
		Genres:         lowerDedup(item.Genres),
		Directors:      directors,
		Cast:           dedup(cast),
		Rating:         item.Rating,
		AudienceRating: item.AudienceRating,
		Watched:        watched[item.RatingKey],
		Summary:        item.Summary,
		ArtworkURL:     item.Thumb,
	}
}

func dedup(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func lowerDedup(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
