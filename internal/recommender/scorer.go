package recommender

import (
	"fmt"
	"sort"

	"github.com/reelpick/reelpick/internal/catalog"
)

// Feature weights. They sum to 1.0 so a total score stays in [0,1].
const (
	weightGenre    = 0.40
	weightDirector = 0.25
	weightCast     = 0.20
	weightDecade   = 0.15
)

// maxSeeds bounds how many watched records feed one seed profile.
const maxSeeds = 5

// SeedProfile is the merged signature of up to maxSeeds watched records.
// It is derived per request and never stored.
type SeedProfile struct {
	Genres    map[string]bool
	Directors map[string]bool
	Cast      map[string]bool
	Decade    int // 0 when no seed had a decade
}

// ScoreBreakdown holds the per-feature similarity of one candidate
// against a seed profile. Every component is in [0,1].
type ScoreBreakdown struct {
	Genre    float64
	Director float64
	Cast     float64
	Decade   float64
}

// Total is the weighted sum of the components.
func (b ScoreBreakdown) Total() float64 {
	return b.Genre*weightGenre +
		b.Director*weightDirector +
		b.Cast*weightCast +
		b.Decade*weightDecade
}

// Explanations renders one line per strictly-positive component, in fixed
// component order. An all-zero breakdown yields nothing; substituting a
// generic line for that case is the recommender's call, not the scorer's.
func (b ScoreBreakdown) Explanations() []string {
	var parts []string
	if b.Genre > 0 {
		parts = append(parts, fmt.Sprintf("Genre match: %.0f%%", b.Genre*100))
	}
	if b.Director > 0 {
		parts = append(parts, "Shared director")
	}
	if b.Cast > 0 {
		parts = append(parts, fmt.Sprintf("Cast overlap: %.0f%%", b.Cast*100))
	}
	if b.Decade > 0 {
		parts = append(parts, fmt.Sprintf("Era similarity: %.0f%%", b.Decade*100))
	}
	return parts
}

// ScoreGenre rewards candidates that cover the seed's genre footprint:
// the intersection is normalized by the seed set size, not the
// candidate's.
func ScoreGenre(candidate []string, seed map[string]bool) float64 {
	if len(seed) == 0 {
		return 0
	}
	return float64(overlap(candidate, seed)) / float64(len(seed))
}

// ScoreDirector is binary: any shared primary creator is a strong signal
// on its own.
func ScoreDirector(candidate []string, seed map[string]bool) float64 {
	if len(seed) == 0 {
		return 0
	}
	if overlap(candidate, seed) > 0 {
		return 1
	}
	return 0
}

// ScoreCast normalizes the overlap by the smaller of the two sets so a
// candidate with a short cast list is not penalized for it.
func ScoreCast(candidate []string, seed map[string]bool) float64 {
	if len(candidate) == 0 || len(seed) == 0 {
		return 0
	}
	smaller := len(candidate)
	if len(seed) < smaller {
		smaller = len(seed)
	}
	return float64(overlap(candidate, seed)) / float64(smaller)
}

// ScoreDecade decays linearly with the number of decades between
// candidate and seed, reaching zero at three decades apart. Zero decade
// values mean "unknown" and score zero.
func ScoreDecade(candidate, seed int) float64 {
	if candidate == 0 || seed == 0 {
		return 0
	}
	diff := candidate - seed
	if diff < 0 {
		diff = -diff
	}
	apart := diff / 10
	if apart >= 3 {
		return 0
	}
	return 1 - float64(apart)/3
}

// BuildSeedProfile unions the seeds' tag sets and takes the median of
// their known decades. Seed order does not affect the result.
func BuildSeedProfile(seeds []*catalog.Record) SeedProfile {
	profile := SeedProfile{
		Genres:    make(map[string]bool),
		Directors: make(map[string]bool),
		Cast:      make(map[string]bool),
	}
	var decades []int
	for _, s := range seeds {
		for _, g := range s.Genres {
			profile.Genres[g] = true
		}
		for _, d := range s.Directors {
			profile.Directors[d] = true
		}
		for _, c := range s.Cast {
			profile.Cast[c] = true
		}
		if s.Decade != 0 {
			decades = append(decades, s.Decade)
		}
	}
	profile.Decade = median(decades)
	return profile
}

// Score computes the full breakdown for one candidate against a profile.
// It is pure: identical inputs always produce identical output.
func Score(candidate *catalog.Record, profile SeedProfile) ScoreBreakdown {
	return ScoreBreakdown{
		Genre:    ScoreGenre(candidate.Genres, profile.Genres),
		Director: ScoreDirector(candidate.Directors, profile.Directors),
		Cast:     ScoreCast(candidate.Cast, profile.Cast),
		Decade:   ScoreDecade(candidate.Decade, profile.Decade),
	}
}

func overlap(candidate []string, seed map[string]bool) int {
	n := 0
	for _, c := range candidate {
		if seed[c] {
			n++
		}
	}
	return n
}

// median returns 0 for an empty slice. For an even count it averages the
// two middle values; decades are multiples of ten, so the division is
// exact to the year.
func median(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
