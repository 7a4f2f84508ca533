package plex

// Wire types for the Plex Media Server JSON API. Every payload nests
// under a single MediaContainer key; only the fields the service reads
// are mapped.

type sectionsResponse struct {
	MediaContainer struct {
		Directory []Directory `json:"Directory"`
	} `json:"MediaContainer"`
}

type Directory struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type metadataResponse struct {
	MediaContainer struct {
		Metadata []Metadata `json:"Metadata"`
	} `json:"MediaContainer"`
}

type Metadata struct {
	RatingKey            string  `json:"ratingKey"`
	GrandparentRatingKey string  `json:"grandparentRatingKey"`
	Title                string  `json:"title"`
	Year                 int     `json:"year"`
	Rating               float64 `json:"rating"`
	AudienceRating       float64 `json:"audienceRating"`
	Summary              string  `json:"summary"`
	Thumb                string  `json:"thumb"`
	Genre                []Tag   `json:"Genre"`
	Director             []Tag   `json:"Director"`
	Role                 []Tag   `json:"Role"`
}

type Tag struct {
	Tag string `json:"tag"`
}

func tagValues(tags []Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Tag)
	}
	return out
}

// Pin is one PIN-login attempt against plex.tv.
type Pin struct {
	ID        int    `json:"id"`
	Code      string `json:"code"`
	AuthToken string `json:"authToken"`
}

type userResponse struct {
	Username string `json:"username"`
}
