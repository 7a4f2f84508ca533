package api

import (
	"fmt"
	"sort"

	"github.com/reelpick/reelpick/internal/recommender"
)

const (
	summaryLimit = 300
	topCastSize  = 3
)

// Card is one recommendation rendered for display. Field formatting
// (year in the title, preferred rating, truncated summary) lives here so
// the core keeps handing out raw values.
type Card struct {
	Rank           int      `json:"rank"`
	Title          string   `json:"title"`
	Rating         string   `json:"rating,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	Directors      []string `json:"directors,omitempty"`
	TopCast        []string `json:"top_cast,omitempty"`
	Summary        string   `json:"summary,omitempty"`
	WhyRecommended []string `json:"why_recommended,omitempty"`
	ArtworkURL     string   `json:"artwork_url,omitempty"`
	Score          string   `json:"score"`
}

func buildCards(recs []recommender.Recommendation) []Card {
	cards := make([]Card, 0, len(recs))
	for i, rec := range recs {
		cards = append(cards, buildCard(rec, i+1))
	}
	return cards
}

func buildCard(rec recommender.Recommendation, rank int) Card {
	m := rec.Record

	title := fmt.Sprintf("%d. %s", rank, m.Title)
	if m.Year != 0 {
		title = fmt.Sprintf("%s (%d)", title, m.Year)
	}

	var rating string
	if m.AudienceRating != 0 {
		rating = fmt.Sprintf("%.1f/10", m.AudienceRating)
	} else if m.Rating != 0 {
		rating = fmt.Sprintf("%.1f/10", m.Rating)
	}

	genres := append([]string(nil), m.Genres...)
	sort.Strings(genres)

	directors := append([]string(nil), m.Directors...)
	sort.Strings(directors)

	topCast := m.Cast
	if len(topCast) > topCastSize {
		topCast = topCast[:topCastSize]
	}

	return Card{
		Rank:           rank,
		Title:          title,
		Rating:         rating,
		Genres:         genres,
		Directors:      directors,
		TopCast:        topCast,
		Summary:        truncate(m.Summary, summaryLimit),
		WhyRecommended: rec.Explanation,
		ArtworkURL:     m.ArtworkURL,
		Score:          fmt.Sprintf("%.2f", rec.Score),
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
