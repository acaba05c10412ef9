// Package compat computes music-taste compatibility between two users.
//
// The score is a pure, deterministic function of the two preference sets:
// no store access, no randomness. Everything downstream (discovery ranking,
// match detail views) uses the same 0–1 unit.
package compat

import (
	"sort"
	"strings"

	"github.com/oggyb/ecstasy/internal/db"
)

// Weights of the two sub-scores. Artists are a stronger taste signal than
// broad genres, so they dominate the combination.
const (
	artistWeight    = 0.7
	genreWeight     = 0.3
	exactMatchBonus = 0.1
)

// Preferences is a user's taste split into the two kinds the scorer compares.
type Preferences struct {
	Genres  []string
	Artists []string
}

// FromItems partitions stored preference rows into a Preferences value.
func FromItems(items []db.PreferenceItem) Preferences {
	var p Preferences
	for _, item := range items {
		switch item.Kind {
		case db.PreferenceGenre:
			p.Genres = append(p.Genres, item.Label)
		case db.PreferenceArtist:
			p.Artists = append(p.Artists, item.Label)
		}
	}
	return p
}

// Breakdown carries the final score plus the parts the UI displays.
type Breakdown struct {
	Score         float64
	GenreScore    float64
	ArtistScore   float64
	CommonGenres  []string
	CommonArtists []string
}

// Score returns only the combined 0–1 compatibility value.
func Score(a, b Preferences) float64 {
	return Compare(a, b).Score
}

// Compare scores two preference sets.
//
// Sub-scores use the symmetric denominator |common| / max(|A|, |B|); an empty
// intersection yields 0, so empty sets on either side never divide by zero.
// Combined: 0.7*artist + 0.3*genre, +0.1 when at least one artist is shared,
// clamped to [0, 1].
func Compare(a, b Preferences) Breakdown {
	genresA, genresB := toSet(a.Genres), toSet(b.Genres)
	artistsA, artistsB := toSet(a.Artists), toSet(b.Artists)

	commonGenres := intersect(genresA, genresB)
	commonArtists := intersect(artistsA, artistsB)

	genreScore := subScore(len(commonGenres), len(genresA), len(genresB))
	artistScore := subScore(len(commonArtists), len(artistsA), len(artistsB))

	score := artistScore*artistWeight + genreScore*genreWeight
	if len(commonArtists) > 0 {
		score += exactMatchBonus
	}
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}

	return Breakdown{
		Score:         score,
		GenreScore:    genreScore,
		ArtistScore:   artistScore,
		CommonGenres:  commonGenres,
		CommonArtists: commonArtists,
	}
}

func subScore(common, sizeA, sizeB int) float64 {
	if common == 0 {
		return 0
	}
	denom := sizeA
	if sizeB > denom {
		denom = sizeB
	}
	if denom < 1 {
		denom = 1
	}
	return float64(common) / float64(denom)
}

// toSet lower-cases and dedupes labels; comparison is case-insensitive.
func toSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		label = strings.ToLower(strings.TrimSpace(label))
		if label != "" {
			set[label] = struct{}{}
		}
	}
	return set
}

func intersect(a, b map[string]struct{}) []string {
	var common []string
	for label := range a {
		if _, ok := b[label]; ok {
			common = append(common, label)
		}
	}
	sort.Strings(common) // deterministic output for callers and tests
	return common
}
