package carousel

import (
	"strconv"
	"strings"

	"cinepick/models"
)

const tmdbPosterBase = "https://image.tmdb.org/t/p/w500"

// Normalize converts a loosely-shaped movie record into the canonical
// model. Several historical record schemas are still in circulation
// (title/name, poster/poster_path/image, rating/vote_average,
// year/release_date, country/origin_country) and all of them must open a
// trailer modal; the ambiguity stops here and never reaches presentation
// code.
func Normalize(record map[string]any) models.Movie {
	movie := models.Movie{
		Title:  firstString(record, "title", "name"),
		Poster: normalizePoster(firstString(record, "poster", "poster_path", "image")),
		Genres: stringSlice(record["genres"]),
	}
	if movie.Title == "" {
		movie.Title = "Untitled"
	}

	if rating := firstNumber(record, "rating", "vote_average"); rating > 0 {
		movie.Rating = &rating
	}

	if year := normalizeYear(record); year != "" {
		movie.Year = &year
	}

	if country := normalizeCountry(record); country != "" {
		movie.Country = &country
	}

	movie.Overview = firstString(record, "overview", "description")

	return movie
}

func normalizePoster(poster string) string {
	if poster == "" {
		return models.PlaceholderPoster
	}
	// A bare TMDB path fragment still needs the CDN prefix.
	if strings.HasPrefix(poster, "/") {
		return tmdbPosterBase + poster
	}
	return poster
}

func normalizeYear(record map[string]any) string {
	if year := firstString(record, "year"); year != "" {
		return year
	}
	if date := firstString(record, "release_date"); len(date) >= 4 {
		return date[:4]
	}
	return ""
}

func normalizeCountry(record map[string]any) string {
	if country := firstString(record, "country"); country != "" {
		return country
	}
	// origin_country is either a string or a list of codes.
	switch v := record["origin_country"].(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// firstString returns the first non-empty string among the given keys.
func firstString(record map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := record[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstNumber returns the first parseable number among the given keys.
// Ratings arrive both as numbers and as strings like "8.4".
func firstNumber(record map[string]any, keys ...string) float64 {
	for _, key := range keys {
		switch v := record[key].(type) {
		case float64:
			if v != 0 {
				return v
			}
		case int:
			if v != 0 {
				return float64(v)
			}
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil && f != 0 {
				return f
			}
		}
	}
	return 0
}

// stringSlice coerces a genres value into a string slice, dropping
// anything that is not a string.
func stringSlice(v any) []string {
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}
