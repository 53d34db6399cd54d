package models

// PlaceholderPoster is rendered whenever TMDB has no poster for a title
// or the lookup failed entirely.
const PlaceholderPoster = "https://placehold.co/300x450?text=No+Poster&font=roboto"

// Movie is the canonical enriched record for a single title. It is built
// once by the metadata resolver and never mutated afterwards. Nullable
// fields use pointers so JSON renders them as null rather than zero values.
type Movie struct {
	Title    string   `json:"title"`
	Poster   string   `json:"poster"`
	Rating   *float64 `json:"rating"`  // 0-10 vote average, nil when unknown
	Year     *string  `json:"year"`    // release year, e.g. "2010"
	Country  *string  `json:"country"` // ISO-3166-1 alpha-2, first production country
	Genres   []string `json:"genres"`
	Overview string   `json:"overview"`
}

// PlaceholderMovie returns the degraded record used when resolution fails.
func PlaceholderMovie(title string) Movie {
	return Movie{
		Title:  title,
		Poster: PlaceholderPoster,
		Genres: []string{},
	}
}

// Genre is a TMDB genre id/name pair, used to populate the filter options.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Country is a TMDB country entry, used to populate the filter options.
type Country struct {
	Code string `json:"code"` // ISO-3166-1 alpha-2
	Name string `json:"name"`
}

// Filter holds the advanced filter selections. All fields are optional;
// empty string means "any". Rating is the minimum vote average.
type Filter struct {
	Genre   string `json:"genre"`
	Year    string `json:"year"`
	Country string `json:"country"`
	Rating  string `json:"rating"`
}

// IsZero reports whether no filter field is set.
func (f Filter) IsZero() bool {
	return f.Genre == "" && f.Year == "" && f.Country == "" && f.Rating == ""
}
