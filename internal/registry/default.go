package registry

import "github.com/ogero/stremio-hub/pkg/stremio"

var cinemetaGenres = []string{
	"Action", "Adventure", "Animation", "Biography", "Comedy", "Crime",
	"Documentary", "Drama", "Family", "Fantasy", "History", "Horror",
	"Mystery", "Romance", "Sci-Fi", "Sport", "Thriller", "War", "Western",
}

var cinemetaSeriesGenres = append(append([]string{}, cinemetaGenres...),
	"Reality-TV", "Talk-Show", "Game-Show")

// DefaultAddon is the bundled Cinemeta manifest seeded on first run so a
// fresh install has movie and series catalogs without any setup.
var DefaultAddon = stremio.Manifest{
	ID:          "com.linvo.cinemeta",
	Version:     "3.0.13",
	Name:        "Cinemeta",
	Description: "The official addon for movie and series catalogs",
	Resources:   []string{"catalog", "meta", "addon_catalog"},
	Types:       []string{"movie", "series"},
	IDPrefixes:  []string{"tt"},
	AddonCatalogs: []stremio.CatalogItem{
		{Type: "all", ID: "official", Name: "Official"},
		{Type: "movie", ID: "official", Name: "Official"},
		{Type: "series", ID: "official", Name: "Official"},
		{Type: "channel", ID: "official", Name: "Official"},
		{Type: "all", ID: "community", Name: "Community"},
		{Type: "movie", ID: "community", Name: "Community"},
		{Type: "series", ID: "community", Name: "Community"},
		{Type: "channel", ID: "community", Name: "Community"},
		{Type: "tv", ID: "community", Name: "Community"},
		{Type: "Podcasts", ID: "community", Name: "Community"},
		{Type: "other", ID: "community", Name: "Community"},
	},
	Catalogs: []stremio.CatalogItem{
		{
			Type:   "movie",
			ID:     "top",
			Name:   "Popular",
			Genres: cinemetaGenres,
			Extra: []stremio.CatalogExtra{
				{Name: "genre", Options: cinemetaGenres},
				{Name: "search"},
				{Name: "skip"},
			},
			ExtraSupported: []string{"search", "genre", "skip"},
		},
		{
			Type:   "series",
			ID:     "top",
			Name:   "Popular",
			Genres: cinemetaSeriesGenres,
			Extra: []stremio.CatalogExtra{
				{Name: "genre", Options: cinemetaSeriesGenres},
				{Name: "search"},
				{Name: "skip"},
			},
			ExtraSupported: []string{"search", "genre", "skip"},
		},
	},
	BehaviorHints: map[string]any{
		"newEpisodeNotifications": true,
	},
	URL: "https://v3-cinemeta.strem.io/manifest.json",
}
