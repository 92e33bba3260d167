package stremio

// ManifestResourceName is the well-known file name a Stremio addon serves its
// manifest under. Every other addon endpoint hangs off the same base URL.
const ManifestResourceName = "manifest.json"

// ResourceStream is the capability tag an addon declares in its manifest
// resources when it serves the stream endpoint.
const ResourceStream = "stream"

// Manifest represents a Stremio addon manifest.
// URL is not part of the fetched JSON; it records the manifest's fetch origin
// and is populated client-side at install time. All subsequent catalog and
// stream queries are built from it.
type Manifest struct {
	ID            string         `json:"id"`
	Version       string         `json:"version"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Resources     []string       `json:"resources"`
	Types         []string       `json:"types"`
	IDPrefixes    []string       `json:"idPrefixes,omitempty"`
	Catalogs      []CatalogItem  `json:"catalogs,omitempty"`
	AddonCatalogs []CatalogItem  `json:"addonCatalogs,omitempty"`
	BehaviorHints map[string]any `json:"behaviorHints,omitempty"`
	URL           string         `json:"url,omitempty"`
}

// HasResource reports whether the manifest declares the given capability tag.
func (m Manifest) HasResource(resource string) bool {
	for _, r := range m.Resources {
		if r == resource {
			return true
		}
	}
	return false
}

// CatalogItem represents a Stremio manifest catalog item. Its ID is unique
// only within the owning addon and type; the composite (addonId, type, id)
// identifies a catalog globally.
type CatalogItem struct {
	Type           string         `json:"type"`
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Genres         []string       `json:"genres,omitempty"`
	Extra          []CatalogExtra `json:"extra,omitempty"`
	ExtraSupported []string       `json:"extraSupported,omitempty"`
	ExtraRequired  []string       `json:"extraRequired,omitempty"`
}

// CatalogExtra declares a query parameter a catalog accepts.
type CatalogExtra struct {
	Name         string   `json:"name"`
	Options      []string `json:"options,omitempty"`
	IsRequired   bool     `json:"isRequired,omitempty"`
	OptionsLimit int      `json:"optionsLimit,omitempty"`
}

// AggregatedCatalog is a CatalogItem annotated at flattening time with the
// addon that owns it.
type AggregatedCatalog struct {
	CatalogItem
	AddonID   string `json:"addonId"`
	AddonName string `json:"addonName"`
}

// ContentItem is the normalized view of a catalog meta entry. It is rebuilt
// on every catalog fetch and never persisted. Videos is an opaque
// passthrough of whatever the addon returned.
type ContentItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Poster      string   `json:"poster,omitempty"`
	Backdrop    string   `json:"backdrop,omitempty"`
	Logo        string   `json:"logo,omitempty"`
	Type        string   `json:"type"`
	Genre       string   `json:"genre,omitempty"`
	Year        string   `json:"year,omitempty"`
	Runtime     string   `json:"runtime,omitempty"`
	Catalogs    []string `json:"catalogs,omitempty"`
	Videos      []any    `json:"videos,omitempty"`
}

// Stream is a playable resource locator returned by a stream-capable addon.
// AddonName and AddonID are resolver-added provenance, not part of the
// addon's response. BehaviorHints is passed through verbatim; the only keys
// this client reads are notWebReady and bingeGroup.
type Stream struct {
	Name          string         `json:"name,omitempty"`
	Title         string         `json:"title,omitempty"`
	URL           string         `json:"url"`
	BehaviorHints map[string]any `json:"behaviorHints,omitempty"`
	AddonName     string         `json:"addonName,omitempty"`
	AddonID       string         `json:"addonId,omitempty"`
}

// NotWebReady reports whether the addon flagged the stream as unplayable in
// a web context.
func (s Stream) NotWebReady() bool {
	if s.BehaviorHints == nil {
		return false
	}
	v, ok := s.BehaviorHints["notWebReady"].(bool)
	return ok && v
}

// CatalogResponse is the envelope of the addon catalog endpoint. Entries are
// kept loosely typed because addons disagree on field names; normalization
// happens at aggregation time.
type CatalogResponse struct {
	Metas []map[string]any `json:"metas"`
}

// StreamsResponse is the envelope of the addon stream endpoint.
type StreamsResponse struct {
	Streams []Stream `json:"streams"`
}
