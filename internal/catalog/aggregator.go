// Package catalog flattens the catalogs declared by installed addons and
// fetches their content listings. Every operation here degrades to an empty
// result on failure: missing content for one catalog is cosmetic, and
// browsing must never hard-fail the UI. Paths that need surfaced errors
// (install, stream resolution) live elsewhere.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ogero/stremio-hub/internal/common"
	"github.com/ogero/stremio-hub/internal/registry"
	"github.com/ogero/stremio-hub/pkg/fetch"
	"github.com/ogero/stremio-hub/pkg/stremio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrAddonNotFound indicates the requested addon is not installed or has no
// usable fetch origin. It is degraded to an empty result before reaching
// callers; it exists so the condition stays testable.
var ErrAddonNotFound = errors.New("addon not found or has no URL")

// Aggregator merges the catalogs of every installed addon into one
// addon-tagged view.
type Aggregator interface {
	// ListCatalogs flattens every installed addon's declared catalogs,
	// tagging each with the owning addon. Addons keep registry order,
	// catalogs keep manifest-declared order.
	ListCatalogs(ctx context.Context) []stremio.AggregatedCatalog
	// FetchCatalogContent fetches and normalizes one catalog's content
	// listing. extra is appended to the catalog URL as query parameters.
	FetchCatalogContent(ctx context.Context, addonID, contentType, catalogID string, extra map[string]string) []stremio.ContentItem
}

type aggregator struct {
	registry registry.Registry
	client   fetch.Client
}

// NewAggregator creates an Aggregator reading through the given registry.
func NewAggregator(registry registry.Registry, client fetch.Client) Aggregator {
	return &aggregator{
		registry: registry,
		client:   client,
	}
}

// ListCatalogs flattens every installed addon's declared catalogs.
func (a *aggregator) ListCatalogs(ctx context.Context) []stremio.AggregatedCatalog {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "catalog.Aggregator.ListCatalogs")
	defer span.End()

	manifests, err := a.registry.ListInstalled(ctx)
	if err != nil {
		return degrade[stremio.AggregatedCatalog](ctx, "registry.Registry.ListInstalled", err)
	}

	catalogs := make([]stremio.AggregatedCatalog, 0)
	for _, manifest := range manifests {
		for _, item := range manifest.Catalogs {
			catalogs = append(catalogs, stremio.AggregatedCatalog{
				CatalogItem: item,
				AddonID:     manifest.ID,
				AddonName:   manifest.Name,
			})
		}
	}

	span.SetAttributes(attribute.Int("catalogs.count", len(catalogs)))

	return catalogs
}

// FetchCatalogContent fetches and normalizes one catalog's content listing.
func (a *aggregator) FetchCatalogContent(ctx context.Context, addonID, contentType, catalogID string, extra map[string]string) []stremio.ContentItem {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "catalog.Aggregator.FetchCatalogContent")
	defer span.End()
	span.SetAttributes(
		attribute.String("addon.id", addonID),
		attribute.String("catalog.type", contentType),
		attribute.String("catalog.id", catalogID),
	)

	items, err := a.fetchCatalogContent(ctx, addonID, contentType, catalogID, extra)
	if err != nil {
		common.CatalogFetchesTotalIncr(ctx, "degraded")
		return degrade[stremio.ContentItem](ctx, "catalog.Aggregator.fetchCatalogContent", err)
	}
	common.CatalogFetchesTotalIncr(ctx, "ok")

	span.SetAttributes(attribute.Int("items.count", len(items)))

	return items
}

func (a *aggregator) fetchCatalogContent(ctx context.Context, addonID, contentType, catalogID string, extra map[string]string) ([]stremio.ContentItem, error) {
	manifests, err := a.registry.ListInstalled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to registry.Registry.ListInstalled: %w", err)
	}

	var addon *stremio.Manifest
	for i, manifest := range manifests {
		if manifest.ID == addonID {
			addon = &manifests[i]
			break
		}
	}
	if addon == nil || addon.URL == "" {
		return nil, ErrAddonNotFound
	}

	catalogURL := CatalogURL(addon.URL, contentType, catalogID, extra)

	response := &stremio.CatalogResponse{}
	if err := a.client.GetJSON(ctx, catalogURL, response); err != nil {
		return nil, fmt.Errorf("failed to fetch.Client.GetJSON: %w", err)
	}

	items := make([]stremio.ContentItem, 0, len(response.Metas))
	for _, meta := range response.Metas {
		items = append(items, normalizeMeta(meta))
	}

	return items, nil
}

// CatalogURL builds the catalog endpoint URL from the addon's manifest
// origin. Extra parameters are appended in sorted key order.
func CatalogURL(manifestURL, contentType, catalogID string, extra map[string]string) string {
	baseURL := strings.TrimSuffix(manifestURL, stremio.ManifestResourceName)
	catalogURL := fmt.Sprintf("%scatalog/%s/%s.json", baseURL, contentType, catalogID)

	if len(extra) > 0 {
		params := url.Values{}
		for key, value := range extra {
			params.Set(key, value)
		}
		catalogURL += "?" + params.Encode()
	}

	return catalogURL
}

// normalizeMeta maps one raw catalog entry into a ContentItem. Addons
// disagree on field names, so each output field tries a primary source field
// and then a fallback. Absent fields stay absent; a malformed entry never
// aborts the batch.
func normalizeMeta(meta map[string]any) stremio.ContentItem {
	return stremio.ContentItem{
		ID:          stringField(meta, "id"),
		Title:       stringField(meta, "name", "title"),
		Description: stringField(meta, "description", "overview"),
		Poster:      stringField(meta, "poster", "thumbnail"),
		Backdrop:    stringField(meta, "background", "backdrop"),
		Logo:        stringField(meta, "logo"),
		Type:        stringField(meta, "type"),
		Genre:       genreField(meta),
		Year:        coercedField(meta, "year"),
		Runtime:     coercedField(meta, "runtime"),
		Catalogs:    stringsField(meta, "catalogs"),
		Videos:      anyField(meta, "videos"),
	}
}

// stringField returns the first non-empty string among keys.
func stringField(meta map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := meta[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// coercedField returns the value under key as a string, coercing JSON
// numbers the way display code expects ("2009", "142").
func coercedField(meta map[string]any, key string) string {
	switch v := meta[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// genreField takes the first element of a genre list, falling back to the
// singular field.
func genreField(meta map[string]any) string {
	if genres, ok := meta["genres"].([]any); ok && len(genres) > 0 {
		if s, ok := genres[0].(string); ok {
			return s
		}
	}
	return stringField(meta, "genre")
}

func stringsField(meta map[string]any, key string) []string {
	values, ok := meta[key].([]any)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

func anyField(meta map[string]any, key string) []any {
	values, ok := meta[key].([]any)
	if !ok {
		return nil
	}
	return values
}

// degrade implements the lossy half of the error policy: the failure is
// logged, never propagated, and the caller gets an empty result.
func degrade[T any](ctx context.Context, op string, err error) []T {
	common.Log.WarnContext(ctx, "Degrading to empty result", "op", op, "err", err)
	return []T{}
}
