package internal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/ogero/stremio-hub/internal/catalog"
	"github.com/ogero/stremio-hub/internal/common"
	"github.com/ogero/stremio-hub/internal/events"
	"github.com/ogero/stremio-hub/internal/registry"
	"github.com/ogero/stremio-hub/internal/streams"
	"github.com/ogero/stremio-hub/pkg/fetch"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// App wires the aggregation services to the HTTP surface the TV UI consumes.
type App struct {
	Registry   registry.Registry
	Aggregator catalog.Aggregator
	Resolver   streams.Resolver
	Events     events.Hub
}

/*
NewApp creates a new instance of the App struct.

Parameters:
  - registry: the installed addon registry.
  - aggregator: the catalog aggregation service.
  - resolver: the stream resolution service.
  - events: the websocket hub addon events are broadcast on.

Returns:
  - A pointer to the newly created App instance.
*/
func NewApp(registry registry.Registry, aggregator catalog.Aggregator, resolver streams.Resolver, events events.Hub) (*App, error) {
	return &App{
		Registry:   registry,
		Aggregator: aggregator,
		Resolver:   resolver,
		Events:     events,
	}, nil
}

/*
ListAddonsHandler serves the installed addon set.

This method writes the installed manifests as a JSON response to the HTTP writer.
*/
func (a *App) ListAddonsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	common.Log.DebugContext(ctx, "ListAddonsHandler")

	manifests, err := a.Registry.ListInstalled(ctx)
	if err != nil {
		common.Log.ErrorContext(ctx, "Failed to Registry.ListInstalled", "err", err)
		span.RecordError(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(ctx, w, manifests)
}

/*
InstallAddonHandler installs an addon from a manifest URL.

This method validates and normalizes the supplied URL, fetches the manifest,
persists it and broadcasts an install event.
*/
func (a *App) InstallAddonHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	common.Log.DebugContext(ctx, "InstallAddonHandler")

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.Log.WarnContext(ctx, "Failed to json.Decoder.Decode", "err", err)
		span.RecordError(err)
		writeError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := common.ValidateManifestURL(body.URL); err != nil {
		common.Log.WarnContext(ctx, "Failed to common.ValidateManifestURL", "err", err)
		span.RecordError(err)
		writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	manifestURL := registry.NormalizeManifestURL(body.URL)
	span.SetAttributes(attribute.String("addon.url", manifestURL))

	manifest, err := a.Registry.FetchManifest(ctx, manifestURL)
	if err != nil {
		common.Log.ErrorContext(ctx, "Failed to Registry.FetchManifest", "err", err)
		span.RecordError(err)
		switch {
		case errors.Is(err, fetch.ErrFetch):
			writeError(ctx, w, http.StatusBadGateway, "addon could not be reached")
		case errors.Is(err, fetch.ErrDecode):
			writeError(ctx, w, http.StatusBadGateway, "addon returned an invalid manifest")
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	if err := a.Registry.Install(ctx, *manifest); err != nil {
		common.Log.ErrorContext(ctx, "Failed to Registry.Install", "err", err)
		span.RecordError(err)
		writeError(ctx, w, http.StatusInternalServerError, "addon could not be installed")
		return
	}

	a.publishAddonEvent(ctx, events.AddonEvent{Type: "installed", AddonID: manifest.ID, AddonName: manifest.Name})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(manifest); err != nil {
		common.Log.ErrorContext(ctx, "Failed to write response", "err", err)
	}
}

/*
UninstallAddonHandler removes an installed addon by id.

Removing an addon that is not installed is a no-op and still answers 204.
*/
func (a *App) UninstallAddonHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	common.Log.DebugContext(ctx, "UninstallAddonHandler")

	addonID, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		common.Log.WarnContext(ctx, "Failed to url.PathUnescape", "err", err)
		span.RecordError(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("addon.id", addonID))

	if err := a.Registry.Uninstall(ctx, addonID); err != nil {
		common.Log.ErrorContext(ctx, "Failed to Registry.Uninstall", "err", err)
		span.RecordError(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	a.publishAddonEvent(ctx, events.AddonEvent{Type: "uninstalled", AddonID: addonID})

	w.WriteHeader(http.StatusNoContent)
}

/*
ListCatalogsHandler serves the aggregated catalog list.

Aggregation is lossy: this endpoint always answers 200, at worst with an
empty list.
*/
func (a *App) ListCatalogsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	common.Log.DebugContext(ctx, "ListCatalogsHandler")

	writeJSON(ctx, w, a.Aggregator.ListCatalogs(ctx))
}

/*
CatalogContentHandler serves the content listing of one catalog.

Query parameters are forwarded to the addon as catalog extra parameters.
Content loading is lossy: failures answer 200 with an empty list.
*/
func (a *App) CatalogContentHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	common.Log.DebugContext(ctx, "CatalogContentHandler")

	paramsType := chi.URLParam(r, "type")
	if err := common.ValidateContentType(paramsType); err != nil {
		common.Log.WarnContext(ctx, "Failed to common.ValidateContentType", "err", err)
		span.RecordError(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	addonID, err := url.PathUnescape(chi.URLParam(r, "addonID"))
	if err != nil {
		common.Log.WarnContext(ctx, "Failed to url.PathUnescape", "err", err)
		span.RecordError(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	catalogID := chi.URLParam(r, "id")

	extra := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			extra[key] = values[0]
		}
	}

	writeJSON(ctx, w, a.Aggregator.FetchCatalogContent(ctx, addonID, paramsType, catalogID, extra))
}

/*
StreamsHandler serves the merged stream candidates for a content id.

Unlike catalog endpoints this one surfaces failures: without any installed
stream addon the UI needs an actionable message, not an empty list.
*/
func (a *App) StreamsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	common.Log.DebugContext(ctx, "StreamsHandler")

	paramsType := chi.URLParam(r, "type")
	if err := common.ValidateContentType(paramsType); err != nil {
		common.Log.WarnContext(ctx, "Failed to common.ValidateContentType", "err", err)
		span.RecordError(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	contentID, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		common.Log.WarnContext(ctx, "Failed to url.PathUnescape", "err", err)
		span.RecordError(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := common.ValidateContentID(contentID); err != nil {
		common.Log.WarnContext(ctx, "Failed to common.ValidateContentID", "err", err)
		span.RecordError(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("content.id", contentID))

	result, err := a.Resolver.GetStreams(ctx, contentID, paramsType)
	if err != nil {
		common.Log.ErrorContext(ctx, "Failed to Resolver.GetStreams", "err", err)
		span.RecordError(err)
		if errors.Is(err, streams.ErrNoStreamAddons) {
			writeError(ctx, w, http.StatusNotFound, "no stream addons installed")
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(ctx, w, result)
}

/*
BestStreamHandler serves the selected playback candidate for a content id.

Answers 404 when no candidate exists.
*/
func (a *App) BestStreamHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	common.Log.DebugContext(ctx, "BestStreamHandler")

	contentID, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		common.Log.WarnContext(ctx, "Failed to url.PathUnescape", "err", err)
		span.RecordError(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	result, err := a.Resolver.GetStreams(ctx, contentID, chi.URLParam(r, "type"))
	if err != nil {
		common.Log.ErrorContext(ctx, "Failed to Resolver.GetStreams", "err", err)
		span.RecordError(err)
		if errors.Is(err, streams.ErrNoStreamAddons) {
			writeError(ctx, w, http.StatusNotFound, "no stream addons installed")
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	best := a.Resolver.SelectBestStream(result)
	if best == nil {
		writeError(ctx, w, http.StatusNotFound, "no playable stream found")
		return
	}

	writeJSON(ctx, w, best)
}

// WebsocketHandler handles WebSocket connections
func (a *App) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	common.Log.DebugContext(ctx, "WebsocketHandler")

	a.Events.ServeHTTP(w, r)
}

func (a *App) publishAddonEvent(ctx context.Context, event events.AddonEvent) {
	if a.Events == nil {
		return
	}
	if err := a.Events.PublishAddonEvent(ctx, event); err != nil {
		common.Log.WarnContext(ctx, "Failed to Events.PublishAddonEvent", "err", err)
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		common.Log.ErrorContext(ctx, "Failed to write response", "err", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		common.Log.ErrorContext(ctx, "Failed to write response", "err", err)
	}
}
