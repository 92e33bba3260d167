// Package streams resolves playable streams for a content id across every
// installed stream-capable addon. Unlike catalog browsing, an empty result
// here is actionable for the user, so the top-level preconditions surface
// typed errors; only per-addon fetch failures are swallowed.
package streams

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ogero/stremio-hub/internal/common"
	"github.com/ogero/stremio-hub/internal/registry"
	"github.com/ogero/stremio-hub/pkg/fetch"
	"github.com/ogero/stremio-hub/pkg/stremio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoStreamAddons indicates no installed addon declares stream support.
var ErrNoStreamAddons = errors.New("no stream addons installed")

// DefaultContentType is assumed when the caller does not name one.
const DefaultContentType = "movie"

// Resolver fans a stream query out across installed addons and merges the
// results.
type Resolver interface {
	// GetStreams queries every stream-capable installed addon for contentID
	// and concatenates the results in addon order. contentType defaults to
	// DefaultContentType when empty. A single addon failing contributes
	// nothing; the call as a whole fails only when the installed set cannot
	// be read or contains no stream-capable addon.
	GetStreams(ctx context.Context, contentID, contentType string) ([]stremio.Stream, error)
	// SelectBestStream picks a playback candidate, or nil when streams is
	// empty.
	SelectBestStream(streams []stremio.Stream) *stremio.Stream
}

// Selector is the best-stream strategy point. The default prefers
// web-compatible streams and takes the first match; ranking by bitrate,
// codec or addon priority can be substituted without touching the fan-out.
type Selector interface {
	Select(streams []stremio.Stream) *stremio.Stream
}

type resolver struct {
	registry registry.Registry
	client   fetch.Client
	selector Selector
}

// Option configures a Resolver.
type Option func(*resolver)

// WithSelector replaces the best-stream selection strategy.
func WithSelector(selector Selector) Option {
	return func(r *resolver) {
		r.selector = selector
	}
}

// NewResolver creates a Resolver reading through the given registry.
func NewResolver(registry registry.Registry, client fetch.Client, opts ...Option) Resolver {
	r := &resolver{
		registry: registry,
		client:   client,
		selector: WebReadyFirst{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetStreams queries every stream-capable installed addon for contentID.
func (r *resolver) GetStreams(ctx context.Context, contentID, contentType string) ([]stremio.Stream, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "streams.Resolver.GetStreams")
	defer span.End()

	if contentType == "" {
		contentType = DefaultContentType
	}
	span.SetAttributes(
		attribute.String("content.id", contentID),
		attribute.String("content.type", contentType),
	)

	manifests, err := r.registry.ListInstalled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to registry.Registry.ListInstalled: %w", err)
	}

	streamAddons := make([]stremio.Manifest, 0, len(manifests))
	for _, manifest := range manifests {
		if manifest.HasResource(stremio.ResourceStream) {
			streamAddons = append(streamAddons, manifest)
		}
	}
	if len(streamAddons) == 0 {
		return nil, ErrNoStreamAddons
	}

	streams := make([]stremio.Stream, 0)
	for _, addon := range streamAddons {
		if addon.URL == "" {
			continue
		}

		response := &stremio.StreamsResponse{}
		if err := r.client.GetJSON(ctx, StreamURL(addon.URL, contentType, contentID), response); err != nil {
			common.Log.WarnContext(ctx, "Skipping addon after stream fetch failure", "addon", addon.Name, "err", err)
			common.StreamFetchesTotalIncr(ctx, "failed")
			continue
		}
		common.StreamFetchesTotalIncr(ctx, "ok")

		for _, stream := range response.Streams {
			stream.AddonName = addon.Name
			stream.AddonID = addon.ID
			streams = append(streams, stream)
		}
	}

	span.SetAttributes(attribute.Int("streams.count", len(streams)))

	return streams, nil
}

// SelectBestStream picks a playback candidate, or nil when streams is empty.
func (r *resolver) SelectBestStream(streams []stremio.Stream) *stremio.Stream {
	return r.selector.Select(streams)
}

// StreamURL builds the stream endpoint URL from the addon's manifest origin.
func StreamURL(manifestURL, contentType, contentID string) string {
	baseURL := strings.TrimSuffix(manifestURL, stremio.ManifestResourceName)
	return fmt.Sprintf("%sstream/%s/%s.json", baseURL, contentType, contentID)
}

// WebReadyFirst is the default Selector: it restricts selection to streams
// not flagged notWebReady when any exist, then takes the first in original
// order. It is a placeholder heuristic, not a quality ranking.
type WebReadyFirst struct{}

// Select picks a playback candidate, or nil when streams is empty.
func (WebReadyFirst) Select(streams []stremio.Stream) *stremio.Stream {
	if len(streams) == 0 {
		return nil
	}

	webReady := make([]stremio.Stream, 0, len(streams))
	for _, stream := range streams {
		if !stream.NotWebReady() {
			webReady = append(webReady, stream)
		}
	}

	usable := streams
	if len(webReady) > 0 {
		usable = webReady
	}

	return &usable[0]
}
