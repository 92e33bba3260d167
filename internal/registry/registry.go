// Package registry persists the set of installed addon manifests and is the
// only component that mutates it. Catalog aggregation and stream resolution
// read through it.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ogero/stremio-hub/internal/common"
	"github.com/ogero/stremio-hub/internal/store"
	"github.com/ogero/stremio-hub/pkg/fetch"
	"github.com/ogero/stremio-hub/pkg/stremio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// installedAddonsKey is the well-known store key holding the JSON-serialized
// array of installed manifests. The document is read and overwritten whole;
// there is no per-field access.
const installedAddonsKey = "stremio_installed_addons"

// Registry defines the operations on the installed addon set.
type Registry interface {
	// ListInstalled returns the persisted set in insertion order. On first
	// run (no persisted state, or an empty persisted set) it seeds the
	// bundled Cinemeta default before returning it.
	ListInstalled(ctx context.Context) ([]stremio.Manifest, error)
	// Install adds manifest to the set. A manifest whose id matches an
	// installed entry replaces that entry in place; ordering of the other
	// entries is preserved.
	Install(ctx context.Context, manifest stremio.Manifest) error
	// Uninstall removes every entry with the given id. A missing id is a no-op.
	Uninstall(ctx context.Context, addonID string) error
	// FetchManifest retrieves and decodes an addon manifest from url and
	// annotates it with its fetch origin.
	FetchManifest(ctx context.Context, url string) (*stremio.Manifest, error)
}

type registry struct {
	store  store.Store
	client fetch.Client

	// mu serializes the read-modify-write cycles on the persisted document,
	// including first-run seeding. Concurrent installs cannot lose writes,
	// but the document itself stays last-writer-wins across processes.
	mu sync.Mutex
}

// NewRegistry creates a Registry backed by the given store and fetch client.
func NewRegistry(store store.Store, client fetch.Client) Registry {
	return &registry{
		store:  store,
		client: client,
	}
}

// ListInstalled returns the persisted set in insertion order, seeding the
// Cinemeta default when the set is empty.
func (r *registry) ListInstalled(ctx context.Context) ([]stremio.Manifest, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "registry.Registry.ListInstalled")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	manifests, err := r.load()
	if err != nil {
		return nil, err
	}

	if len(manifests) == 0 {
		common.Log.InfoContext(ctx, "No addons installed, seeding default", "id", DefaultAddon.ID)
		manifests = []stremio.Manifest{DefaultAddon}
		if err := r.persist(manifests); err != nil {
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int("addons.count", len(manifests)))

	return manifests, nil
}

// Install adds manifest to the set, replacing in place on id match.
func (r *registry) Install(ctx context.Context, manifest stremio.Manifest) error {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "registry.Registry.Install")
	defer span.End()
	span.SetAttributes(attribute.String("addon.id", manifest.ID))

	r.mu.Lock()
	defer r.mu.Unlock()

	manifests, err := r.load()
	if err != nil {
		return err
	}

	replaced := false
	for i, installed := range manifests {
		if installed.ID == manifest.ID {
			manifests[i] = manifest
			replaced = true
			break
		}
	}
	if !replaced {
		manifests = append(manifests, manifest)
	}

	if err := r.persist(manifests); err != nil {
		return err
	}

	common.Log.InfoContext(ctx, "Installed addon", "id", manifest.ID, "name", manifest.Name, "replaced", replaced)
	common.AddonInstallsTotalIncr(ctx, "install")

	return nil
}

// Uninstall removes every entry with the given id.
func (r *registry) Uninstall(ctx context.Context, addonID string) error {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "registry.Registry.Uninstall")
	defer span.End()
	span.SetAttributes(attribute.String("addon.id", addonID))

	r.mu.Lock()
	defer r.mu.Unlock()

	manifests, err := r.load()
	if err != nil {
		return err
	}

	filtered := make([]stremio.Manifest, 0, len(manifests))
	for _, installed := range manifests {
		if installed.ID != addonID {
			filtered = append(filtered, installed)
		}
	}

	if err := r.persist(filtered); err != nil {
		return err
	}

	common.Log.InfoContext(ctx, "Uninstalled addon", "id", addonID, "removed", len(manifests)-len(filtered))
	common.AddonInstallsTotalIncr(ctx, "uninstall")

	return nil
}

// FetchManifest retrieves and decodes an addon manifest from url.
func (r *registry) FetchManifest(ctx context.Context, url string) (*stremio.Manifest, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "registry.Registry.FetchManifest")
	defer span.End()
	span.SetAttributes(attribute.String("addon.url", url))

	manifest := &stremio.Manifest{}
	if err := r.client.GetJSON(ctx, url, manifest); err != nil {
		return nil, fmt.Errorf("failed to fetch.Client.GetJSON: %w", err)
	}

	// The fetch origin is what every later catalog/stream query hangs off,
	// and it is never part of the manifest body itself.
	manifest.URL = url

	return manifest, nil
}

func (r *registry) load() ([]stremio.Manifest, error) {
	document, ok, err := r.store.Get(installedAddonsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to store.Store.Get: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var manifests []stremio.Manifest
	if err := json.Unmarshal([]byte(document), &manifests); err != nil {
		return nil, fmt.Errorf("failed to json.Unmarshal: %w", err)
	}

	return manifests, nil
}

func (r *registry) persist(manifests []stremio.Manifest) error {
	document, err := json.Marshal(manifests)
	if err != nil {
		return fmt.Errorf("failed to json.Marshal: %w", err)
	}

	if err := r.store.Set(installedAddonsKey, string(document)); err != nil {
		return fmt.Errorf("failed to store.Store.Set: %w", err)
	}

	return nil
}

// NormalizeManifestURL appends the manifest resource name to raw unless it
// already references it.
func NormalizeManifestURL(raw string) string {
	if strings.HasSuffix(raw, stremio.ManifestResourceName) {
		return raw
	}
	if strings.HasSuffix(raw, "/") {
		return raw + stremio.ManifestResourceName
	}
	return raw + "/" + stremio.ManifestResourceName
}
