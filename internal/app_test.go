package internal_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ogero/stremio-hub/internal"
	"github.com/ogero/stremio-hub/internal/catalog"
	"github.com/ogero/stremio-hub/internal/registry"
	"github.com/ogero/stremio-hub/internal/store"
	"github.com/ogero/stremio-hub/internal/streams"
	"github.com/ogero/stremio-hub/pkg/fetch"
	"github.com/ogero/stremio-hub/pkg/stremio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addonServer fakes a remote Stremio addon with a manifest, one catalog and
// one stream endpoint. failStreams makes the stream endpoint answer 500.
type addonServer struct {
	*httptest.Server
	failStreams bool
}

func newAddonServer(t *testing.T, id, name string, resources []string, withCatalog bool) *addonServer {
	t.Helper()

	a := &addonServer{}
	a.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/manifest.json":
			manifest := stremio.Manifest{
				ID:        id,
				Version:   "1.0.0",
				Name:      name,
				Resources: resources,
				Types:     []string{"movie"},
			}
			if withCatalog {
				manifest.Catalogs = []stremio.CatalogItem{{Type: "movie", ID: "top", Name: "Top"}}
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(manifest)
		case r.URL.Path == "/catalog/movie/top.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"metas":[{"id":"tt1","name":"First","type":"movie"}]}`))
		case strings.HasPrefix(r.URL.Path, "/stream/movie/"):
			if a.failStreams {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(fmt.Sprintf(`{"streams":[{"name":"%s stream","url":"https://cdn.example/%s"}]}`, name, id)))
		default:
			t.Fatalf("unexpected request %v", r)
		}
	}))
	return a
}

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	client := fetch.NewClient()
	addonRegistry := registry.NewRegistry(store.NewMemory(), client)
	app, err := internal.NewApp(
		addonRegistry,
		catalog.NewAggregator(addonRegistry, client),
		streams.NewResolver(addonRegistry, client),
		nil,
	)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Get("/api/addons", app.ListAddonsHandler)
	r.Post("/api/addons", app.InstallAddonHandler)
	r.Delete("/api/addons/{id}", app.UninstallAddonHandler)
	r.Get("/api/catalogs", app.ListCatalogsHandler)
	r.Get("/api/catalogs/{addonID}/{type}/{id}", app.CatalogContentHandler)
	r.Get("/api/streams/{type}/{id}", app.StreamsHandler)
	r.Get("/api/streams/{type}/{id}/best", app.BestStreamHandler)
	return r
}

func doJSON(t *testing.T, router *chi.Mux, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestInstallBrowseAndResolveFlow(t *testing.T) {
	addonA := newAddonServer(t, "org.a", "A", []string{"catalog", "stream"}, true)
	defer addonA.Close()
	addonB := newAddonServer(t, "org.b", "B", []string{"stream"}, false)
	defer addonB.Close()

	router := newTestRouter(t)

	// Install both addons from their base URLs; normalization appends
	// manifest.json.
	rec := doJSON(t, router, http.MethodPost, "/api/addons", fmt.Sprintf(`{"url":%q}`, addonA.URL))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/api/addons", fmt.Sprintf(`{"url":%q}`, addonB.URL))
	require.Equal(t, http.StatusCreated, rec.Code)

	// Only A declares a catalog.
	rec = doJSON(t, router, http.MethodGet, "/api/catalogs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var catalogs []stremio.AggregatedCatalog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catalogs))
	require.Len(t, catalogs, 1)
	assert.Equal(t, "org.a", catalogs[0].AddonID)
	assert.Equal(t, "A", catalogs[0].AddonName)
	assert.Equal(t, "top", catalogs[0].ID)

	rec = doJSON(t, router, http.MethodGet, "/api/catalogs/org.a/movie/top", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []stremio.ContentItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "First", items[0].Title)

	// Both stream addons are queried, in install order.
	rec = doJSON(t, router, http.MethodGet, "/api/streams/movie/tt1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var merged []stremio.Stream
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &merged))
	require.Len(t, merged, 2)
	assert.Equal(t, "org.a", merged[0].AddonID)
	assert.Equal(t, "org.b", merged[1].AddonID)

	// A failing addon contributes nothing; B still answers.
	addonA.failStreams = true
	rec = doJSON(t, router, http.MethodGet, "/api/streams/movie/tt1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	merged = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &merged))
	require.Len(t, merged, 1)
	assert.Equal(t, "org.b", merged[0].AddonID)

	rec = doJSON(t, router, http.MethodGet, "/api/streams/movie/tt1/best", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var best stremio.Stream
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &best))
	assert.Equal(t, "https://cdn.example/org.b", best.URL)
}

func TestInstallRejectsBadURLs(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/addons", `{"url":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/addons", `{"url":"ftp://x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/addons", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInstallSurfacesUnreachableAddon(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/addons", `{"url":"http://127.0.0.1:1"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestUninstallIsIdempotent(t *testing.T) {
	addonA := newAddonServer(t, "org.a", "A", []string{"catalog", "stream"}, true)
	defer addonA.Close()

	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/addons", fmt.Sprintf(`{"url":%q}`, addonA.URL))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/addons/org.a", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/addons/org.a", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestStreamsWithoutStreamAddons(t *testing.T) {
	router := newTestRouter(t)

	// A fresh registry seeds Cinemeta, which declares no stream resource.
	rec := doJSON(t, router, http.MethodGet, "/api/streams/movie/tt1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAddonsSeedsDefault(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/addons", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var manifests []stremio.Manifest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &manifests))
	require.Len(t, manifests, 1)
	assert.Equal(t, "com.linvo.cinemeta", manifests[0].ID)
}
