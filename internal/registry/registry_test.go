package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ogero/stremio-hub/internal/store"
	"github.com/ogero/stremio-hub/pkg/fetch"
	"github.com/ogero/stremio-hub/pkg/stremio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListInstalledSeedsDefault(t *testing.T) {
	r := NewRegistry(store.NewMemory(), fetch.NewClient())

	manifests, err := r.ListInstalled(context.Background())
	require.NoError(t, err)

	require.Len(t, manifests, 1)
	assert.Equal(t, DefaultAddon.ID, manifests[0].ID)
	assert.Equal(t, DefaultAddon.URL, manifests[0].URL)

	// Seeding must not recur once a non-empty set is persisted.
	manifests, err = r.ListInstalled(context.Background())
	require.NoError(t, err)
	require.Len(t, manifests, 1)
}

func TestListInstalledSeedsOnceUnderConcurrency(t *testing.T) {
	r := NewRegistry(store.NewMemory(), fetch.NewClient())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.ListInstalled(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	manifests, err := r.ListInstalled(context.Background())
	require.NoError(t, err)
	require.Len(t, manifests, 1)
}

func TestInstallAppendsAndReplaces(t *testing.T) {
	r := NewRegistry(store.NewMemory(), fetch.NewClient())
	ctx := context.Background()

	a := stremio.Manifest{ID: "org.a", Name: "A", Version: "1.0.0"}
	b := stremio.Manifest{ID: "org.b", Name: "B", Version: "1.0.0"}

	require.NoError(t, r.Install(ctx, a))
	require.NoError(t, r.Install(ctx, b))

	manifests, err := r.ListInstalled(ctx)
	require.NoError(t, err)
	require.Len(t, manifests, 2)
	assert.Equal(t, "org.a", manifests[0].ID)
	assert.Equal(t, "org.b", manifests[1].ID)

	// Same id replaces in place: count unchanged, position preserved.
	require.NoError(t, r.Install(ctx, stremio.Manifest{ID: "org.a", Name: "A v2", Version: "2.0.0"}))

	manifests, err = r.ListInstalled(ctx)
	require.NoError(t, err)
	require.Len(t, manifests, 2)
	assert.Equal(t, "org.a", manifests[0].ID)
	assert.Equal(t, "A v2", manifests[0].Name)
	assert.Equal(t, "2.0.0", manifests[0].Version)
	assert.Equal(t, "org.b", manifests[1].ID)
}

func TestUninstall(t *testing.T) {
	r := NewRegistry(store.NewMemory(), fetch.NewClient())
	ctx := context.Background()

	require.NoError(t, r.Install(ctx, stremio.Manifest{ID: "org.a", Name: "A"}))
	require.NoError(t, r.Install(ctx, stremio.Manifest{ID: "org.b", Name: "B"}))

	require.NoError(t, r.Uninstall(ctx, "org.a"))

	manifests, err := r.ListInstalled(ctx)
	require.NoError(t, err)
	require.Len(t, manifests, 1)
	assert.Equal(t, "org.b", manifests[0].ID)

	// Unknown id is a no-op, not an error.
	require.NoError(t, r.Uninstall(ctx, "org.unknown"))

	manifests, err = r.ListInstalled(ctx)
	require.NoError(t, err)
	require.Len(t, manifests, 1)
}

type brokenStore struct{}

func (brokenStore) Get(string) (string, bool, error) { return "", false, errors.New("io error") }
func (brokenStore) Set(string, string) error         { return errors.New("io error") }
func (brokenStore) Remove(string) error              { return errors.New("io error") }

func TestInstallStoreFailure(t *testing.T) {
	r := NewRegistry(brokenStore{}, fetch.NewClient())

	err := r.Install(context.Background(), stremio.Manifest{ID: "org.a"})
	require.Error(t, err)
}

func TestFetchManifest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.RequestURI == "/manifest.json" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"org.test","version":"1.2.3","name":"Test","resources":["catalog","stream"],"types":["movie"]}`))
		} else {
			t.Fatalf("unexpected request %v", r)
		}
	}))
	defer server.Close()

	r := NewRegistry(store.NewMemory(), fetch.NewClient())

	manifest, err := r.FetchManifest(context.Background(), server.URL+"/manifest.json")
	require.NoError(t, err)

	assert.Equal(t, "org.test", manifest.ID)
	assert.Equal(t, []string{"catalog", "stream"}, manifest.Resources)
	assert.Equal(t, server.URL+"/manifest.json", manifest.URL)
}

func TestFetchManifestErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.RequestURI {
		case "/missing/manifest.json":
			w.WriteHeader(http.StatusNotFound)
		case "/broken/manifest.json":
			_, _ = w.Write([]byte("<html>not a manifest</html>"))
		default:
			t.Fatalf("unexpected request %v", r)
		}
	}))
	defer server.Close()

	r := NewRegistry(store.NewMemory(), fetch.NewClient())

	_, err := r.FetchManifest(context.Background(), server.URL+"/missing/manifest.json")
	require.ErrorIs(t, err, fetch.ErrFetch)

	_, err = r.FetchManifest(context.Background(), server.URL+"/broken/manifest.json")
	require.ErrorIs(t, err, fetch.ErrDecode)
}

func TestNormalizeManifestURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://x.com/manifest.json", "https://x.com/manifest.json"},
		{"https://x.com/", "https://x.com/manifest.json"},
		{"https://x.com", "https://x.com/manifest.json"},
		{"https://x.com/addon", "https://x.com/addon/manifest.json"},
		{"https://x.com/addon/", "https://x.com/addon/manifest.json"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeManifestURL(tt.raw))
		})
	}
}
