package vanilla_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-packforge/pkg/vanilla"
)

func TestClient_DownloadsAndCachesByVersionMarker(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/vanilla/1.21.4/items.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"apple": {"type": "model", "model": "item/apple"}}`))
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	client := vanilla.NewClient(server.URL+"/vanilla/{version}/items.json", cacheDir)
	ctx := context.Background()

	snapshot, err := client.Snapshot(ctx, "1.21.4")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if model, ok := snapshot.Lookup("apple"); !ok || model == nil {
		t.Fatalf("lookup apple = %v, %v", model, ok)
	}
	if _, ok := snapshot.Lookup("unknown"); ok {
		t.Fatalf("unknown type should not resolve")
	}

	// Second request for the same version is served from the cache.
	if _, err := client.Snapshot(ctx, "1.21.4"); err != nil {
		t.Fatalf("cached snapshot: %v", err)
	}
	if hits != 1 {
		t.Fatalf("server hits = %d, want 1", hits)
	}
}

func TestClient_VersionChangeInvalidatesCache(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := vanilla.NewClient(server.URL+"/{version}.json", t.TempDir())
	ctx := context.Background()

	if _, err := client.Snapshot(ctx, "1.21.4"); err != nil {
		t.Fatalf("first snapshot: %v", err)
	}
	if _, err := client.Snapshot(ctx, "1.21.5"); err != nil {
		t.Fatalf("second snapshot: %v", err)
	}
	if hits != 2 {
		t.Fatalf("server hits = %d, want 2", hits)
	}
}

func TestClient_ErrorStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := vanilla.NewClient(server.URL+"/{version}.json", t.TempDir())
	if _, err := client.Snapshot(context.Background(), "0.0.0"); err == nil {
		t.Fatalf("expected an error for 404")
	}
}

func TestClient_RequiresVersion(t *testing.T) {
	client := vanilla.NewClient("https://example.invalid/{version}.json", t.TempDir())
	if _, err := client.Snapshot(context.Background(), "  "); err == nil {
		t.Fatalf("expected an error for empty version")
	}
}
