package artwork

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/keepsakelabs/keepsake/internal/config"
	tempfiledomain "github.com/keepsakelabs/keepsake/internal/tempfile/domain"
	"go.uber.org/zap"
)

type storeStub struct {
	mu     sync.Mutex
	saves  int
	failOn string
}

func (s *storeStub) SaveFile(ctx context.Context, data []byte, originalName string) (*tempfiledomain.SavedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && originalName == s.failOn {
		return nil, errors.New("disk full")
	}
	s.saves++
	filename := fmt.Sprintf("%d-%s", s.saves, originalName)
	return &tempfiledomain.SavedFile{
		ID:       filename,
		Filename: filename,
		URL:      "/temp-files/" + filename,
	}, nil
}

func (s *storeStub) GetFile(ctx context.Context, filename string) (*tempfiledomain.FileContent, error) {
	return nil, tempfiledomain.ErrNotFound
}

func (s *storeStub) DeleteFile(ctx context.Context, filename string) (bool, error) {
	return false, nil
}

func (s *storeStub) ListFiles(ctx context.Context) ([]tempfiledomain.FileInfo, error) {
	return nil, nil
}

func (s *storeStub) Promote(ctx context.Context, filename string, orderID int64) error {
	return nil
}

func (s *storeStub) CleanupOldFiles(ctx context.Context, olderThan time.Duration) (tempfiledomain.CleanupResult, error) {
	return tempfiledomain.CleanupResult{}, nil
}

func (s *storeStub) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func newMaterializer(store tempfiledomain.Store) Materializer {
	return New(Params{
		Log:     zap.NewNop(),
		Store:   store,
		Storage: config.NewStaticStorageConfigHolder(config.StorageConfig{MaxConcurrentWrites: 2}),
	})
}

func payload(content string) string {
	return base64.StdEncoding.EncodeToString([]byte(content))
}

// assertNoBase64 walks the whole tree looking for any surviving base64 key.
func assertNoBase64(t *testing.T, value any) {
	t.Helper()
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			if strings.Contains(strings.ToLower(key), "base64") {
				t.Fatalf("base64 key %q survived materialization", key)
			}
			assertNoBase64(t, child)
		}
	case []any:
		for _, child := range v {
			assertNoBase64(t, child)
		}
	}
}

func TestMaterializeReplacesNestedArtwork(t *testing.T) {
	store := &storeStub{}
	m := newMaterializer(store)

	data := map[string]any{
		"text": "Happy birthday",
		"layout": map[string]any{
			"artwork": map[string]any{
				"fileName": "front.png",
				"base64":   payload("front bytes"),
			},
		},
		"photos": []any{
			map[string]any{"fileName": "a.jpg", "base64": payload("a")},
			map[string]any{"fileName": "b.jpg", "base64": payload("b")},
		},
	}

	out := m.Materialize(context.Background(), data)

	assertNoBase64(t, out)
	if store.Saves() != 3 {
		t.Fatalf("expected 3 artifacts, saved %d", store.Saves())
	}

	artworkNode := out["layout"].(map[string]any)["artwork"].(map[string]any)
	if _, ok := artworkNode["preview_url"].(string); !ok {
		t.Fatalf("artwork node missing preview_url: %v", artworkNode)
	}
	for _, elem := range out["photos"].([]any) {
		photo := elem.(map[string]any)
		url, ok := photo["preview_url"].(string)
		if !ok || !strings.HasPrefix(url, "/temp-files/") {
			t.Fatalf("photo missing preview_url: %v", photo)
		}
	}

	// Input is not mutated.
	if _, ok := data["photos"].([]any)[0].(map[string]any)["base64"]; !ok {
		t.Fatal("input payload was mutated")
	}
}

func TestMaterializePartialFailureIsolated(t *testing.T) {
	store := &storeStub{failOn: "broken.jpg"}
	m := newMaterializer(store)

	data := map[string]any{
		"photos": []any{
			map[string]any{"fileName": "ok-1.jpg", "base64": payload("1")},
			map[string]any{"fileName": "broken.jpg", "base64": payload("2")},
			map[string]any{"fileName": "ok-2.jpg", "base64": payload("3")},
		},
	}

	out := m.Materialize(context.Background(), data)

	assertNoBase64(t, out)
	photos := out["photos"].([]any)
	succeeded := 0
	for _, elem := range photos {
		if _, ok := elem.(map[string]any)["preview_url"]; ok {
			succeeded++
		}
	}
	if succeeded != 2 {
		t.Fatalf("expected 2 of 3 photos materialized, got %d", succeeded)
	}
}

func TestMaterializeDataURI(t *testing.T) {
	store := &storeStub{}
	m := newMaterializer(store)

	data := map[string]any{
		"artwork": map[string]any{
			"fileName": "sticker.png",
			"base64":   "data:image/png;base64," + payload("sticker"),
		},
	}

	out := m.Materialize(context.Background(), data)

	assertNoBase64(t, out)
	if store.Saves() != 1 {
		t.Fatalf("expected 1 save, got %d", store.Saves())
	}
}

func TestMaterializeDecodeFailureDropsPayload(t *testing.T) {
	store := &storeStub{}
	m := newMaterializer(store)

	data := map[string]any{
		"artwork": map[string]any{
			"fileName": "bad.png",
			"base64":   "%%% not base64 %%%",
		},
	}

	out := m.Materialize(context.Background(), data)

	assertNoBase64(t, out)
	if store.Saves() != 0 {
		t.Fatalf("expected no saves, got %d", store.Saves())
	}
	if _, ok := out["artwork"].(map[string]any)["preview_url"]; ok {
		t.Fatal("failed decode must not produce a preview_url")
	}
}

func TestMaterializeStripsStrayBase64Fields(t *testing.T) {
	store := &storeStub{}
	m := newMaterializer(store)

	data := map[string]any{
		"notes": map[string]any{
			"imageBase64": payload("stray"),
			"keep":        "me",
		},
		"finalArtwork": map[string]any{
			"base64":         payload("art"),
			"previewUrl":     "data:image/png;base64,AAAA",
			"highQualityUrl": "data:image/png;base64,BBBB",
		},
	}

	out := m.Materialize(context.Background(), data)

	assertNoBase64(t, out)
	notes := out["notes"].(map[string]any)
	if notes["keep"] != "me" {
		t.Fatalf("unrelated fields must survive: %v", notes)
	}
	final := out["finalArtwork"].(map[string]any)
	if _, ok := final["previewUrl"]; ok {
		t.Fatal("inline data URI previewUrl must be dropped")
	}
	if _, ok := final["highQualityUrl"]; ok {
		t.Fatal("inline data URI highQualityUrl must be dropped")
	}
	if _, ok := final["preview_url"].(string); !ok {
		t.Fatalf("materialized preview_url missing: %v", final)
	}
}

func TestMaterializeStripsNonStringBase64Values(t *testing.T) {
	store := &storeStub{}
	m := newMaterializer(store)

	data := map[string]any{
		"artwork": map[string]any{
			"fileName": "chunked.png",
			"base64":   map[string]any{"chunk": payload("half")},
		},
		"meta": map[string]any{
			"imageBase64": 42,
			"keep":        "me",
		},
		"count": map[string]any{
			"base64": 7,
		},
	}

	out := m.Materialize(context.Background(), data)

	assertNoBase64(t, out)
	if store.Saves() != 0 {
		t.Fatalf("non-string payloads must not be stored, got %d saves", store.Saves())
	}
	if _, ok := out["artwork"].(map[string]any)["preview_url"]; ok {
		t.Fatal("non-string payload must not produce a preview_url")
	}
	if out["meta"].(map[string]any)["keep"] != "me" {
		t.Fatalf("unrelated fields must survive: %v", out["meta"])
	}
}

func TestMaterializeLeavesExistingPreviewAlone(t *testing.T) {
	store := &storeStub{}
	m := newMaterializer(store)

	data := map[string]any{
		"photos": []any{
			map[string]any{
				"fileName":    "done.jpg",
				"base64":      payload("already uploaded"),
				"preview_url": "/temp-files/99-done.jpg",
			},
		},
	}

	out := m.Materialize(context.Background(), data)

	assertNoBase64(t, out)
	if store.Saves() != 0 {
		t.Fatalf("already materialized photo must not be re-saved, got %d saves", store.Saves())
	}
	photo := out["photos"].([]any)[0].(map[string]any)
	if photo["preview_url"] != "/temp-files/99-done.jpg" {
		t.Fatalf("existing preview_url must be preserved: %v", photo)
	}
}

func TestMaterializeNilPayload(t *testing.T) {
	m := newMaterializer(&storeStub{})
	if out := m.Materialize(context.Background(), nil); out != nil {
		t.Fatalf("expected nil, got %v", out)
	}
}
