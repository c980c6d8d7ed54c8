package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/keepsakelabs/keepsake/internal/clock"
	"github.com/keepsakelabs/keepsake/internal/config"
	"github.com/keepsakelabs/keepsake/internal/tempfile/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) (domain.Store, *clock.FakeClock, string) {
	t.Helper()

	dir := t.TempDir()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if err := db.AutoMigrate(&domain.TempFile{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	fake := clock.NewFakeClock(time.Now())
	store := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fake,
		Storage: config.NewStaticStorageConfigHolder(config.StorageConfig{
			TempDir:          dir,
			ServePathPrefix:  "/temp-files",
			TTLHours:         24,
			MaxFileSizeBytes: 1 << 20,
		}),
	})
	return store, fake, dir
}

func TestSaveFileNamesAndURL(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()

	saved, err := store.SaveFile(ctx, []byte("photo bytes"), "My Dog's Photo!.JPG")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected a row id")
	}
	if !strings.HasSuffix(saved.Filename, ".jpg") {
		t.Fatalf("extension must survive sanitization: %q", saved.Filename)
	}
	if strings.ContainsAny(saved.Filename, " '!") {
		t.Fatalf("filename not sanitized: %q", saved.Filename)
	}
	if saved.URL != "/temp-files/"+saved.Filename {
		t.Fatalf("unexpected URL: %q", saved.URL)
	}

	content, err := store.GetFile(ctx, saved.Filename)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(content.Data) != "photo bytes" {
		t.Fatalf("round trip mismatch: %q", content.Data)
	}
}

func TestSaveFileSanitizesHostileExtension(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()

	// filepath.Ext keeps whatever follows the last dot; separators in the
	// extension would otherwise produce a name the store refuses to serve.
	for _, name := range []string{`art.p\x`, "art.p x", "weird.PNG?"} {
		saved, err := store.SaveFile(ctx, []byte("bytes"), name)
		if err != nil {
			t.Fatalf("save %q: %v", name, err)
		}
		if strings.ContainsAny(saved.Filename, `/\ ?`) {
			t.Fatalf("filename not sanitized: %q", saved.Filename)
		}
		if _, err := store.GetFile(ctx, saved.Filename); err != nil {
			t.Fatalf("stored file %q must be servable: %v", saved.Filename, err)
		}
	}
}

func TestSaveFileRejectsEmptyAndOversized(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()

	if _, err := store.SaveFile(ctx, nil, "empty.png"); err != domain.ErrEmptyFile {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
	if _, err := store.SaveFile(ctx, make([]byte, (1<<20)+1), "big.png"); err != domain.ErrFileTooLarge {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestGetFileRejectsTraversal(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()

	for _, name := range []string{"../etc/passwd", "a/b.png", `a\b.png`, "  ", "..", ""} {
		if _, err := store.GetFile(ctx, name); err != domain.ErrInvalidFilename {
			t.Fatalf("filename %q: expected ErrInvalidFilename, got %v", name, err)
		}
		if _, err := store.DeleteFile(ctx, name); err != domain.ErrInvalidFilename {
			t.Fatalf("delete %q: expected ErrInvalidFilename, got %v", name, err)
		}
	}
}

func TestDeleteFile(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()

	saved, err := store.SaveFile(ctx, []byte("x"), "gone.png")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	deleted, err := store.DeleteFile(ctx, saved.Filename)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatal("expected file to be deleted")
	}

	deleted, err = store.DeleteFile(ctx, saved.Filename)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Fatal("second delete must report missing")
	}
}

func TestPromoteIsIdempotent(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()

	saved, err := store.SaveFile(ctx, []byte("x"), "keep.png")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.Promote(ctx, saved.Filename, 100); err != nil {
		t.Fatalf("promote: %v", err)
	}
	// A second promotion, even for another order, is a no-op.
	if err := store.Promote(ctx, saved.Filename, 200); err != nil {
		t.Fatalf("re-promote: %v", err)
	}

	files, err := store.ListFiles(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 1 || !files[0].Promoted {
		t.Fatalf("expected one promoted file, got %+v", files)
	}

	if err := store.Promote(ctx, "missing.png", 100); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCleanupSkipsPromotedFiles(t *testing.T) {
	store, fake, _ := setupStore(t)
	ctx := context.Background()

	kept, err := store.SaveFile(ctx, []byte("kept"), "kept.png")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	swept, err := store.SaveFile(ctx, []byte("swept"), "swept.png")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Promote(ctx, kept.Filename, 7); err != nil {
		t.Fatalf("promote: %v", err)
	}

	fake.Advance(48 * time.Hour)

	result, err := store.CleanupOldFiles(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if result.Deleted != 1 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if _, err := store.GetFile(ctx, kept.Filename); err != nil {
		t.Fatalf("promoted file must survive the sweep: %v", err)
	}
	if _, err := store.GetFile(ctx, swept.Filename); err != domain.ErrNotFound {
		t.Fatalf("unpromoted file must be swept, got %v", err)
	}
}

func TestCleanupLeavesFreshFiles(t *testing.T) {
	store, fake, _ := setupStore(t)
	ctx := context.Background()

	fresh, err := store.SaveFile(ctx, []byte("fresh"), "fresh.png")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	fake.Advance(1 * time.Hour)

	result, err := store.CleanupOldFiles(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if result.Deleted != 0 {
		t.Fatalf("fresh file swept: %+v", result)
	}
	if _, err := store.GetFile(ctx, fresh.Filename); err != nil {
		t.Fatalf("fresh file must survive: %v", err)
	}
}
