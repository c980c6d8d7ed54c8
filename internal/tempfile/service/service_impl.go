package service

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/keepsakelabs/keepsake/internal/clock"
	"github.com/keepsakelabs/keepsake/internal/config"
	obsmetrics "github.com/keepsakelabs/keepsake/internal/observability/metrics"
	"github.com/keepsakelabs/keepsake/internal/tempfile/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Storage *config.StorageConfigHolder
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Store struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	storage *config.StorageConfigHolder
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Store {
	return &Store{
		db:      p.DB,
		log:     p.Log.Named("tempfile.store"),
		clock:   p.Clock,
		storage: p.Storage,
		metrics: p.Metrics,
	}
}

func (s *Store) SaveFile(ctx context.Context, data []byte, originalName string) (*domain.SavedFile, error) {
	cfg := s.storage.Current()
	if len(data) == 0 {
		return nil, domain.ErrEmptyFile
	}
	if int64(len(data)) > cfg.MaxFileSizeBytes {
		return nil, domain.ErrFileTooLarge
	}

	now := s.clock.Now()
	filename := fmt.Sprintf("%d-%s", now.UnixMilli(), sanitizeName(originalName))

	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.TempDir, filename), data, 0o644); err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	record := &domain.TempFile{
		ID:           ulid.Make().String(),
		Filename:     filename,
		OriginalName: strings.TrimSpace(originalName),
		ContentType:  http.DetectContentType(data),
		Size:         int64(len(data)),
		CreatedAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		// The row is bookkeeping; the orphaned file is reclaimed by the sweep.
		_ = os.Remove(filepath.Join(cfg.TempDir, filename))
		return nil, err
	}

	s.log.Debug("temp file saved",
		zap.String("filename", filename),
		zap.Int64("size", record.Size),
	)
	return &domain.SavedFile{
		ID:       record.ID,
		Filename: filename,
		URL:      cfg.ServePathPrefix + "/" + filename,
	}, nil
}

func (s *Store) GetFile(ctx context.Context, filename string) (*domain.FileContent, error) {
	if !validFilename(filename) {
		return nil, domain.ErrInvalidFilename
	}
	cfg := s.storage.Current()

	data, err := os.ReadFile(filepath.Join(cfg.TempDir, filename))
	if os.IsNotExist(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	contentType := ""
	var record domain.TempFile
	if err := s.db.WithContext(ctx).Where("filename = ?", filename).Take(&record).Error; err == nil {
		contentType = record.ContentType
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &domain.FileContent{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (s *Store) DeleteFile(ctx context.Context, filename string) (bool, error) {
	if !validFilename(filename) {
		return false, domain.ErrInvalidFilename
	}
	cfg := s.storage.Current()

	err := os.Remove(filepath.Join(cfg.TempDir, filename))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.db.WithContext(ctx).Where("filename = ?", filename).Delete(&domain.TempFile{}).Error; err != nil {
		s.log.Warn("temp file row not removed", zap.String("filename", filename), zap.Error(err))
	}
	return true, nil
}

func (s *Store) ListFiles(ctx context.Context) ([]domain.FileInfo, error) {
	cfg := s.storage.Current()

	entries, err := os.ReadDir(cfg.TempDir)
	if os.IsNotExist(err) {
		return []domain.FileInfo{}, nil
	}
	if err != nil {
		return nil, err
	}

	promoted := make(map[string]bool)
	var records []domain.TempFile
	if err := s.db.WithContext(ctx).Where("promoted_at IS NOT NULL").Find(&records).Error; err == nil {
		for i := range records {
			promoted[records[i].Filename] = true
		}
	}

	files := make([]domain.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, domain.FileInfo{
			Filename:  entry.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime().UTC(),
			Promoted:  promoted[entry.Name()],
		})
	}
	return files, nil
}

func (s *Store) Promote(ctx context.Context, filename string, orderID int64) error {
	if !validFilename(filename) {
		return domain.ErrInvalidFilename
	}

	var record domain.TempFile
	err := s.db.WithContext(ctx).Where("filename = ?", filename).Take(&record).Error
	if err == gorm.ErrRecordNotFound {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if record.Promoted() {
		return nil
	}

	now := s.clock.Now()
	return s.db.WithContext(ctx).
		Model(&domain.TempFile{}).
		Where("filename = ? AND promoted_at IS NULL", filename).
		Updates(map[string]any{
			"order_id":    orderID,
			"promoted_at": now,
		}).Error
}

// CleanupOldFiles removes unpromoted files older than the cutoff. Safe to run
// concurrently with active materializations since it only targets files
// already past the threshold.
func (s *Store) CleanupOldFiles(ctx context.Context, olderThan time.Duration) (domain.CleanupResult, error) {
	cfg := s.storage.Current()
	cutoff := s.clock.Now().Add(-olderThan)

	entries, err := os.ReadDir(cfg.TempDir)
	if os.IsNotExist(err) {
		return domain.CleanupResult{}, nil
	}
	if err != nil {
		return domain.CleanupResult{}, err
	}

	promoted := make(map[string]bool)
	var records []domain.TempFile
	if err := s.db.WithContext(ctx).Where("promoted_at IS NOT NULL").Find(&records).Error; err != nil {
		return domain.CleanupResult{}, err
	}
	for i := range records {
		promoted[records[i].Filename] = true
	}

	var result domain.CleanupResult
	for _, entry := range entries {
		if entry.IsDir() || promoted[entry.Name()] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			result.Failed++
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(cfg.TempDir, entry.Name())); err != nil {
			s.log.Warn("sweep failed to remove file",
				zap.String("filename", entry.Name()),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		_ = s.db.WithContext(ctx).Where("filename = ?", entry.Name()).Delete(&domain.TempFile{}).Error
		result.Deleted++
	}

	s.metrics.AddSweptFiles(ctx, "deleted", int64(result.Deleted))
	s.metrics.AddSweptFiles(ctx, "failed", int64(result.Failed))
	if result.Deleted > 0 || result.Failed > 0 {
		s.log.Info("temp file sweep finished",
			zap.Int("deleted", result.Deleted),
			zap.Int("failed", result.Failed),
		)
	}
	return result, nil
}

func validFilename(filename string) bool {
	if strings.TrimSpace(filename) == "" {
		return false
	}
	return !strings.Contains(filename, "..") &&
		!strings.Contains(filename, "/") &&
		!strings.Contains(filename, "\\")
}

func sanitizeName(originalName string) string {
	base := strings.TrimSpace(originalName)
	ext := filepath.Ext(base)
	name := slug.Make(strings.TrimSuffix(base, ext))
	if name == "" {
		name = "file"
	}
	// The extension gets the same treatment as the stem; filepath.Ext can
	// carry separators and other bytes validFilename would later reject.
	if suffix := slug.Make(strings.TrimPrefix(ext, ".")); suffix != "" {
		return name + "." + suffix
	}
	return name
}
