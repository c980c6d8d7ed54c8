package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/keepsakelabs/keepsake/internal/clock"
	"github.com/keepsakelabs/keepsake/internal/config"
	tempfiledomain "github.com/keepsakelabs/keepsake/internal/tempfile/domain"
	"go.uber.org/zap"
)

type sweepStub struct {
	mu        sync.Mutex
	calls     int
	olderThan time.Duration
	result    tempfiledomain.CleanupResult
	err       error
}

func (s *sweepStub) SaveFile(ctx context.Context, data []byte, originalName string) (*tempfiledomain.SavedFile, error) {
	return nil, errors.New("not implemented")
}

func (s *sweepStub) GetFile(ctx context.Context, filename string) (*tempfiledomain.FileContent, error) {
	return nil, tempfiledomain.ErrNotFound
}

func (s *sweepStub) DeleteFile(ctx context.Context, filename string) (bool, error) {
	return false, nil
}

func (s *sweepStub) ListFiles(ctx context.Context) ([]tempfiledomain.FileInfo, error) {
	return nil, nil
}

func (s *sweepStub) Promote(ctx context.Context, filename string, orderID int64) error {
	return nil
}

func (s *sweepStub) CleanupOldFiles(ctx context.Context, olderThan time.Duration) (tempfiledomain.CleanupResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.olderThan = olderThan
	return s.result, s.err
}

func (s *sweepStub) snapshot() (int, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, s.olderThan
}

func newTestScheduler(files tempfiledomain.Store, ttlHours int) *Scheduler {
	return New(Params{
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Now()),
		Files: files,
		Storage: config.NewStaticStorageConfigHolder(config.StorageConfig{
			TTLHours:             ttlHours,
			SweepIntervalMinutes: 1,
		}),
	})
}

func TestRunOncePassesConfiguredTTL(t *testing.T) {
	stub := &sweepStub{result: tempfiledomain.CleanupResult{Deleted: 3}}
	sched := newTestScheduler(stub, 12)

	if err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	calls, olderThan := stub.snapshot()
	if calls != 1 {
		t.Fatalf("expected one sweep, got %d", calls)
	}
	if olderThan != 12*time.Hour {
		t.Fatalf("expected 12h cutoff, got %v", olderThan)
	}
}

func TestRunOncePropagatesSweepError(t *testing.T) {
	stub := &sweepStub{err: errors.New("disk gone")}
	sched := newTestScheduler(stub, 24)

	err := sched.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRunForeverStopsOnContextCancel(t *testing.T) {
	stub := &sweepStub{}
	sched := newTestScheduler(stub, 24)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.RunForever(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}

	calls, _ := stub.snapshot()
	if calls < 1 {
		t.Fatalf("expected at least one sweep before stopping, got %d", calls)
	}
}
