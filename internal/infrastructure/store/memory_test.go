package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"TubeScribe/internal/domain"
)

func newTestStore(retention time.Duration) (*MemoryStore, *time.Time) {
	s := NewMemoryStore(retention)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestCreateThenGet(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(time.Hour)
	defer s.Close()

	job := domain.Job{ID: "a1", Topic: "机器学习", Status: domain.StatusPending}
	if err := s.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Get(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Topic != job.Topic || got.Status != domain.StatusPending {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestGetUnknownID(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(time.Hour)
	defer s.Close()

	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdateReplacesWholeRecord(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(time.Hour)
	defer s.Close()

	ctx := context.Background()
	if err := s.Create(ctx, domain.Job{ID: "a1", Status: domain.StatusPending, Message: "queued"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Update(ctx, domain.Job{ID: "a1", Status: domain.StatusProcessing, Progress: 0.4}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.StatusProcessing || got.Progress != 0.4 {
		t.Fatalf("update not applied: %+v", got)
	}
	if got.Message != "" {
		t.Fatalf("stale field survived replacement: %q", got.Message)
	}
}

func TestRecordsExpireAfterRetention(t *testing.T) {
	t.Parallel()

	s, now := newTestStore(time.Hour)
	defer s.Close()

	ctx := context.Background()
	if err := s.Create(ctx, domain.Job{ID: "a1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	*now = now.Add(59 * time.Minute)
	if _, err := s.Get(ctx, "a1"); err != nil {
		t.Fatalf("record expired too early: %v", err)
	}

	*now = now.Add(2 * time.Minute)
	if _, err := s.Get(ctx, "a1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound after retention, got %v", err)
	}
}

func TestWriteRefreshesRetention(t *testing.T) {
	t.Parallel()

	s, now := newTestStore(time.Hour)
	defer s.Close()

	ctx := context.Background()
	if err := s.Create(ctx, domain.Job{ID: "a1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	*now = now.Add(50 * time.Minute)
	if err := s.Update(ctx, domain.Job{ID: "a1", Status: domain.StatusProcessing}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	*now = now.Add(50 * time.Minute)
	if _, err := s.Get(ctx, "a1"); err != nil {
		t.Fatalf("refresh on write not honored: %v", err)
	}
}

func TestEvictExpiredDropsOnlyStaleRecords(t *testing.T) {
	t.Parallel()

	s, now := newTestStore(time.Hour)
	defer s.Close()

	ctx := context.Background()
	if err := s.Create(ctx, domain.Job{ID: "old"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	*now = now.Add(30 * time.Minute)
	if err := s.Create(ctx, domain.Job{ID: "fresh"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	*now = now.Add(45 * time.Minute)
	s.evictExpired()

	if _, ok := s.jobs["old"]; ok {
		t.Fatal("expired record survived sweep")
	}
	if _, ok := s.jobs["fresh"]; !ok {
		t.Fatal("live record dropped by sweep")
	}
}
