package storage

import (
	"context"
	"testing"

	"TubeScribe/internal/domain"
)

func TestOpenWithoutDSNIsNoOp(t *testing.T) {
	t.Parallel()

	archive, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	err = archive.Save(context.Background(), "job-1", domain.Result{Article: "# 文"})
	if err != nil {
		t.Fatalf("no-op save returned error: %v", err)
	}
	if err := archive.Close(); err != nil {
		t.Fatalf("no-op close returned error: %v", err)
	}
}
