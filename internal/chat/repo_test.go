package chat

import (
	"context"
	"testing"

	"github.com/suPer8Hu/shopchat/internal/common"
)

func newTestJob(t *testing.T, userID uint64, message string, idempoKey *string) *Job {
	t.Helper()
	id, err := common.NewULID()
	if err != nil {
		t.Fatalf("ulid: %v", err)
	}
	return &Job{
		ID:             id,
		UserID:         userID,
		IsNewChat:      true,
		Message:        message,
		IdempotencyKey: idempoKey,
		Status:         JobQueued,
	}
}

func TestMarkJobSucceeded(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	j := newTestJob(t, 1, "hi", nil)
	if err := repo.CreateJob(ctx, j); err != nil {
		t.Fatalf("create job: %v", err)
	}

	if err := repo.MarkJobSucceeded(ctx, j.ID, "01SESSION0000000000000000X", 42); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}
	got, err := repo.GetJobByID(ctx, j.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != JobSucceeded || got.ResultMessageID == nil || *got.ResultMessageID != 42 {
		t.Fatalf("unexpected job state: %+v", got)
	}
}

func TestMarkJobSucceeded_MissingAssistantMessage(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	j := newTestJob(t, 1, "hi", nil)
	if err := repo.CreateJob(ctx, j); err != nil {
		t.Fatalf("create job: %v", err)
	}

	// a zero message id means the assistant message was never written
	if err := repo.MarkJobSucceeded(ctx, j.ID, "01SESSION0000000000000000X", 0); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}
	got, err := repo.GetJobByID(ctx, j.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != JobSucceeded {
		t.Fatalf("unexpected status: %+v", got)
	}
	if got.ResultMessageID != nil {
		t.Fatalf("result message id must stay NULL, got %d", *got.ResultMessageID)
	}
}

func TestCreateJobOrGetExisting_Idempotency(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	key := "client-key-1"
	first, created, err := repo.CreateJobOrGetExisting(ctx, newTestJob(t, 1, "hi", &key))
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if !created {
		t.Fatalf("first submit must create the job")
	}

	second, created, err := repo.CreateJobOrGetExisting(ctx, newTestJob(t, 1, "hi", &key))
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if created {
		t.Fatalf("duplicate key must not create a second job")
	}
	if second.ID != first.ID {
		t.Fatalf("expected existing job %s, got %s", first.ID, second.ID)
	}

	// the same key from a different user is a different job
	other, created, err := repo.CreateJobOrGetExisting(ctx, newTestJob(t, 2, "hi", &key))
	if err != nil {
		t.Fatalf("other user submit: %v", err)
	}
	if !created || other.ID == first.ID {
		t.Fatalf("idempotency keys must be scoped per user: %+v", other)
	}
}
