package visit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRepoMemory_RejectedMutationKeepsVisit(t *testing.T) {
	ctx := context.Background()
	repo := NewRepoMemory().(*visitRepoMemory)

	v := &Visit{PatientID: uuid.New(), DoctorID: uuid.New(), VisitDate: time.Now(), Status: StatusInProgress}
	if err := repo.Create(ctx, v); err != nil {
		t.Fatalf("Create: %v", err)
	}

	reject := errors.New("visit is closed")
	var out Visit
	err := repo.mutate(v.ID, &out, func(cur *Visit) error {
		cur.Status = StatusCancelled
		return reject
	})
	if !errors.Is(err, reject) {
		t.Fatalf("expected the closure error, got %v", err)
	}

	got, err := repo.GetByID(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusInProgress {
		t.Errorf("expected status %q to survive, got %q", StatusInProgress, got.Status)
	}
}
