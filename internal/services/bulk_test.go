package services

import (
	"errors"
	"testing"

	"github.com/atelierhq/atelier/backend/internal/models"
)

func TestBulkTransition_AllSucceed(t *testing.T) {
	env := newTestEnv(t)
	owner, project := env.setup(t, models.PhaseProduction)

	var ids []uint
	for _, title := range []string{"a", "b", "c"} {
		task := env.createTask(t, project.ID, title, models.PhaseProduction, models.TaskStatusPending)
		ids = append(ids, task.ID)
	}

	resp, err := env.tasks.BulkTransitionStatus(ids, models.TaskStatusInProgress, owner.ID)
	if err != nil {
		t.Fatalf("BulkTransitionStatus failed: %v", err)
	}
	if resp.UpdatedCount != 3 || resp.FailedCount != 0 {
		t.Fatalf("updated=%d failed=%d, want 3/0", resp.UpdatedCount, resp.FailedCount)
	}

	var count int64
	env.db.Model(&models.Task{}).
		Where("project_id = ? AND status = ?", project.ID, models.TaskStatusInProgress).
		Count(&count)
	if count != 3 {
		t.Fatalf("expected 3 in_progress tasks, got %d", count)
	}
}

func TestBulkTransition_InvalidEdgesFailIndependently(t *testing.T) {
	env := newTestEnv(t)
	owner, project := env.setup(t, models.PhaseProduction)

	ok1 := env.createTask(t, project.ID, "movable", models.PhaseProduction, models.TaskStatusPending)
	bad := env.createTask(t, project.ID, "finished", models.PhaseProduction, models.TaskStatusCompleted)
	ok2 := env.createTask(t, project.ID, "also movable", models.PhaseProduction, models.TaskStatusPending)

	resp, err := env.tasks.BulkTransitionStatus([]uint{ok1.ID, bad.ID, ok2.ID}, models.TaskStatusInProgress, owner.ID)
	if err != nil {
		t.Fatalf("BulkTransitionStatus failed: %v", err)
	}
	if resp.UpdatedCount != 2 || resp.FailedCount != 1 {
		t.Fatalf("updated=%d failed=%d, want 2/1", resp.UpdatedCount, resp.FailedCount)
	}

	for _, result := range resp.Results {
		if result.TaskID == bad.ID {
			if result.OK || result.Reason != BulkReasonInvalidTransition {
				t.Fatalf("bad item result = %+v, want invalid_transition", result)
			}
		} else if !result.OK {
			t.Fatalf("item %d unexpectedly failed: %+v", result.TaskID, result)
		}
	}

	// The failed item keeps its state; the others moved
	var fresh models.Task
	env.db.First(&fresh, bad.ID)
	if fresh.Status != models.TaskStatusCompleted {
		t.Fatalf("rejected task mutated: status = %s", fresh.Status)
	}
}

func TestBulkTransition_MissingTaskRejectsWholeBatch(t *testing.T) {
	env := newTestEnv(t)
	owner, project := env.setup(t, models.PhaseProduction)
	task := env.createTask(t, project.ID, "real", models.PhaseProduction, models.TaskStatusPending)

	_, err := env.tasks.BulkTransitionStatus([]uint{task.ID, 99999}, models.TaskStatusInProgress, owner.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	// Admission failed before any mutation
	var fresh models.Task
	env.db.First(&fresh, task.ID)
	if fresh.Status != models.TaskStatusPending {
		t.Fatalf("task mutated despite failed admission: status = %s", fresh.Status)
	}
}

func TestBulkTransition_PermissionRejectsWholeBatch(t *testing.T) {
	env := newTestEnv(t)
	_, project := env.setup(t, models.PhaseProduction)
	viewer := env.createUser(t, "viewer")
	env.addMember(t, project.ID, viewer.ID, RoleViewer)

	t1 := env.createTask(t, project.ID, "one", models.PhaseProduction, models.TaskStatusPending)
	t2 := env.createTask(t, project.ID, "two", models.PhaseProduction, models.TaskStatusPending)

	_, err := env.tasks.BulkTransitionStatus([]uint{t1.ID, t2.ID}, models.TaskStatusInProgress, viewer.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	var count int64
	env.db.Model(&models.Task{}).
		Where("project_id = ? AND status = ?", project.ID, models.TaskStatusPending).
		Count(&count)
	if count != 2 {
		t.Fatalf("tasks mutated despite denial: %d still pending", count)
	}
}

func TestBulkTransition_EmptyBatchRejected(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.setup(t, models.PhaseProduction)

	_, err := env.tasks.BulkTransitionStatus(nil, models.TaskStatusInProgress, owner.ID)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestBulkTransition_EachItemAudited(t *testing.T) {
	env := newTestEnv(t)
	owner, project := env.setup(t, models.PhaseProduction)

	var ids []uint
	for _, title := range []string{"a", "b"} {
		task := env.createTask(t, project.ID, title, models.PhaseProduction, models.TaskStatusPending)
		ids = append(ids, task.ID)
	}

	if _, err := env.tasks.BulkTransitionStatus(ids, models.TaskStatusInProgress, owner.ID); err != nil {
		t.Fatalf("BulkTransitionStatus failed: %v", err)
	}

	var rows []models.ActivityOutbox
	env.db.Where("action = ?", ActionTaskStatusChanged).Find(&rows)
	if len(rows) != 2 {
		t.Fatalf("expected 2 audit rows, got %d", len(rows))
	}
	for _, row := range rows {
		if !row.Bulk {
			t.Errorf("audit row %d not flagged as bulk", row.ID)
		}
	}
}

func TestBulkDelete(t *testing.T) {
	env := newTestEnv(t)
	owner, project := env.setup(t, models.PhaseProduction)

	t1 := env.createTask(t, project.ID, "gone", models.PhaseProduction, models.TaskStatusPending)
	t2 := env.createTask(t, project.ID, "also gone", models.PhaseProduction, models.TaskStatusCompleted)

	resp, err := env.tasks.BulkDelete([]uint{t1.ID, t2.ID}, owner.ID)
	if err != nil {
		t.Fatalf("BulkDelete failed: %v", err)
	}
	if resp.DeletedCount != 2 {
		t.Fatalf("deleted = %d, want 2", resp.DeletedCount)
	}

	var count int64
	env.db.Model(&models.Task{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected tasks soft-deleted, %d still visible", count)
	}

	// Soft delete: the rows still exist underneath
	env.db.Unscoped().Model(&models.Task{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 2 {
		t.Fatalf("expected 2 rows retained unscoped, got %d", count)
	}
}

func TestBulkDelete_MissingTaskRejectsWholeBatch(t *testing.T) {
	env := newTestEnv(t)
	owner, project := env.setup(t, models.PhaseProduction)
	task := env.createTask(t, project.ID, "survivor", models.PhaseProduction, models.TaskStatusPending)

	_, err := env.tasks.BulkDelete([]uint{task.ID, 424242}, owner.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	var count int64
	env.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count)
	if count != 1 {
		t.Fatal("task deleted despite failed admission")
	}
}
