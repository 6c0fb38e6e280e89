package services

import (
	"errors"
	"testing"

	"github.com/atelierhq/atelier/backend/internal/models"
)

func TestFileCreate_AssignsStorageKey(t *testing.T) {
	env := newTestEnv(t)
	owner, project := env.setup(t, models.PhaseProduction)

	a, err := env.files.Create(project.ID, &CreateFileRequest{Name: "brief.pdf"}, owner.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	b, err := env.files.Create(project.ID, &CreateFileRequest{Name: "brief.pdf"}, owner.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if a.StorageKey == "" || a.StorageKey == b.StorageKey {
		t.Fatalf("storage keys must be unique and non-empty: %q vs %q", a.StorageKey, b.StorageKey)
	}
}

func TestFileCreate_ViewerDenied(t *testing.T) {
	env := newTestEnv(t)
	_, project := env.setup(t, models.PhaseProduction)
	viewer := env.createUser(t, "viewer")
	env.addMember(t, project.ID, viewer.ID, RoleViewer)

	_, err := env.files.Create(project.ID, &CreateFileRequest{Name: "nope.png"}, viewer.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestFileDelete(t *testing.T) {
	env := newTestEnv(t)
	owner, project := env.setup(t, models.PhaseProduction)

	file, err := env.files.Create(project.ID, &CreateFileRequest{Name: "draft.mov"}, owner.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := env.files.Delete(file.ID, owner.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	files, err := env.files.List(project.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("file still listed after delete: %+v", files)
	}
}
