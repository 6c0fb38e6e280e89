package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/atelierhq/atelier/backend/internal/models"
)

func TestProjectCreate_StartsInFirstPhaseWithTemplates(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner")
	client := env.createClient(t, "acme")

	project, err := env.projects.Create(&CreateProjectRequest{
		ClientID: client.ID,
		Name:     "brand refresh",
	}, owner.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if project.CurrentPhase != models.PhaseClientAcquisition {
		t.Fatalf("phase = %s, want client_acquisition", project.CurrentPhase)
	}

	var tasks []models.Task
	env.db.Where("project_id = ?", project.ID).Find(&tasks)
	if len(tasks) != len(TemplateTasks(models.PhaseClientAcquisition)) {
		t.Fatalf("expected %d template tasks, got %d", len(TemplateTasks(models.PhaseClientAcquisition)), len(tasks))
	}
	for _, task := range tasks {
		if task.Status != models.TaskStatusPending {
			t.Errorf("template task %q created as %s, want pending", task.Title, task.Status)
		}
	}
}

func TestProjectCreate_UnknownClientRejected(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner")

	_, err := env.projects.Create(&CreateProjectRequest{ClientID: 12345, Name: "orphan"}, owner.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestProjectCreate_DeadlineBeforeStartRejected(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner")
	client := env.createClient(t, "acme")

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	deadline := start.AddDate(0, 0, -7)
	_, err := env.projects.Create(&CreateProjectRequest{
		ClientID:  client.ID,
		Name:      "time travel",
		StartDate: &start,
		Deadline:  &deadline,
	}, owner.ID)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestTransitionPhase_SingleStepForward(t *testing.T) {
	env := newTestEnv(t)
	owner, project := env.setup(t, models.PhaseClientAcquisition)

	got, err := env.projects.TransitionPhase(project.ID, models.PhaseStrategyPlanning, owner.ID, "contract signed")
	if err != nil {
		t.Fatalf("TransitionPhase failed: %v", err)
	}
	if got.CurrentPhase != models.PhaseStrategyPlanning {
		t.Fatalf("phase = %s, want strategy_planning", got.CurrentPhase)
	}

	// Destination phase templates provisioned
	var count int64
	env.db.Model(&models.Task{}).
		Where("project_id = ? AND phase = ?", project.ID, models.PhaseStrategyPlanning).
		Count(&count)
	if count != int64(len(TemplateTasks(models.PhaseStrategyPlanning))) {
		t.Fatalf("expected %d provisioned tasks, got %d", len(TemplateTasks(models.PhaseStrategyPlanning)), count)
	}
}

func TestTransitionPhase_SkipRejected(t *testing.T) {
	env := newTestEnv(t)
	owner, project := env.setup(t, models.PhaseClientAcquisition)

	_, err := env.projects.TransitionPhase(project.ID, models.PhaseProduction, owner.ID, "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionPhase_RegressRejected(t *testing.T) {
	env := newTestEnv(t)
	owner, project := env.setup(t, models.PhaseProduction)

	_, err := env.projects.TransitionPhase(project.ID, models.PhaseStrategyPlanning, owner.ID, "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionPhase_PastDeliveryRejected(t *testing.T) {
	env := newTestEnv(t)
	owner, project := env.setup(t, models.PhaseDelivery)

	for _, next := range phaseOrder {
		if _, err := env.projects.TransitionPhase(project.ID, next, owner.ID, ""); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("delivery -> %s: err = %v, want ErrInvalidTransition", next, err)
		}
	}
}

func TestTransitionPhase_ProvisioningIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	owner, project := env.setup(t, models.PhaseClientAcquisition)

	// A manually created task matching a template title (loosely) must
	// not be duplicated by provisioning
	env.createTask(t, project.ID, "KICKOFF   Workshop", models.PhaseStrategyPlanning, models.TaskStatusPending)

	if _, err := env.projects.TransitionPhase(project.ID, models.PhaseStrategyPlanning, owner.ID, ""); err != nil {
		t.Fatalf("TransitionPhase failed: %v", err)
	}

	var tasks []models.Task
	env.db.Where("project_id = ? AND phase = ?", project.ID, models.PhaseStrategyPlanning).Find(&tasks)
	if len(tasks) != len(TemplateTasks(models.PhaseStrategyPlanning)) {
		t.Fatalf("expected %d tasks after provisioning, got %d", len(TemplateTasks(models.PhaseStrategyPlanning)), len(tasks))
	}

	seen := make(map[string]int)
	for _, task := range tasks {
		seen[normalizeTitle(task.Title)]++
	}
	for title, n := range seen {
		if n > 1 {
			t.Errorf("title %q provisioned %d times", title, n)
		}
	}
}

func TestTransitionPhase_ViewerDenied(t *testing.T) {
	env := newTestEnv(t)
	_, project := env.setup(t, models.PhaseClientAcquisition)
	viewer := env.createUser(t, "viewer")
	env.addMember(t, project.ID, viewer.ID, RoleViewer)

	_, err := env.projects.TransitionPhase(project.ID, models.PhaseStrategyPlanning, viewer.ID, "")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestTransitionPhase_AuditRecordsEdgeAndReason(t *testing.T) {
	env := newTestEnv(t)
	owner, project := env.setup(t, models.PhaseClientAcquisition)

	if _, err := env.projects.TransitionPhase(project.ID, models.PhaseStrategyPlanning, owner.ID, "client approved"); err != nil {
		t.Fatalf("TransitionPhase failed: %v", err)
	}

	var row models.ActivityOutbox
	if err := env.db.Where("action = ?", ActionPhaseTransitioned).First(&row).Error; err != nil {
		t.Fatalf("no audit row staged: %v", err)
	}
	for _, want := range []string{`"from":"client_acquisition"`, `"to":"strategy_planning"`, `"reason":"client approved"`} {
		if !strings.Contains(row.Details, want) {
			t.Errorf("details %q missing %q", row.Details, want)
		}
	}
}

func TestProjectDelete_OwnerCascades(t *testing.T) {
	env := newTestEnv(t)
	owner, project := env.setup(t, models.PhaseProduction)
	member := env.createUser(t, "member")
	env.addMember(t, project.ID, member.ID, RoleMember)
	env.createTask(t, project.ID, "doomed", models.PhaseProduction, models.TaskStatusPending)
	env.db.Create(&models.ProjectFile{ProjectID: project.ID, Name: "brief.pdf", StorageKey: "key-1", UploadedBy: owner.ID})

	deleted, err := env.projects.Delete(project.ID, owner.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !deleted {
		t.Fatal("Delete returned false for the owner")
	}

	var count int64
	env.db.Model(&models.Project{}).Where("id = ?", project.ID).Count(&count)
	if count != 0 {
		t.Error("project still visible after delete")
	}
	env.db.Model(&models.Task{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 0 {
		t.Error("tasks still visible after cascade")
	}
	env.db.Model(&models.ProjectFile{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 0 {
		t.Error("files still visible after cascade")
	}
	env.db.Unscoped().Model(&models.ProjectMember{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 0 {
		t.Error("membership rows not removed")
	}

	// Soft delete retains the rows underneath for the ledger
	env.db.Unscoped().Model(&models.Project{}).Where("id = ?", project.ID).Count(&count)
	if count != 1 {
		t.Error("project row hard-deleted, expected soft delete")
	}
}

func TestProjectDelete_ManagerDenied(t *testing.T) {
	env := newTestEnv(t)
	_, project := env.setup(t, models.PhaseProduction)
	manager := env.createUser(t, "manager")
	env.addMember(t, project.ID, manager.ID, RoleManager)
	env.createTask(t, project.ID, "safe", models.PhaseProduction, models.TaskStatusPending)

	_, err := env.projects.Delete(project.ID, manager.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	var count int64
	env.db.Model(&models.Project{}).Where("id = ?", project.ID).Count(&count)
	if count != 1 {
		t.Fatal("project deleted by a non-owner")
	}
	env.db.Model(&models.Task{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 1 {
		t.Fatal("tasks touched by a denied delete")
	}

	if n := env.outboxCount(t, ActionAuthzDenied); n != 1 {
		t.Fatalf("expected 1 authz_denied entry, got %d", n)
	}
}

func TestProjectList_ScopedToOwnershipAndMembership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner")
	other := env.createUser(t, "other")
	joiner := env.createUser(t, "joiner")
	client := env.createClient(t, "acme")

	mine := env.createProject(t, client.ID, owner.ID, models.PhaseClientAcquisition)
	theirs := env.createProject(t, client.ID, other.ID, models.PhaseClientAcquisition)
	env.addMember(t, theirs.ID, joiner.ID, RoleViewer)

	resp, err := env.projects.List(&ProjectListRequest{}, owner.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.Total != 1 || resp.Items[0].ID != mine.ID {
		t.Fatalf("owner sees %d projects, want exactly their own", resp.Total)
	}

	resp, err = env.projects.List(&ProjectListRequest{}, joiner.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.Total != 1 || resp.Items[0].ID != theirs.ID {
		t.Fatalf("member sees %d projects, want exactly the joined one", resp.Total)
	}
}
