package services

import (
	"testing"

	"github.com/atelierhq/atelier/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the full service graph against an in-memory database.
type testEnv struct {
	db       *gorm.DB
	activity *ActivityService
	perm     *PermissionService
	projects *ProjectService
	tasks    *TaskService
	members  *MemberService
	files    *FileService
	clients  *ClientService
	users    *UserService
	notify   *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
		&models.ProjectFile{},
		&models.Notification{},
		&models.ActivityLog{},
		&models.ActivityOutbox{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	activity := NewActivityService(db, nil)
	perm := NewPermissionService(db, activity)
	notify := NewNotificationService(db)

	return &testEnv{
		db:       db,
		activity: activity,
		perm:     perm,
		projects: NewProjectService(db, perm, activity, notify),
		tasks:    NewTaskService(db, perm, activity, notify),
		members:  NewMemberService(db, perm, activity),
		files:    NewFileService(db, perm, activity),
		clients:  NewClientService(db),
		users:    NewUserService(db, activity),
		notify:   notify,
	}
}

func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := models.User{Username: username, Password: "x", IsActive: true}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return &user
}

func (e *testEnv) createClient(t *testing.T, name string) *models.Client {
	t.Helper()
	client := models.Client{Name: name, CreatedBy: 1}
	if err := e.db.Create(&client).Error; err != nil {
		t.Fatalf("failed to create client %s: %v", name, err)
	}
	return &client
}

// createProject builds a project directly, bypassing the service so
// tests control the phase and skip template provisioning.
func (e *testEnv) createProject(t *testing.T, clientID, ownerID uint, phase string) *models.Project {
	t.Helper()
	project := models.Project{
		ClientID:     clientID,
		Name:         "test project",
		CurrentPhase: phase,
		Priority:     models.PriorityMedium,
		CreatedBy:    ownerID,
	}
	if err := e.db.Create(&project).Error; err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return &project
}

func (e *testEnv) addMember(t *testing.T, projectID, userID uint, role string) {
	t.Helper()
	member := models.ProjectMember{ProjectID: projectID, UserID: userID, Role: role}
	if err := e.db.Create(&member).Error; err != nil {
		t.Fatalf("failed to add member: %v", err)
	}
}

func (e *testEnv) createTask(t *testing.T, projectID uint, title, phase, status string) *models.Task {
	t.Helper()
	task := models.Task{
		ProjectID: projectID,
		Title:     title,
		Phase:     phase,
		Status:    status,
		CreatedBy: 1,
	}
	if err := e.db.Create(&task).Error; err != nil {
		t.Fatalf("failed to create task %s: %v", title, err)
	}
	return &task
}

// setup creates the common fixture: a client, an owner and a project in
// the given phase.
func (e *testEnv) setup(t *testing.T, phase string) (*models.User, *models.Project) {
	t.Helper()
	owner := e.createUser(t, "owner")
	client := e.createClient(t, "acme")
	project := e.createProject(t, client.ID, owner.ID, phase)
	return owner, project
}

func (e *testEnv) outboxCount(t *testing.T, action string) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&models.ActivityOutbox{}).Where("action = ?", action).Count(&count).Error; err != nil {
		t.Fatalf("failed to count outbox rows: %v", err)
	}
	return count
}
