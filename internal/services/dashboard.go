package services

import (
	"github.com/atelierhq/atelier/backend/internal/models"
	"gorm.io/gorm"
)

// DashboardService aggregates counts for the overview page.
type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

type DashboardStats struct {
	TotalClients     int64            `json:"total_clients"`
	TotalProjects    int64            `json:"total_projects"`
	TotalTasks       int64            `json:"total_tasks"`
	ProjectsPerPhase map[string]int64 `json:"projects_per_phase"`
	TasksPerStatus   map[string]int64 `json:"tasks_per_status"`
	OverdueTasks     int64            `json:"overdue_tasks"`
}

type groupCount struct {
	Key   string
	Count int64
}

// GetStats returns aggregate counts across clients, projects and tasks.
func (s *DashboardService) GetStats() (*DashboardStats, error) {
	stats := &DashboardStats{
		ProjectsPerPhase: make(map[string]int64),
		TasksPerStatus:   make(map[string]int64),
	}

	s.db.Model(&models.Client{}).Count(&stats.TotalClients)
	s.db.Model(&models.Project{}).Count(&stats.TotalProjects)
	s.db.Model(&models.Task{}).Count(&stats.TotalTasks)

	var phases []groupCount
	if err := s.db.Model(&models.Project{}).
		Select("current_phase AS key, COUNT(*) AS count").
		Group("current_phase").
		Scan(&phases).Error; err != nil {
		return nil, storageErr(err)
	}
	for _, p := range phases {
		stats.ProjectsPerPhase[p.Key] = p.Count
	}

	var statuses []groupCount
	if err := s.db.Model(&models.Task{}).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&statuses).Error; err != nil {
		return nil, storageErr(err)
	}
	for _, st := range statuses {
		stats.TasksPerStatus[st.Key] = st.Count
	}

	s.db.Model(&models.Task{}).
		Where("due_date < CURRENT_TIMESTAMP AND status NOT IN ?", []string{models.TaskStatusCompleted}).
		Count(&stats.OverdueTasks)

	return stats, nil
}
