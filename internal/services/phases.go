package services

import (
	"strings"

	"github.com/atelierhq/atelier/backend/internal/models"
)

// phaseOrder is the fixed five-stage project pipeline.
var phaseOrder = []string{
	models.PhaseClientAcquisition,
	models.PhaseStrategyPlanning,
	models.PhaseProduction,
	models.PhasePostProduction,
	models.PhaseDelivery,
}

// phaseTemplateTasks maps each phase to the task titles provisioned when
// a project enters it.
var phaseTemplateTasks = map[string][]string{
	models.PhaseClientAcquisition: {
		"Initial client meeting",
		"Prepare proposal",
		"Sign contract",
	},
	models.PhaseStrategyPlanning: {
		"Kickoff workshop",
		"Define creative brief",
		"Build project timeline",
	},
	models.PhaseProduction: {
		"Production kickoff",
		"First draft review",
		"Internal QA pass",
	},
	models.PhasePostProduction: {
		"Client review round",
		"Apply revision notes",
		"Final QA pass",
	},
	models.PhaseDelivery: {
		"Prepare deliverables package",
		"Client handoff meeting",
		"Project retrospective",
	},
}

// IsValidPhase reports whether p is one of the five pipeline phases.
func IsValidPhase(p string) bool {
	for _, phase := range phaseOrder {
		if phase == p {
			return true
		}
	}
	return false
}

// NextPhase returns the phase immediately following current, or false if
// current is the last phase (or not a phase at all).
func NextPhase(current string) (string, bool) {
	for i, phase := range phaseOrder {
		if phase == current && i+1 < len(phaseOrder) {
			return phaseOrder[i+1], true
		}
	}
	return "", false
}

// TemplateTasks returns the template task titles for a phase.
func TemplateTasks(phase string) []string {
	return phaseTemplateTasks[phase]
}

// normalizeTitle folds case and collapses whitespace so template
// provisioning can match existing titles loosely.
func normalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// taskStatusEdges defines the allowed task status transitions.
// Completed is terminal: no edges leave it.
var taskStatusEdges = map[string][]string{
	models.TaskStatusPending:    {models.TaskStatusInProgress},
	models.TaskStatusInProgress: {models.TaskStatusCompleted, models.TaskStatusBlocked},
	models.TaskStatusBlocked:    {models.TaskStatusInProgress},
	models.TaskStatusCompleted:  {},
}

// IsValidTaskStatus reports whether s is a known task status.
func IsValidTaskStatus(s string) bool {
	_, ok := taskStatusEdges[s]
	return ok
}

func statusEdgeAllowed(from, to string) bool {
	for _, next := range taskStatusEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}
