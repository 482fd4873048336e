package mcp

import (
	"context"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/workout"
)

// DataSource abstracts the data layer for MCP tools. Both *workout.Service
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	GetSession(ctx context.Context, id int64) (*models.Session, error)
	ListSessions(ctx context.Context, in workout.ListSessionsInput) (*workout.SessionPage, error)
	ListTrackers(ctx context.Context, userID int64) ([]models.ProgressionTracker, error)
	GetRecommendation(ctx context.Context, userID, machineID, modeID int64) (*models.Recommendation, error)
	UserStats(ctx context.Context, userID int64) (*models.UserStats, error)
	ListMachines(ctx context.Context) ([]models.Machine, error)
	ListTrainingModes(ctx context.Context) ([]models.TrainingMode, error)
}

// Compile-time check: *workout.Service satisfies DataSource.
var _ DataSource = (*workout.Service)(nil)
