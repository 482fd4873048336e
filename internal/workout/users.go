package workout

import (
	"context"
	"strings"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/storage"
	"github.com/Worcesters/basicfit/internal/training"
)

// GetOrCreateUser maps a login onto a user ID, creating the user on first
// sight and refreshing last-seen on every call.
func (s *Service) GetOrCreateUser(ctx context.Context, login, displayName string) (int64, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return 0, &OpError{Op: "resolve", Resource: "user", Err: validationf("login is required")}
	}
	var id int64
	err := s.run(ctx, "resolve", "user", 0, func(ctx context.Context, r storage.Repository) error {
		var err error
		id, err = r.GetOrCreateUser(ctx, login, displayName)
		return err
	})
	return id, err
}

func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u *models.User
	err := s.run(ctx, "get", "user", id, func(ctx context.Context, r storage.Repository) error {
		var err error
		u, err = r.GetUser(ctx, id)
		return notFound("user", id, err)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ProfileInput updates a user's profile. Nil fields are left unchanged.
type ProfileInput struct {
	DisplayName     *string       `json:"display_name,omitempty"`
	BodyWeight      *float64      `json:"body_weight,omitempty"`
	HeightCm        *int          `json:"height_cm,omitempty"`
	Goal            *models.Goal  `json:"goal,omitempty"`
	Level           *models.Level `json:"level,omitempty"`
	PreferredModeID *int64        `json:"preferred_mode_id,omitempty"`
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*models.User, error) {
	var c checker
	c.check(positiveOrNil(in.BodyWeight), "body_weight must be positive")
	c.check(in.HeightCm == nil || *in.HeightCm > 0, "height_cm must be positive")
	c.check(in.Goal == nil || in.Goal.IsValid(), "unknown goal")
	c.check(in.Level == nil || in.Level.IsValid(), "unknown level")
	if err := c.err(); err != nil {
		return nil, &OpError{Op: "update", Resource: "user", ID: userID, Err: err}
	}

	var u *models.User
	err := s.run(ctx, "update", "user", userID, func(ctx context.Context, r storage.Repository) error {
		var err error
		u, err = r.GetUser(ctx, userID)
		if err != nil {
			return notFound("user", userID, err)
		}
		if in.DisplayName != nil {
			u.DisplayName = strings.TrimSpace(*in.DisplayName)
		}
		if in.BodyWeight != nil {
			u.BodyWeight = in.BodyWeight
		}
		if in.HeightCm != nil {
			u.HeightCm = in.HeightCm
		}
		if in.Goal != nil {
			u.Goal = *in.Goal
		}
		if in.Level != nil {
			u.Level = *in.Level
		}
		if in.PreferredModeID != nil {
			if _, err := r.GetTrainingMode(ctx, *in.PreferredModeID); err != nil {
				return notFound("training mode", *in.PreferredModeID, err)
			}
			u.PreferredModeID = in.PreferredModeID
		}
		return r.UpdateUser(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UserStats summarizes a user's completed sessions and trackers.
func (s *Service) UserStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	var st models.UserStats
	err := s.run(ctx, "stats", "user", userID, func(ctx context.Context, r storage.Repository) error {
		sessions, err := r.ListSessions(ctx, storage.SessionFilter{UserID: userID, Status: models.SessionCompleted})
		if err != nil {
			return err
		}
		entries, err := r.ListUserExercises(ctx, userID, models.SessionCompleted)
		if err != nil {
			return err
		}
		bySession := make(map[int64][]models.ExerciseEntry)
		for _, e := range entries {
			bySession[e.SessionID] = append(bySession[e.SessionID], e)
		}
		for i := range sessions {
			sessions[i].Exercises = bySession[sessions[i].ID]
		}
		trackers, err := r.ListTrackers(ctx, userID)
		if err != nil {
			return err
		}
		machines, err := r.ListMachines(ctx)
		if err != nil {
			return err
		}
		names := make(map[int64]string, len(machines))
		for _, m := range machines {
			names[m.ID] = m.Name
		}
		st = training.BuildUserStats(sessions, trackers, names)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// DataStats returns storage-level counts for a user.
func (s *Service) DataStats(ctx context.Context, userID int64) (*storage.DataStats, error) {
	var st *storage.DataStats
	err := s.run(ctx, "data stats", "user", userID, func(ctx context.Context, r storage.Repository) error {
		var err error
		st, err = r.GetDataStats(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}
