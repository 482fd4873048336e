package storage

import (
	"context"
	"fmt"

	"github.com/Worcesters/basicfit/internal/models"
)

// GetOrCreateUser finds or creates a user by login name.
// Returns the user ID. Updates last_seen and display_name on each call.
func (t *Tx) GetOrCreateUser(ctx context.Context, login, displayName string) (int64, error) {
	now := t.stamp()
	id, err := t.insertReturningID(ctx, `
		INSERT INTO users (login, display_name, last_seen, created_at, updated_at)
		VALUES ($1, $2, $3, $3, $3)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = $3, display_name = COALESCE(NULLIF($2, ''), users.display_name)
		RETURNING id
	`, login, displayName, now)
	if err != nil {
		return 0, fmt.Errorf("upserting user %q: %w", login, err)
	}
	return id, nil
}

// GetUser loads a user profile.
func (t *Tx) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	var goal, level string
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, login, display_name, body_weight, height_cm, goal, level,
			preferred_mode_id, last_seen, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Login, &u.DisplayName, &u.BodyWeight, &u.HeightCm, &goal, &level,
		&u.PreferredModeID, &u.LastSeen, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("querying user %d: %w", id, classify(err))
	}
	u.Goal = models.Goal(goal)
	u.Level = models.Level(level)
	return &u, nil
}

// UpdateUser writes the profile fields of u.
func (t *Tx) UpdateUser(ctx context.Context, u *models.User) error {
	u.UpdatedAt = t.stamp()
	err := t.execOne(ctx, `
		UPDATE users SET display_name = $1, body_weight = $2, height_cm = $3, goal = $4,
			level = $5, preferred_mode_id = $6, updated_at = $7
		WHERE id = $8
	`, u.DisplayName, u.BodyWeight, u.HeightCm, string(u.Goal), string(u.Level),
		u.PreferredModeID, u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("updating user %d: %w", u.ID, err)
	}
	return nil
}
