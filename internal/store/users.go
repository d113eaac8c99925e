// ABOUTME: User summary lookups for resolving sender information in push payloads
// ABOUTME: User records are owned by the platform's user service; this is a read-mostly mirror

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetUserSummary resolves a user's display summary for push payloads.
func (s *SQLiteStore) GetUserSummary(ctx context.Context, userID string) (*UserSummary, error) {
	query := `SELECT id, first_name, last_name, email, profile_image FROM users WHERE id = ?`

	u := &UserSummary{}
	var profileImage *string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&profileImage,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if profileImage != nil {
		u.ProfileImage = *profileImage
	}
	return u, nil
}

// UpsertUser writes a user summary row. The platform's user service calls
// this on user create/update so sender summaries resolve locally.
func (s *SQLiteStore) UpsertUser(ctx context.Context, u *UserSummary) error {
	query := `
		INSERT INTO users (id, first_name, last_name, email, profile_image)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			profile_image = excluded.profile_image
	`

	var profileImage *string
	if u.ProfileImage != "" {
		profileImage = &u.ProfileImage
	}

	if _, err := s.db.ExecContext(ctx, query, u.ID, u.FirstName, u.LastName, u.Email, profileImage); err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	return nil
}
