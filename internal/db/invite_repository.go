package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ad/go-workshop-core/internal/models"
)

type InviteRepository struct {
	queue *DBQueue
}

func NewInviteRepository(queue *DBQueue) *InviteRepository {
	return &InviteRepository{queue: queue}
}

const inviteColumns = `code, email, role, name, cohort_id, organization_id,
	created_by, created_at, expires_at, used_at, used_by`

// Create stores a new token. A code collision yields ErrDuplicate.
func (r *InviteRepository) Create(ctx context.Context, token *models.InviteToken) error {
	if len(token.Code) > MaxInviteCodeLength {
		return fmt.Errorf("invite code longer than %d characters", MaxInviteCodeLength)
	}
	_, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			INSERT INTO invites (code, email, role, name, cohort_id, organization_id, created_by, created_at, expires_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, token.Code, token.Email, token.Role, token.Name, token.CohortID, token.OrganizationID,
			token.CreatedBy, token.CreatedAt.UTC(), utcPtr(token.ExpiresAt))
		if err != nil && IsUniqueViolation(err) {
			return nil, fmt.Errorf("invite %s: %w", token.Code, ErrDuplicate)
		}
		return nil, err
	})
	return err
}

// GetByCode returns the token or sql.ErrNoRows.
func (r *InviteRepository) GetByCode(ctx context.Context, code string) (*models.InviteToken, error) {
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		return scanInvite(db.QueryRow(`SELECT `+inviteColumns+` FROM invites WHERE code = ?`, code))
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.InviteToken), nil
}

// Redeem marks the token used by userID if it is unused and unexpired at
// now. The check and the write are a single conditional UPDATE, so of any
// number of concurrent callers at most one gets redeemed == true. The
// token is returned in its post-attempt state either way.
func (r *InviteRepository) Redeem(ctx context.Context, code string, userID int64, now time.Time) (*models.InviteToken, bool, error) {
	type outcome struct {
		token    *models.InviteToken
		redeemed bool
	}
	now = now.UTC()
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`
			UPDATE invites SET used_at = ?, used_by = ?
			WHERE code = ? AND used_at IS NULL AND (expires_at IS NULL OR expires_at > ?)
		`, now, userID, code, now)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		token, err := scanInvite(db.QueryRow(`SELECT `+inviteColumns+` FROM invites WHERE code = ?`, code))
		if err != nil {
			return nil, err
		}
		return outcome{token: token, redeemed: n == 1}, nil
	})
	if err != nil {
		return nil, false, err
	}
	o := result.(outcome)
	return o.token, o.redeemed, nil
}

// DeleteUnused removes a token that has not been redeemed. Returns
// sql.ErrNoRows when no unused token with that code exists.
func (r *InviteRepository) DeleteUnused(ctx context.Context, code string) error {
	_, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`DELETE FROM invites WHERE code = ? AND used_at IS NULL`, code)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, sql.ErrNoRows
		}
		return nil, nil
	})
	return err
}

// ListByCreator returns the tokens issued by creatorID, newest first.
func (r *InviteRepository) ListByCreator(ctx context.Context, creatorID int64) ([]*models.InviteToken, error) {
	return r.list(ctx, `SELECT `+inviteColumns+` FROM invites WHERE created_by = ? ORDER BY created_at DESC, code`, creatorID)
}

func (r *InviteRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.InviteToken, error) {
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		tokens := []*models.InviteToken{}
		for rows.Next() {
			token, err := scanInvite(rows)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token)
		}
		return tokens, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.InviteToken), nil
}

func scanInvite(row rowScanner) (*models.InviteToken, error) {
	var token models.InviteToken
	var name, cohortID, orgID sql.NullString
	var expiresAt, usedAt sql.NullTime
	var usedBy sql.NullInt64
	err := row.Scan(
		&token.Code, &token.Email, &token.Role, &name, &cohortID, &orgID,
		&token.CreatedBy, &token.CreatedAt, &expiresAt, &usedAt, &usedBy,
	)
	if err != nil {
		return nil, err
	}
	if name.Valid {
		token.Name = &name.String
	}
	if cohortID.Valid {
		token.CohortID = &cohortID.String
	}
	if orgID.Valid {
		token.OrganizationID = &orgID.String
	}
	token.ExpiresAt = nullTimePtr(expiresAt)
	token.UsedAt = nullTimePtr(usedAt)
	if usedBy.Valid {
		token.UsedBy = &usedBy.Int64
	}
	return &token, nil
}

func utcPtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
