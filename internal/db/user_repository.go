package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ad/go-workshop-core/internal/models"
)

type UserRepository struct {
	queue *DBQueue
}

func NewUserRepository(queue *DBQueue) *UserRepository {
	return &UserRepository{queue: queue}
}

const userColumns = `id, email, name, role, organization_id, cohort_id, is_test_user,
	ast_workshop_completed, ast_completed_at, ia_workshop_completed, ia_completed_at, created_at`

func (r *UserRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	if !user.Role.Valid() {
		return 0, fmt.Errorf("user role %q is invalid", user.Role)
	}
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		var id interface{}
		if user.ID != 0 {
			id = user.ID
		}
		res, err := db.Exec(`
			INSERT INTO users (id, email, name, role, organization_id, cohort_id, is_test_user)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, user.Email, user.Name, user.Role, user.OrganizationID, user.CohortID, user.IsTestUser)
		if err != nil {
			if IsUniqueViolation(err) {
				return nil, fmt.Errorf("user %s: %w", user.Email, ErrDuplicate)
			}
			return nil, err
		}
		return res.LastInsertId()
	})
	if err != nil {
		return 0, err
	}
	user.ID = result.(int64)
	return user.ID, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.User), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.User), nil
}

func (r *UserRepository) GetCompletionFlags(ctx context.Context, userID int64) (models.CompletionFlags, error) {
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		return loadCompletionFlags(db.QueryRow(`
			SELECT ast_workshop_completed, ast_completed_at, ia_workshop_completed, ia_completed_at
			FROM users WHERE id = ?
		`, userID))
	})
	if err != nil {
		return models.CompletionFlags{}, err
	}
	return result.(models.CompletionFlags), nil
}

// SetTestUser flags an account whose data is hard-deleted on reset.
func (r *UserRepository) SetTestUser(ctx context.Context, userID int64, isTest bool) error {
	_, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`UPDATE users SET is_test_user = ? WHERE id = ?`, isTest, userID)
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

// GetEmbeddedProgress returns the raw snapshot stored on the user row, or
// an empty string when it was cleared.
func (r *UserRepository) GetEmbeddedProgress(ctx context.Context, userID int64) (string, error) {
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		var raw sql.NullString
		err := db.QueryRow(`SELECT navigation_progress FROM users WHERE id = ?`, userID).Scan(&raw)
		return raw.String, err
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var name, orgID, cohortID sql.NullString
	var astAt, iaAt sql.NullTime
	err := row.Scan(
		&user.ID, &user.Email, &name, &user.Role, &orgID, &cohortID, &user.IsTestUser,
		&user.Completion.ASTCompleted, &astAt, &user.Completion.IACompleted, &iaAt, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Name = name.String
	if orgID.Valid {
		user.OrganizationID = &orgID.String
	}
	if cohortID.Valid {
		user.CohortID = &cohortID.String
	}
	user.Completion.ASTCompletedAt = nullTimePtr(astAt)
	user.Completion.IACompletedAt = nullTimePtr(iaAt)
	return &user, nil
}

func loadCompletionFlags(row rowScanner) (models.CompletionFlags, error) {
	var flags models.CompletionFlags
	var astAt, iaAt sql.NullTime
	if err := row.Scan(&flags.ASTCompleted, &astAt, &flags.IACompleted, &iaAt); err != nil {
		return models.CompletionFlags{}, err
	}
	flags.ASTCompletedAt = nullTimePtr(astAt)
	flags.IACompletedAt = nullTimePtr(iaAt)
	return flags, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func completionColumns(app models.AppType) (flag, at string, err error) {
	switch app {
	case models.AppAST:
		return "ast_workshop_completed", "ast_completed_at", nil
	case models.AppIA:
		return "ia_workshop_completed", "ia_completed_at", nil
	default:
		return "", "", fmt.Errorf("no completion flag for app %q", app)
	}
}
