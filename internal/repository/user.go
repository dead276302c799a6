package repository

import (
	"context"

	"branchdesk/internal/models"

	"go.uber.org/zap"
)

// userColumns never includes password_hash; only GetCredentialsByEmail
// selects it.
const userColumns = `id, name, email, role, status, branch_id, is_bec_member, nec_position, bec_position, created_at, updated_at`

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.User, error)
	GetCredentialsByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	ListByBranch(ctx context.Context, branchID int64) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateStatus(ctx context.Context, id int64, status models.Status) error
	Delete(ctx context.Context, id int64) (*models.User, error)
}

type userRepository struct {
	db     Querier
	logger *zap.Logger
}

func NewUserRepository(db Querier, logger *zap.Logger) UserRepository {
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (name, email, password_hash, role, status, branch_id, is_bec_member, nec_position, bec_position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.BranchID,
		user.IsBECMember,
		user.NECPosition,
		user.BECPosition,
	).StructScan(user)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetByIDForUpdate locks the row until the surrounding transaction ends.
func (r *userRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetCredentialsByEmail is the only read path that returns password_hash.
func (r *userRepository) GetCredentialsByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + `, password_hash FROM users WHERE lower(email) = lower($1)`
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, translate(err)
	}
	return exists, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		r.logger.Error("Failed to list users", zap.Error(err))
		return nil, translate(err)
	}
	return users, nil
}

func (r *userRepository) ListByBranch(ctx context.Context, branchID int64) ([]models.User, error) {
	users := []models.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE branch_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &users, query, branchID); err != nil {
		r.logger.Error("Failed to list branch users", zap.Int64("branch_id", branchID), zap.Error(err))
		return nil, translate(err)
	}
	return users, nil
}

// Update writes the mutable profile columns. Email and password are not
// changed here.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	query := `UPDATE users
		SET name = $1, role = $2, status = $3, branch_id = $4, is_bec_member = $5,
			nec_position = $6, bec_position = $7, updated_at = CURRENT_TIMESTAMP
		WHERE id = $8
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.Name,
		user.Role,
		user.Status,
		user.BranchID,
		user.IsBECMember,
		user.NECPosition,
		user.BECPosition,
		user.ID,
	).Scan(&user.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (r *userRepository) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	query := `UPDATE users SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update user status", zap.Int64("id", id), zap.String("status", string(status)), zap.Error(err))
		return translate(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return translate(err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the user and returns the row as it was, so callers see the
// prior branch and status without a separate read.
func (r *userRepository) Delete(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := `DELETE FROM users WHERE id = $1 RETURNING ` + userColumns
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
