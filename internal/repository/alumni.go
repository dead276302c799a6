package repository

import (
	"context"

	"branchdesk/internal/models"

	"go.uber.org/zap"
)

const alumniColumns = `id, user_id, branch_id, graduation_date, degree, current_status, created_at, updated_at`

type AlumniRepository interface {
	Create(ctx context.Context, alumni *models.Alumni) error
	GetByID(ctx context.Context, id int64) (*models.Alumni, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Alumni, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Alumni, error)
	List(ctx context.Context) ([]models.Alumni, error)
	ListByBranch(ctx context.Context, branchID int64) ([]models.Alumni, error)
	Update(ctx context.Context, alumni *models.Alumni) error
	Delete(ctx context.Context, id int64) (*models.Alumni, error)
	DeleteByUserID(ctx context.Context, userID int64) (*models.Alumni, error)
}

type alumniRepository struct {
	db     Querier
	logger *zap.Logger
}

func NewAlumniRepository(db Querier, logger *zap.Logger) AlumniRepository {
	return &alumniRepository{db: db, logger: logger}
}

// Create inserts the record. A second record for the same user fails with
// ErrDuplicate.
func (r *alumniRepository) Create(ctx context.Context, alumni *models.Alumni) error {
	query := `INSERT INTO alumni (user_id, branch_id, graduation_date, degree, current_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		alumni.UserID,
		alumni.BranchID,
		alumni.GraduationDate,
		alumni.Degree,
		alumni.CurrentStatus,
	).Scan(&alumni.ID, &alumni.CreatedAt, &alumni.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (r *alumniRepository) GetByID(ctx context.Context, id int64) (*models.Alumni, error) {
	var alumni models.Alumni
	query := `SELECT ` + alumniColumns + ` FROM alumni WHERE id = $1`
	if err := r.db.GetContext(ctx, &alumni, query, id); err != nil {
		return nil, translate(err)
	}
	return &alumni, nil
}

func (r *alumniRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Alumni, error) {
	var alumni models.Alumni
	query := `SELECT ` + alumniColumns + ` FROM alumni WHERE id = $1 FOR UPDATE`
	if err := r.db.GetContext(ctx, &alumni, query, id); err != nil {
		return nil, translate(err)
	}
	return &alumni, nil
}

func (r *alumniRepository) GetByUserID(ctx context.Context, userID int64) (*models.Alumni, error) {
	var alumni models.Alumni
	query := `SELECT ` + alumniColumns + ` FROM alumni WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &alumni, query, userID); err != nil {
		return nil, translate(err)
	}
	return &alumni, nil
}

func (r *alumniRepository) List(ctx context.Context) ([]models.Alumni, error) {
	records := []models.Alumni{}
	query := `SELECT ` + alumniColumns + ` FROM alumni ORDER BY graduation_date DESC, id`
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		r.logger.Error("Failed to list alumni", zap.Error(err))
		return nil, translate(err)
	}
	return records, nil
}

func (r *alumniRepository) ListByBranch(ctx context.Context, branchID int64) ([]models.Alumni, error) {
	records := []models.Alumni{}
	query := `SELECT ` + alumniColumns + ` FROM alumni WHERE branch_id = $1 ORDER BY graduation_date DESC, id`
	if err := r.db.SelectContext(ctx, &records, query, branchID); err != nil {
		r.logger.Error("Failed to list branch alumni", zap.Int64("branch_id", branchID), zap.Error(err))
		return nil, translate(err)
	}
	return records, nil
}

func (r *alumniRepository) Update(ctx context.Context, alumni *models.Alumni) error {
	query := `UPDATE alumni
		SET branch_id = $1, graduation_date = $2, degree = $3, current_status = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		alumni.BranchID,
		alumni.GraduationDate,
		alumni.Degree,
		alumni.CurrentStatus,
		alumni.ID,
	).Scan(&alumni.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	return nil
}

// Delete removes the record and returns it as it was.
func (r *alumniRepository) Delete(ctx context.Context, id int64) (*models.Alumni, error) {
	var alumni models.Alumni
	query := `DELETE FROM alumni WHERE id = $1 RETURNING ` + alumniColumns
	if err := r.db.GetContext(ctx, &alumni, query, id); err != nil {
		return nil, translate(err)
	}
	return &alumni, nil
}

// DeleteByUserID removes the user's record, if any. ErrNotFound means the
// user had none.
func (r *alumniRepository) DeleteByUserID(ctx context.Context, userID int64) (*models.Alumni, error) {
	var alumni models.Alumni
	query := `DELETE FROM alumni WHERE user_id = $1 RETURNING ` + alumniColumns
	if err := r.db.GetContext(ctx, &alumni, query, userID); err != nil {
		return nil, translate(err)
	}
	return &alumni, nil
}
