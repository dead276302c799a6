package repository

import (
	"context"

	"branchdesk/internal/models"

	"go.uber.org/zap"
)

const branchColumns = `id, name, university, province, member_count, alumni_count`

type BranchRepository interface {
	Create(ctx context.Context, branch *models.Branch) error
	GetByID(ctx context.Context, id int64) (*models.Branch, error)
	List(ctx context.Context) ([]models.Branch, error)
	Update(ctx context.Context, branch *models.Branch) error
	Delete(ctx context.Context, id int64) error
	AdjustMemberCount(ctx context.Context, id int64, delta int) (int, error)
	AdjustAlumniCount(ctx context.Context, id int64, delta int) (int, error)
	Recount(ctx context.Context) (int64, error)
}

type branchRepository struct {
	db     Querier
	logger *zap.Logger
}

func NewBranchRepository(db Querier, logger *zap.Logger) BranchRepository {
	return &branchRepository{db: db, logger: logger}
}

func (r *branchRepository) Create(ctx context.Context, branch *models.Branch) error {
	query := `INSERT INTO branches (name, university, province)
		VALUES ($1, $2, $3)
		RETURNING id, member_count, alumni_count`

	err := r.db.QueryRowxContext(ctx, query, branch.Name, branch.University, branch.Province).
		Scan(&branch.ID, &branch.MemberCount, &branch.AlumniCount)
	if err != nil {
		r.logger.Error("Failed to create branch", zap.String("name", branch.Name), zap.Error(err))
		return translate(err)
	}
	return nil
}

func (r *branchRepository) GetByID(ctx context.Context, id int64) (*models.Branch, error) {
	var branch models.Branch
	query := `SELECT ` + branchColumns + ` FROM branches WHERE id = $1`
	if err := r.db.GetContext(ctx, &branch, query, id); err != nil {
		return nil, translate(err)
	}
	return &branch, nil
}

func (r *branchRepository) List(ctx context.Context) ([]models.Branch, error) {
	branches := []models.Branch{}
	query := `SELECT ` + branchColumns + ` FROM branches ORDER BY name`
	if err := r.db.SelectContext(ctx, &branches, query); err != nil {
		r.logger.Error("Failed to list branches", zap.Error(err))
		return nil, translate(err)
	}
	return branches, nil
}

// Update writes the descriptive columns only. The counters are owned by
// AdjustMemberCount, AdjustAlumniCount and Recount.
func (r *branchRepository) Update(ctx context.Context, branch *models.Branch) error {
	query := `UPDATE branches SET name = $1, university = $2, province = $3
		WHERE id = $4
		RETURNING member_count, alumni_count`

	err := r.db.QueryRowxContext(ctx, query, branch.Name, branch.University, branch.Province, branch.ID).
		Scan(&branch.MemberCount, &branch.AlumniCount)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (r *branchRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM branches WHERE id = $1`, id)
	if err != nil {
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

// AdjustMemberCount adds delta to member_count in a single statement and
// returns the stored value. The result is clamped at zero.
func (r *branchRepository) AdjustMemberCount(ctx context.Context, id int64, delta int) (int, error) {
	return r.adjust(ctx, `UPDATE branches SET member_count = GREATEST(member_count + $2, 0)
		WHERE id = $1 RETURNING member_count`, id, delta)
}

// AdjustAlumniCount is AdjustMemberCount for alumni_count.
func (r *branchRepository) AdjustAlumniCount(ctx context.Context, id int64, delta int) (int, error) {
	return r.adjust(ctx, `UPDATE branches SET alumni_count = GREATEST(alumni_count + $2, 0)
		WHERE id = $1 RETURNING alumni_count`, id, delta)
}

func (r *branchRepository) adjust(ctx context.Context, query string, id int64, delta int) (int, error) {
	var value int
	if err := r.db.QueryRowxContext(ctx, query, id, delta).Scan(&value); err != nil {
		return 0, translate(err)
	}
	return value, nil
}

// Recount recomputes both counters for every branch from the rows that
// reference it and returns the number of branches whose stored values changed.
func (r *branchRepository) Recount(ctx context.Context) (int64, error) {
	query := `UPDATE branches b
		SET member_count = c.members, alumni_count = c.alumni
		FROM (
			SELECT br.id,
				(SELECT COUNT(*) FROM users u WHERE u.branch_id = br.id AND u.status = 'active') AS members,
				(SELECT COUNT(*) FROM alumni a WHERE a.branch_id = br.id) AS alumni
			FROM branches br
		) c
		WHERE b.id = c.id AND (b.member_count <> c.members OR b.alumni_count <> c.alumni)`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to recount branch counters", zap.Error(err))
		return 0, translate(err)
	}
	return result.RowsAffected()
}
