package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"branchdesk/internal/models"
	"branchdesk/internal/repository"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"
)

type BranchService interface {
	List(ctx context.Context) ([]models.Branch, error)
	Get(ctx context.Context, id int64) (*models.Branch, error)
	Create(ctx context.Context, input models.CreateBranchInput) (*models.Branch, error)
	Update(ctx context.Context, id int64, input models.UpdateBranchInput) (*models.Branch, error)
	Delete(ctx context.Context, id int64) error
	Members(ctx context.Context, id int64) ([]models.User, error)
	Alumni(ctx context.Context, id int64) ([]models.Alumni, error)
	Reconcile(ctx context.Context) (int64, error)
}

type branchService struct {
	repos  repository.Manager
	logger *zap.Logger
}

func NewBranchService(repos repository.Manager, logger *zap.Logger) BranchService {
	return &branchService{repos: repos, logger: logger}
}

func (s *branchService) List(ctx context.Context) ([]models.Branch, error) {
	branches, err := s.repos.Branches(s.repos.DB()).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	return branches, nil
}

func (s *branchService) Get(ctx context.Context, id int64) (*models.Branch, error) {
	branch, err := s.repos.Branches(s.repos.DB()).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBranchNotFound
		}
		return nil, fmt.Errorf("failed to get branch: %w", err)
	}
	return branch, nil
}

func validateBranch(name, university, province *string) error {
	rules := []validation.Rule{validation.Required, validation.Length(1, 255)}
	errs := validation.Errors{}
	if name != nil {
		errs["name"] = validation.Validate(*name, rules...)
	}
	if university != nil {
		errs["university"] = validation.Validate(*university, rules...)
	}
	if province != nil {
		errs["province"] = validation.Validate(*province, rules...)
	}
	return errs.Filter()
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func (s *branchService) Create(ctx context.Context, input models.CreateBranchInput) (*models.Branch, error) {
	branch := &models.Branch{
		Name:       strings.TrimSpace(input.Name),
		University: strings.TrimSpace(input.University),
		Province:   strings.TrimSpace(input.Province),
	}
	if err := validationFailure(validateBranch(&branch.Name, &branch.University, &branch.Province)); err != nil {
		return nil, err
	}

	if err := s.repos.Branches(s.repos.DB()).Create(ctx, branch); err != nil {
		return nil, fmt.Errorf("failed to create branch: %w", err)
	}

	s.logger.Info("Branch created", zap.Int64("branch_id", branch.ID), zap.String("name", branch.Name))
	return branch, nil
}

func (s *branchService) Update(ctx context.Context, id int64, input models.UpdateBranchInput) (*models.Branch, error) {
	input.Name, input.University, input.Province = trimPtr(input.Name), trimPtr(input.University), trimPtr(input.Province)
	if err := validationFailure(validateBranch(input.Name, input.University, input.Province)); err != nil {
		return nil, err
	}

	var branch *models.Branch
	err := s.repos.RunInTx(ctx, func(ctx context.Context, q repository.Querier) error {
		branches := s.repos.Branches(q)

		current, err := branches.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrBranchNotFound
			}
			return fmt.Errorf("failed to get branch: %w", err)
		}

		if input.Name != nil {
			current.Name = *input.Name
		}
		if input.University != nil {
			current.University = *input.University
		}
		if input.Province != nil {
			current.Province = *input.Province
		}

		if err := branches.Update(ctx, current); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrBranchNotFound
			}
			return fmt.Errorf("failed to update branch: %w", err)
		}
		branch = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return branch, nil
}

// Delete refuses while any user or alumni row still references the branch.
func (s *branchService) Delete(ctx context.Context, id int64) error {
	err := s.repos.Branches(s.repos.DB()).Delete(ctx, id)
	switch {
	case err == nil:
		s.logger.Info("Branch deleted", zap.Int64("branch_id", id))
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrBranchNotFound
	case errors.Is(err, repository.ErrReferenced):
		return ErrBranchInUse
	default:
		return fmt.Errorf("failed to delete branch: %w", err)
	}
}

func (s *branchService) Members(ctx context.Context, id int64) ([]models.User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	users, err := s.repos.Users(s.repos.DB()).ListByBranch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list branch members: %w", err)
	}
	return users, nil
}

func (s *branchService) Alumni(ctx context.Context, id int64) ([]models.Alumni, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	records, err := s.repos.Alumni(s.repos.DB()).ListByBranch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list branch alumni: %w", err)
	}
	return records, nil
}

// Reconcile recomputes every branch counter from row counts and returns how
// many branches had drifted.
func (s *branchService) Reconcile(ctx context.Context) (int64, error) {
	changed, err := s.repos.Branches(s.repos.DB()).Recount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to recount branches: %w", err)
	}
	if changed > 0 {
		s.logger.Warn("Branch counters were out of sync and have been repaired", zap.Int64("branches", changed))
	} else {
		s.logger.Info("Branch counters are consistent")
	}
	return changed, nil
}
