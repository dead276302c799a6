package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"branchdesk/internal/models"
	"branchdesk/internal/repository"
	"branchdesk/internal/token"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"
)

type AlumniService interface {
	List(ctx context.Context) ([]models.Alumni, error)
	Get(ctx context.Context, id int64) (*models.Alumni, error)
	Create(ctx context.Context, actor *token.Claims, input models.CreateAlumniInput) (*models.Alumni, error)
	Update(ctx context.Context, actor *token.Claims, id int64, input models.UpdateAlumniInput) (*models.Alumni, error)
	Delete(ctx context.Context, actor *token.Claims, id int64) error
}

type alumniService struct {
	repos  repository.Manager
	rules  *CounterRules
	logger *zap.Logger
}

func NewAlumniService(repos repository.Manager, rules *CounterRules, logger *zap.Logger) AlumniService {
	return &alumniService{repos: repos, rules: rules, logger: logger}
}

var dateRule = validation.Date(models.DateLayout).Error("must be a date in YYYY-MM-DD format")

func (s *alumniService) List(ctx context.Context) ([]models.Alumni, error) {
	records, err := s.repos.Alumni(s.repos.DB()).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list alumni: %w", err)
	}
	return records, nil
}

func (s *alumniService) Get(ctx context.Context, id int64) (*models.Alumni, error) {
	record, err := s.repos.Alumni(s.repos.DB()).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAlumniNotFound
		}
		return nil, fmt.Errorf("failed to get alumni record: %w", err)
	}
	return record, nil
}

func validateCreateAlumni(in models.CreateAlumniInput) error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.UserID, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.BranchID, validation.Min(int64(1))),
		validation.Field(&in.GraduationDate, validation.Required, dateRule),
		validation.Field(&in.Degree, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.CurrentStatus, validation.Length(0, 255)),
	)
}

// Create records the user's graduation. The user leaves active membership,
// so its branch member_count drops and the alumni branch alumni_count rises.
func (s *alumniService) Create(ctx context.Context, actor *token.Claims, input models.CreateAlumniInput) (*models.Alumni, error) {
	input.Degree = strings.TrimSpace(input.Degree)
	if err := validationFailure(validateCreateAlumni(input)); err != nil {
		return nil, err
	}
	graduated, _ := time.Parse(models.DateLayout, input.GraduationDate)

	var record *models.Alumni
	err := s.repos.RunInTx(ctx, func(ctx context.Context, q repository.Querier) error {
		users := s.repos.Users(q)
		alumni := s.repos.Alumni(q)

		user, err := users.GetByIDForUpdate(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}
		if !canManage(actor, user.BranchID) {
			return ErrForbidden
		}

		branchID := input.BranchID
		if branchID == nil {
			branchID = user.BranchID
		}
		if branchID == nil {
			return fieldError("branch_id", "is required when the user has no branch")
		}
		if !canManage(actor, branchID) {
			return ErrForbidden
		}

		if _, err := alumni.GetByUserID(ctx, user.ID); err == nil {
			return ErrAlumniExists
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to check alumni record: %w", err)
		}

		record = &models.Alumni{
			UserID:         user.ID,
			BranchID:       *branchID,
			GraduationDate: graduated,
			Degree:         input.Degree,
			CurrentStatus:  input.CurrentStatus,
		}
		if err := alumni.Create(ctx, record); err != nil {
			switch {
			case errors.Is(err, repository.ErrDuplicate):
				return ErrAlumniExists
			case errors.Is(err, repository.ErrReferenced):
				return fieldError("branch_id", "branch does not exist")
			}
			return fmt.Errorf("failed to create alumni record: %w", err)
		}

		if err := s.rules.AlumniAdded(ctx, q, record.BranchID); err != nil {
			if errors.Is(err, ErrBranchNotFound) {
				return fieldError("branch_id", "branch does not exist")
			}
			return fmt.Errorf("failed to update branch alumni count: %w", err)
		}

		if counted := countedBranch(user); counted != nil {
			if err := s.rules.MemberLeft(ctx, q, *counted); err != nil {
				return fmt.Errorf("failed to update branch member count: %w", err)
			}
		}

		if err := users.UpdateStatus(ctx, user.ID, models.StatusAlumni); err != nil {
			return fmt.Errorf("failed to update user status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Alumni record created",
		zap.Int64("alumni_id", record.ID),
		zap.Int64("user_id", record.UserID),
		zap.Int64("branch_id", record.BranchID))
	return record, nil
}

func validateUpdateAlumni(in models.UpdateAlumniInput) error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.BranchID, validation.Min(int64(1))),
		validation.Field(&in.GraduationDate, validation.NilOrNotEmpty, dateRule),
		validation.Field(&in.Degree, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&in.CurrentStatus, validation.Length(0, 255)),
	)
}

func (s *alumniService) Update(ctx context.Context, actor *token.Claims, id int64, input models.UpdateAlumniInput) (*models.Alumni, error) {
	input.Degree = trimPtr(input.Degree)
	if err := validationFailure(validateUpdateAlumni(input)); err != nil {
		return nil, err
	}

	var record *models.Alumni
	err := s.repos.RunInTx(ctx, func(ctx context.Context, q repository.Querier) error {
		alumni := s.repos.Alumni(q)

		current, err := alumni.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAlumniNotFound
			}
			return fmt.Errorf("failed to lock alumni record: %w", err)
		}
		if !canManage(actor, &current.BranchID) {
			return ErrForbidden
		}

		next := *current
		if input.BranchID != nil {
			if !canManage(actor, input.BranchID) {
				return ErrForbidden
			}
			next.BranchID = *input.BranchID
		}
		if input.GraduationDate != nil {
			next.GraduationDate, _ = time.Parse(models.DateLayout, *input.GraduationDate)
		}
		if input.Degree != nil {
			next.Degree = *input.Degree
		}
		if input.CurrentStatus != nil {
			next.CurrentStatus = input.CurrentStatus
		}

		if err := alumni.Update(ctx, &next); err != nil {
			if errors.Is(err, repository.ErrReferenced) {
				return fieldError("branch_id", "branch does not exist")
			}
			return fmt.Errorf("failed to update alumni record: %w", err)
		}

		if err := s.rules.AlumniMoved(ctx, q, current.BranchID, next.BranchID); err != nil {
			if errors.Is(err, ErrBranchNotFound) {
				return fieldError("branch_id", "branch does not exist")
			}
			return fmt.Errorf("failed to update branch alumni count: %w", err)
		}

		record = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes the alumni record. The user keeps its alumni status.
func (s *alumniService) Delete(ctx context.Context, actor *token.Claims, id int64) error {
	err := s.repos.RunInTx(ctx, func(ctx context.Context, q repository.Querier) error {
		alumni := s.repos.Alumni(q)

		current, err := alumni.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAlumniNotFound
			}
			return fmt.Errorf("failed to lock alumni record: %w", err)
		}
		if !canManage(actor, &current.BranchID) {
			return ErrForbidden
		}

		deleted, err := alumni.Delete(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAlumniNotFound
			}
			return fmt.Errorf("failed to delete alumni record: %w", err)
		}

		if err := s.rules.AlumniRemoved(ctx, q, deleted.BranchID); err != nil {
			return fmt.Errorf("failed to update branch alumni count: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Alumni record deleted", zap.Int64("alumni_id", id), zap.Int64("actor_id", actor.ID))
	return nil
}
