package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"branchdesk/internal/models"
	"branchdesk/internal/repository"
	"branchdesk/internal/token"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"
)

type MemberService interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, actor *token.Claims, id int64, input models.UpdateUserInput) (*models.User, error)
	Delete(ctx context.Context, actor *token.Claims, id int64) error
}

type memberService struct {
	repos  repository.Manager
	rules  *CounterRules
	logger *zap.Logger
}

func NewMemberService(repos repository.Manager, rules *CounterRules, logger *zap.Logger) MemberService {
	return &memberService{repos: repos, rules: rules, logger: logger}
}

func (s *memberService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repos.Users(s.repos.DB()).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *memberService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repos.Users(s.repos.DB()).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func validateUpdateUser(in models.UpdateUserInput) error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&in.Role, validation.NilOrNotEmpty,
			validation.In(string(models.RoleMember), string(models.RoleBEC), string(models.RoleNEC))),
		// alumni status is only reachable by creating an alumni record
		validation.Field(&in.Status, validation.NilOrNotEmpty,
			validation.In(string(models.StatusActive), string(models.StatusInactive), string(models.StatusSuspended))),
		validation.Field(&in.BranchID, validation.Min(int64(1))),
		validation.Field(&in.NECPosition, validation.Length(0, 255)),
		validation.Field(&in.BECPosition, validation.Length(0, 255)),
	)
}

// canUpdate applies the ownership rules: nec edits anyone, bec edits members
// of its own branch without touching role or branch, and a member edits only
// its own name.
func canUpdate(actor *token.Claims, target *models.User, in models.UpdateUserInput) bool {
	switch actor.Role {
	case models.RoleNEC:
		return true
	case models.RoleBEC:
		if target.BranchID == nil || !actor.InBranch(*target.BranchID) {
			return false
		}
		if in.Role != nil && models.Role(*in.Role) != target.Role {
			return false
		}
		return in.BranchID == nil || *in.BranchID == *target.BranchID
	default:
		if actor.ID != target.ID {
			return false
		}
		return in.Role == nil && in.Status == nil && in.BranchID == nil &&
			in.IsBECMember == nil && in.NECPosition == nil && in.BECPosition == nil
	}
}

func (s *memberService) Update(ctx context.Context, actor *token.Claims, id int64, input models.UpdateUserInput) (*models.User, error) {
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	if err := validationFailure(validateUpdateUser(input)); err != nil {
		return nil, err
	}

	var updated *models.User
	err := s.repos.RunInTx(ctx, func(ctx context.Context, q repository.Querier) error {
		users := s.repos.Users(q)

		current, err := users.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}
		if current.Status == models.StatusAlumni && input.Status != nil {
			return fieldError("status", "alumni status is managed through the alumni record")
		}
		if !canUpdate(actor, current, input) {
			return ErrForbidden
		}

		next := *current
		applyUserPatch(&next, input)

		if err := users.Update(ctx, &next); err != nil {
			if errors.Is(err, repository.ErrReferenced) {
				return fieldError("branch_id", "branch does not exist")
			}
			return fmt.Errorf("failed to update user: %w", err)
		}

		if err := s.rules.MemberMoved(ctx, q, countedBranch(current), countedBranch(&next)); err != nil {
			if errors.Is(err, ErrBranchNotFound) {
				return fieldError("branch_id", "branch does not exist")
			}
			return fmt.Errorf("failed to update branch member count: %w", err)
		}

		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User updated", zap.Int64("user_id", id), zap.Int64("actor_id", actor.ID))
	return updated, nil
}

func applyUserPatch(u *models.User, in models.UpdateUserInput) {
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Role != nil {
		u.Role = models.Role(*in.Role)
	}
	if in.Status != nil {
		u.Status = models.Status(*in.Status)
	}
	if in.BranchID != nil {
		id := *in.BranchID
		u.BranchID = &id
	}
	if in.IsBECMember != nil {
		u.IsBECMember = *in.IsBECMember
	}
	if in.NECPosition != nil {
		u.NECPosition = in.NECPosition
	}
	if in.BECPosition != nil {
		u.BECPosition = in.BECPosition
	}
}

// Delete hard-deletes the user together with its alumni record. The user row
// is locked first so concurrent deletes decrement at most once.
func (s *memberService) Delete(ctx context.Context, actor *token.Claims, id int64) error {
	err := s.repos.RunInTx(ctx, func(ctx context.Context, q repository.Querier) error {
		users := s.repos.Users(q)

		target, err := users.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}
		if !canManage(actor, target.BranchID) {
			return ErrForbidden
		}

		record, err := s.repos.Alumni(q).DeleteByUserID(ctx, id)
		switch {
		case err == nil:
			if err := s.rules.AlumniRemoved(ctx, q, record.BranchID); err != nil {
				return fmt.Errorf("failed to update branch alumni count: %w", err)
			}
		case !errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("failed to delete alumni record: %w", err)
		}

		deleted, err := users.Delete(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to delete user: %w", err)
		}

		if branchID := countedBranch(deleted); branchID != nil {
			if err := s.rules.MemberLeft(ctx, q, *branchID); err != nil {
				return fmt.Errorf("failed to update branch member count: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("User deleted", zap.Int64("user_id", id), zap.Int64("actor_id", actor.ID))
	return nil
}

// canManage reports whether actor may administer records of branchID:
// nec everywhere, bec only inside its own branch.
func canManage(actor *token.Claims, branchID *int64) bool {
	switch actor.Role {
	case models.RoleNEC:
		return true
	case models.RoleBEC:
		return branchID != nil && actor.InBranch(*branchID)
	default:
		return false
	}
}
