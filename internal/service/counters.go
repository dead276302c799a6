package service

import (
	"context"
	"errors"
	"fmt"

	"branchdesk/internal/metrics"
	"branchdesk/internal/models"
	"branchdesk/internal/repository"

	"go.uber.org/zap"
)

const (
	counterMember = "member"
	counterAlumni = "alumni"
)

// CounterRules is the only code that adjusts branch member_count and
// alumni_count. Every method runs on the caller's Querier, normally the
// transaction that performs the lifecycle change.
type CounterRules struct {
	repos   repository.Manager
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewCounterRules(repos repository.Manager, m *metrics.Metrics, logger *zap.Logger) *CounterRules {
	return &CounterRules{repos: repos, metrics: m, logger: logger}
}

// MemberJoined counts a newly active member. An unknown branch is
// ErrBranchNotFound.
func (r *CounterRules) MemberJoined(ctx context.Context, q repository.Querier, branchID int64) error {
	return r.increment(ctx, q, counterMember, branchID)
}

// MemberLeft uncounts a member. The stored value never drops below zero.
func (r *CounterRules) MemberLeft(ctx context.Context, q repository.Querier, branchID int64) error {
	return r.decrement(ctx, q, counterMember, branchID)
}

// MemberMoved moves a counted member between branches. A nil side means the
// user is not counted there.
func (r *CounterRules) MemberMoved(ctx context.Context, q repository.Querier, from, to *int64) error {
	if sameBranch(from, to) {
		return nil
	}
	if from != nil {
		if err := r.MemberLeft(ctx, q, *from); err != nil {
			return err
		}
	}
	if to != nil {
		return r.MemberJoined(ctx, q, *to)
	}
	return nil
}

func (r *CounterRules) AlumniAdded(ctx context.Context, q repository.Querier, branchID int64) error {
	return r.increment(ctx, q, counterAlumni, branchID)
}

func (r *CounterRules) AlumniRemoved(ctx context.Context, q repository.Querier, branchID int64) error {
	return r.decrement(ctx, q, counterAlumni, branchID)
}

func (r *CounterRules) AlumniMoved(ctx context.Context, q repository.Querier, from, to int64) error {
	if from == to {
		return nil
	}
	if err := r.AlumniRemoved(ctx, q, from); err != nil {
		return err
	}
	return r.AlumniAdded(ctx, q, to)
}

// countedBranch returns the branch whose member_count includes u, or nil.
func countedBranch(u *models.User) *int64 {
	if !u.IsActive() || u.BranchID == nil {
		return nil
	}
	id := *u.BranchID
	return &id
}

func sameBranch(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (r *CounterRules) increment(ctx context.Context, q repository.Querier, counter string, branchID int64) error {
	_, err := r.adjust(ctx, q, counter, branchID, 1)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrBranchNotFound
	}
	return err
}

// decrement tolerates a missing branch row.
func (r *CounterRules) decrement(ctx context.Context, q repository.Querier, counter string, branchID int64) error {
	_, err := r.adjust(ctx, q, counter, branchID, -1)
	if errors.Is(err, repository.ErrNotFound) {
		r.logger.Warn("Counter decrement skipped, branch is gone",
			zap.String("counter", counter), zap.Int64("branch_id", branchID))
		return nil
	}
	return err
}

func (r *CounterRules) adjust(ctx context.Context, q repository.Querier, counter string, branchID int64, delta int) (int, error) {
	branches := r.repos.Branches(q)

	var (
		value int
		err   error
	)
	switch counter {
	case counterMember:
		value, err = branches.AdjustMemberCount(ctx, branchID, delta)
	case counterAlumni:
		value, err = branches.AdjustAlumniCount(ctx, branchID, delta)
	default:
		return 0, fmt.Errorf("unknown counter %q", counter)
	}
	if err != nil {
		return 0, err
	}

	r.metrics.CounterAdjusted(counter, delta)
	r.logger.Debug("Branch counter adjusted",
		zap.String("counter", counter),
		zap.Int64("branch_id", branchID),
		zap.Int("delta", delta),
		zap.Int("value", value))
	return value, nil
}
