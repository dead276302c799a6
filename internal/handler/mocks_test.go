package handler

import (
	"context"

	"branchdesk/internal/models"
	"branchdesk/internal/service"
	"branchdesk/internal/token"

	"github.com/stretchr/testify/mock"
)

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, input models.RegisterInput) (*service.AuthResult, error) {
	args := m.Called(ctx, input)
	res, _ := args.Get(0).(*service.AuthResult)
	return res, args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, input models.LoginInput) (*service.AuthResult, error) {
	args := m.Called(ctx, input)
	res, _ := args.Get(0).(*service.AuthResult)
	return res, args.Error(1)
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, claims *token.Claims) (*models.User, error) {
	args := m.Called(ctx, claims)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

type mockMemberService struct{ mock.Mock }

func (m *mockMemberService) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *mockMemberService) Get(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockMemberService) Update(ctx context.Context, actor *token.Claims, id int64, input models.UpdateUserInput) (*models.User, error) {
	args := m.Called(ctx, actor, id, input)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockMemberService) Delete(ctx context.Context, actor *token.Claims, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

type mockBranchService struct{ mock.Mock }

func (m *mockBranchService) List(ctx context.Context) ([]models.Branch, error) {
	args := m.Called(ctx)
	branches, _ := args.Get(0).([]models.Branch)
	return branches, args.Error(1)
}

func (m *mockBranchService) Get(ctx context.Context, id int64) (*models.Branch, error) {
	args := m.Called(ctx, id)
	branch, _ := args.Get(0).(*models.Branch)
	return branch, args.Error(1)
}

func (m *mockBranchService) Create(ctx context.Context, input models.CreateBranchInput) (*models.Branch, error) {
	args := m.Called(ctx, input)
	branch, _ := args.Get(0).(*models.Branch)
	return branch, args.Error(1)
}

func (m *mockBranchService) Update(ctx context.Context, id int64, input models.UpdateBranchInput) (*models.Branch, error) {
	args := m.Called(ctx, id, input)
	branch, _ := args.Get(0).(*models.Branch)
	return branch, args.Error(1)
}

func (m *mockBranchService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBranchService) Members(ctx context.Context, id int64) ([]models.User, error) {
	args := m.Called(ctx, id)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *mockBranchService) Alumni(ctx context.Context, id int64) ([]models.Alumni, error) {
	args := m.Called(ctx, id)
	records, _ := args.Get(0).([]models.Alumni)
	return records, args.Error(1)
}

func (m *mockBranchService) Reconcile(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockAlumniService struct{ mock.Mock }

func (m *mockAlumniService) List(ctx context.Context) ([]models.Alumni, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]models.Alumni)
	return records, args.Error(1)
}

func (m *mockAlumniService) Get(ctx context.Context, id int64) (*models.Alumni, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(*models.Alumni)
	return record, args.Error(1)
}

func (m *mockAlumniService) Create(ctx context.Context, actor *token.Claims, input models.CreateAlumniInput) (*models.Alumni, error) {
	args := m.Called(ctx, actor, input)
	record, _ := args.Get(0).(*models.Alumni)
	return record, args.Error(1)
}

func (m *mockAlumniService) Update(ctx context.Context, actor *token.Claims, id int64, input models.UpdateAlumniInput) (*models.Alumni, error) {
	args := m.Called(ctx, actor, id, input)
	record, _ := args.Get(0).(*models.Alumni)
	return record, args.Error(1)
}

func (m *mockAlumniService) Delete(ctx context.Context, actor *token.Claims, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}
