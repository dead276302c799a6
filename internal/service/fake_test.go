package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"branchdesk/internal/models"
	"branchdesk/internal/repository"
)

// memStore is an in-memory repository.Manager. Transactions are serialized
// and roll back by restoring a snapshot taken at begin.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users    map[int64]models.User
	branches map[int64]models.Branch
	alumni   map[int64]models.Alumni
	nextID   int64

	// failAdjust, when set, is returned by every counter adjustment.
	failAdjust error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]models.User{},
		branches: map[int64]models.Branch{},
		alumni:   map[int64]models.Alumni{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addBranch(name string, members, alumni int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.branches[id] = models.Branch{ID: id, Name: name, University: name + " University", Province: "Central", MemberCount: members, AlumniCount: alumni}
	return id
}

func (s *memStore) branch(id int64) models.Branch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.branches[id]
}

func (s *memStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *memStore) DB() repository.Querier { return nil }

func (s *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context, q repository.Querier) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	users, branches, alumni, nextID := cloneMap(s.users), cloneMap(s.branches), cloneMap(s.alumni), s.nextID
	s.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		s.mu.Lock()
		s.users, s.branches, s.alumni, s.nextID = users, branches, alumni, nextID
		s.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) Users(repository.Querier) repository.UserRepository   { return memUsers{s} }
func (s *memStore) Branches(repository.Querier) repository.BranchRepository { return memBranches{s} }
func (s *memStore) Alumni(repository.Querier) repository.AlumniRepository  { return memAlumni{s} }

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("%w: users_email_lower_idx", repository.ErrDuplicate)
		}
	}
	if u.BranchID != nil {
		if _, ok := r.s.branches[*u.BranchID]; !ok {
			return repository.ErrReferenced
		}
	}
	u.ID = r.s.id()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = *u
	return nil
}

func (r memUsers) get(id int64, withHash bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !withHash {
		u.PasswordHash = ""
	}
	return &u, nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) { return r.get(id, false) }

func (r memUsers) GetByIDForUpdate(_ context.Context, id int64) (*models.User, error) {
	return r.get(id, false)
}

func (r memUsers) GetCredentialsByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetCredentialsByEmail(ctx, email)
	return err == nil, nil
}

func (r memUsers) list(keep func(models.User) bool) []models.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.User{}
	for _, u := range r.s.users {
		if keep(u) {
			u.PasswordHash = ""
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memUsers) List(context.Context) ([]models.User, error) {
	return r.list(func(models.User) bool { return true }), nil
}

func (r memUsers) ListByBranch(_ context.Context, branchID int64) ([]models.User, error) {
	return r.list(func(u models.User) bool { return u.InBranch(branchID) }), nil
}

func (r memUsers) Update(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if u.BranchID != nil {
		if _, ok := r.s.branches[*u.BranchID]; !ok {
			return repository.ErrReferenced
		}
	}
	next := *u
	next.PasswordHash = existing.PasswordHash
	next.Email = existing.Email
	r.s.users[u.ID] = next
	return nil
}

func (r memUsers) UpdateStatus(_ context.Context, id int64, status models.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Status = status
	r.s.users[id] = u
	return nil
}

func (r memUsers) Delete(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, a := range r.s.alumni {
		if a.UserID == id {
			return nil, repository.ErrReferenced
		}
	}
	delete(r.s.users, id)
	u.PasswordHash = ""
	return &u, nil
}

type memBranches struct{ s *memStore }

func (r memBranches) Create(_ context.Context, b *models.Branch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b.ID = r.s.id()
	r.s.branches[b.ID] = *b
	return nil
}

func (r memBranches) GetByID(_ context.Context, id int64) (*models.Branch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.branches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r memBranches) List(context.Context) ([]models.Branch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Branch{}
	for _, b := range r.s.branches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memBranches) Update(_ context.Context, b *models.Branch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.branches[b.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name, existing.University, existing.Province = b.Name, b.University, b.Province
	r.s.branches[b.ID] = existing
	b.MemberCount, b.AlumniCount = existing.MemberCount, existing.AlumniCount
	return nil
}

func (r memBranches) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.branches[id]; !ok {
		return repository.ErrNotFound
	}
	for _, u := range r.s.users {
		if u.InBranch(id) {
			return repository.ErrReferenced
		}
	}
	for _, a := range r.s.alumni {
		if a.BranchID == id {
			return repository.ErrReferenced
		}
	}
	delete(r.s.branches, id)
	return nil
}

func (r memBranches) adjust(id int64, delta int, field func(*models.Branch) *int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAdjust != nil {
		return 0, r.s.failAdjust
	}
	b, ok := r.s.branches[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	c := field(&b)
	*c += delta
	if *c < 0 {
		*c = 0
	}
	r.s.branches[id] = b
	return *c, nil
}

func (r memBranches) AdjustMemberCount(_ context.Context, id int64, delta int) (int, error) {
	return r.adjust(id, delta, func(b *models.Branch) *int { return &b.MemberCount })
}

func (r memBranches) AdjustAlumniCount(_ context.Context, id int64, delta int) (int, error) {
	return r.adjust(id, delta, func(b *models.Branch) *int { return &b.AlumniCount })
}

func (r memBranches) Recount(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var changed int64
	for id, b := range r.s.branches {
		members, alumni := 0, 0
		for _, u := range r.s.users {
			if u.InBranch(id) && u.IsActive() {
				members++
			}
		}
		for _, a := range r.s.alumni {
			if a.BranchID == id {
				alumni++
			}
		}
		if b.MemberCount != members || b.AlumniCount != alumni {
			b.MemberCount, b.AlumniCount = members, alumni
			r.s.branches[id] = b
			changed++
		}
	}
	return changed, nil
}

type memAlumni struct{ s *memStore }

func (r memAlumni) Create(_ context.Context, a *models.Alumni) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.alumni {
		if existing.UserID == a.UserID {
			return fmt.Errorf("%w: alumni_user_id_key", repository.ErrDuplicate)
		}
	}
	if _, ok := r.s.branches[a.BranchID]; !ok {
		return repository.ErrReferenced
	}
	a.ID = r.s.id()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.s.alumni[a.ID] = *a
	return nil
}

func (r memAlumni) GetByID(_ context.Context, id int64) (*models.Alumni, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.alumni[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r memAlumni) GetByIDForUpdate(ctx context.Context, id int64) (*models.Alumni, error) {
	return r.GetByID(ctx, id)
}

func (r memAlumni) GetByUserID(_ context.Context, userID int64) (*models.Alumni, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.alumni {
		if a.UserID == userID {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memAlumni) list(keep func(models.Alumni) bool) []models.Alumni {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Alumni{}
	for _, a := range r.s.alumni {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memAlumni) List(context.Context) ([]models.Alumni, error) {
	return r.list(func(models.Alumni) bool { return true }), nil
}

func (r memAlumni) ListByBranch(_ context.Context, branchID int64) ([]models.Alumni, error) {
	return r.list(func(a models.Alumni) bool { return a.BranchID == branchID }), nil
}

func (r memAlumni) Update(_ context.Context, a *models.Alumni) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.alumni[a.ID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.branches[a.BranchID]; !ok {
		return repository.ErrReferenced
	}
	a.UpdatedAt = time.Now()
	r.s.alumni[a.ID] = *a
	return nil
}

func (r memAlumni) Delete(_ context.Context, id int64) (*models.Alumni, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.alumni[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.s.alumni, id)
	return &a, nil
}

func (r memAlumni) DeleteByUserID(_ context.Context, userID int64) (*models.Alumni, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, a := range r.s.alumni {
		if a.UserID == userID {
			delete(r.s.alumni, id)
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}
