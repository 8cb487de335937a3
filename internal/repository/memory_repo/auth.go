package memory_repo

import (
	"context"
	"crash_backend/internal/model"
	"crash_backend/internal/repository"
	"sync"
	"time"
)

type UserRepo struct {
	mtx     sync.RWMutex
	nextID  int
	byLogin map[string]model.User
	byID    map[int]model.User
}

func NewUserRepository() *UserRepo {
	return &UserRepo{
		byLogin: make(map[string]model.User),
		byID:    make(map[int]model.User),
	}
}

var _ repository.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) CreateUser(_ context.Context, user *model.User) (int, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.byLogin[user.Login]; ok {
		return 0, repository.ErrLoginTaken
	}
	r.nextID++
	u := *user
	u.ID = r.nextID
	r.byLogin[u.Login] = u
	r.byID[u.ID] = u
	return u.ID, nil
}

func (r *UserRepo) GetUserByLogin(_ context.Context, login string) (*model.User, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	u, ok := r.byLogin[login]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) user(id int) (model.User, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	u, ok := r.byID[id]
	return u, ok
}

type AuthRepo struct {
	mtx      sync.RWMutex
	users    *UserRepo
	sessions map[string]model.Session
}

func NewAuthRepository(users *UserRepo) *AuthRepo {
	return &AuthRepo{
		users:    users,
		sessions: make(map[string]model.Session),
	}
}

var _ repository.AuthRepository = (*AuthRepo)(nil)

func (r *AuthRepo) CreateSession(_ context.Context, session *model.Session) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

func (r *AuthRepo) GetRefreshTokenBySessionID(_ context.Context, sessionID string) (string, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return s.RefreshToken, nil
}

func (r *AuthRepo) DeleteSession(_ context.Context, sessionID string) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

func (r *AuthRepo) GetUserBySessionID(_ context.Context, sessionID string) (*model.User, error) {
	r.mtx.RLock()
	s, ok := r.sessions[sessionID]
	r.mtx.RUnlock()
	if !ok || time.Now().After(s.ExpiresAt) {
		return nil, repository.ErrNotFound
	}

	u, ok := r.users.user(s.UserID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}
