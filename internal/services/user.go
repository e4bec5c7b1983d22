package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"financas/internal/auth"
	"financas/internal/core"
	"financas/internal/ports"

	"github.com/google/uuid"
)

// TokenIssuer signs identity tokens for logged in users.
type TokenIssuer interface {
	Issue(u core.User) (string, error)
}

type UserService struct {
	store  ports.Store
	tokens TokenIssuer
}

func NewUserService(store ports.Store, tokens TokenIssuer) *UserService {
	return &UserService{store: store, tokens: tokens}
}

// RequireAdmin loads actorID and fails with core.ErrForbidden unless the
// user is an admin.
func (s *UserService) RequireAdmin(ctx context.Context, actorID string) (core.User, error) {
	u, err := s.store.GetUser(ctx, actorID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, fmt.Errorf("unknown user: %w", core.ErrUnauthorized)
		}
		return core.User{}, err
	}
	if !u.IsAdmin() {
		return core.User{}, fmt.Errorf("user %s is not an admin: %w", actorID, core.ErrForbidden)
	}
	return u, nil
}

// Me returns the caller's own record.
func (s *UserService) Me(ctx context.Context, userID string) (core.User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *UserService) create(ctx context.Context, in core.UserInput) (core.User, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.User{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return core.User{}, err
	}
	u := core.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.InsertUser(ctx, u); err != nil {
		if errors.Is(err, core.ErrConflict) {
			return core.User{}, fmt.Errorf("email %s already registered: %w", u.Email, core.ErrConflict)
		}
		return core.User{}, fmt.Errorf("save user: %w", err)
	}
	return u, nil
}

// Register creates a user on behalf of an admin. The role defaults to
// member.
func (s *UserService) Register(ctx context.Context, actorID string, in core.UserInput) (core.User, error) {
	if _, err := s.RequireAdmin(ctx, actorID); err != nil {
		return core.User{}, err
	}
	u, err := s.create(ctx, in)
	if err != nil {
		return core.User{}, err
	}
	slog.InfoContext(ctx, "User registered", "admin_id", actorID, "user_id", u.ID, "role", u.Role)
	return u, nil
}

// SeedAdmin creates the first admin. It fails with core.ErrConflict when the
// email is already taken.
func (s *UserService) SeedAdmin(ctx context.Context, in core.UserInput) (core.User, error) {
	in.Role = core.RoleAdmin
	if in.Name == "" {
		in.Name = "Administrador"
	}
	u, err := s.create(ctx, in)
	if err != nil {
		return core.User{}, err
	}
	slog.InfoContext(ctx, "Admin user created", "user_id", u.ID, "email", u.Email)
	return u, nil
}

// Login checks the credentials and returns the user with a signed token.
// Unknown emails and wrong passwords fail the same way.
func (s *UserService) Login(ctx context.Context, email, password string) (core.User, string, error) {
	in := core.UserInput{Email: email}.Normalize()
	if in.Email == "" || password == "" {
		return core.User{}, "", core.NewValidationError("email", "email and password are required")
	}
	u, err := s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, "", fmt.Errorf("invalid credentials: %w", core.ErrUnauthorized)
		}
		return core.User{}, "", err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		slog.WarnContext(ctx, "Login failed", "user_id", u.ID)
		return core.User{}, "", fmt.Errorf("invalid credentials: %w", core.ErrUnauthorized)
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return core.User{}, "", err
	}
	slog.InfoContext(ctx, "User logged in", "user_id", u.ID)
	return u, token, nil
}

// VerifyPassword re-checks the password of an already authenticated user.
func (s *UserService) VerifyPassword(ctx context.Context, userID, password string) (core.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return core.User{}, err
	}
	return u, nil
}

// List returns every user except the calling admin.
func (s *UserService) List(ctx context.Context, actorID string) ([]core.User, error) {
	if _, err := s.RequireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.User, 0, len(users))
	for _, u := range users {
		if u.ID != actorID {
			out = append(out, u)
		}
	}
	return out, nil
}

// Delete removes a user and everything they own. Admins cannot delete
// themselves.
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.RequireAdmin(ctx, actorID); err != nil {
		return err
	}
	if id == actorID {
		return core.NewValidationError("id", "you cannot delete your own account")
	}
	if _, err := s.store.GetUser(ctx, id); err != nil {
		return err
	}
	_, err := withinTx(ctx, s.store, func(st ports.Store) error {
		if err := st.PurgeUserData(ctx, id); err != nil {
			return fmt.Errorf("purge user data: %w", err)
		}
		return st.DeleteUser(ctx, id)
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "User deleted", "admin_id", actorID, "user_id", id)
	return nil
}
