package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hostel-ops-backend/internal/model"
	"hostel-ops-backend/internal/parse"
	"hostel-ops-backend/internal/store"
)

// NewUser carries the fields needed to register a user.
type NewUser struct {
	Name        string
	Email       string
	Password    string
	Role        model.Role
	Room        string
	MonthlyRent decimal.Decimal
}

// Directory manages the users of the hostel.
type Directory struct {
	store store.Store
	auth  *PasswordAuthenticator
}

// NewDirectory creates a user directory backed by s.
func NewDirectory(s store.Store, auth *PasswordAuthenticator) *Directory {
	return &Directory{store: s, auth: auth}
}

// Create registers a new user. Only admins may create other admins.
func (d *Directory) Create(ctx context.Context, actor Actor, in NewUser) (model.User, error) {
	if err := actor.Require(ManageUsers); err != nil {
		return model.User{}, err
	}
	if in.Role == model.RoleAdmin && actor.Role != model.RoleAdmin {
		return model.User{}, fmt.Errorf("%w: only admins may create admins", model.ErrUnauthorized)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.User{}, fmt.Errorf("%w: name is required", model.ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return model.User{}, fmt.Errorf("%w: email %q is not valid", model.ErrInvalidInput, in.Email)
	}
	if !in.Role.Valid() {
		return model.User{}, fmt.Errorf("%w: unknown role %q", model.ErrInvalidInput, in.Role)
	}
	if err := parse.ValidAmount(in.MonthlyRent); err != nil {
		return model.User{}, fmt.Errorf("monthly rent: %w", err)
	}
	if err := d.auth.ValidateCredential(in.Password); err != nil {
		return model.User{}, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}

	user := model.User{
		ID:          uuid.NewString(),
		Name:        name,
		Email:       strings.ToLower(addr.Address),
		Role:        in.Role,
		MonthlyRent: in.MonthlyRent,
	}
	if in.Room != "" {
		room, err := parse.ParseRoom(in.Room)
		if err != nil {
			return model.User{}, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
		}
		user.Room, user.Block, user.Floor = room.Room, room.Block, room.Floor
	}

	if user.PasswordHash, err = d.auth.Hash(in.Password); err != nil {
		return model.User{}, err
	}

	if err := d.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}

	slog.Info("User created", "user_id", user.ID, "role", user.Role, "by", actor.UserID)
	return user, nil
}

// Get returns a user. Residents may only read themselves.
func (d *Directory) Get(ctx context.Context, actor Actor, userID string) (model.User, error) {
	if err := actor.RequireAccess(ViewDirectory, userID); err != nil {
		return model.User{}, err
	}
	return d.store.GetUser(ctx, userID)
}

// List returns users, optionally restricted to the given roles.
func (d *Directory) List(ctx context.Context, actor Actor, roles ...model.Role) ([]model.User, error) {
	if err := actor.Require(ViewDirectory); err != nil {
		return nil, err
	}
	return d.store.ListUsers(ctx, store.UserFilter{Roles: roles})
}

// Lookup returns a user without an access check. It is meant for resolving the
// caller's own identity.
func (d *Directory) Lookup(ctx context.Context, userID string) (model.User, error) {
	return d.store.GetUser(ctx, userID)
}

// Login authenticates credentials and returns the user.
func (d *Directory) Login(ctx context.Context, email, password string) (model.User, error) {
	return d.auth.Authenticate(ctx, strings.ToLower(strings.TrimSpace(email)), password)
}
