package admin

import (
	"context"
	"fmt"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/user"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = bcrypt.DefaultCost

// UserService manages operator accounts.
type UserService struct {
	client *ent.Client
}

// NewUserService creates a UserService.
func NewUserService(client *ent.Client) *UserService {
	return &UserService{client: client}
}

// CreateUser hashes password and inserts a new operator account.
func (s *UserService) CreateUser(ctx context.Context, email, password, role string) (*ent.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u, err := s.client.User.Create().
		SetID(uuid.New().String()).
		SetEmail(email).
		SetPasswordHash(string(hash)).
		SetRole(user.Role(role)).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// SetAccountStatus transitions a user's account_status (e.g. to blocked).
func (s *UserService) SetAccountStatus(ctx context.Context, userID, status string) error {
	return s.client.User.UpdateOneID(userID).SetAccountStatus(user.AccountStatus(status)).Exec(ctx)
}

// List returns all operator accounts.
func (s *UserService) List(ctx context.Context) ([]*ent.User, error) {
	return s.client.User.Query().Order(ent.Asc(user.FieldEmail)).All(ctx)
}
