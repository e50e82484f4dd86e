package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrBadCredentials = errors.New("your email/phone number or password is incorrect")

type Store interface {
	Create(ctx context.Context, u User) (int64, error)
	GetByLogin(ctx context.Context, login string) (User, error)
}

type Service struct {
	store Store
	cost  int
}

func NewService(store Store) *Service {
	return &Service{store: store, cost: bcrypt.DefaultCost}
}

// Register stores a new account with a bcrypt hash of its password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, err
	}
	u := User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Gender:       in.Gender,
		Address:      in.Address,
		GroupID:      DefaultGroupID,
	}
	u.ID, err = s.store.Create(ctx, u)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// Login checks loginAcc (email or phone) and password. Unknown accounts and wrong
// passwords both report ErrBadCredentials.
func (s *Service) Login(ctx context.Context, loginAcc, password string) (User, error) {
	u, err := s.store.GetByLogin(ctx, strings.TrimSpace(loginAcc))
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrBadCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}
