package users

import "time"

// DefaultGroupID is the customer group new accounts land in.
const DefaultGroupID = 3

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phoneNumber"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Gender       string    `json:"gender"`
	Address      string    `json:"address"`
	GroupID      int       `json:"groupId"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u User) Name() string { return u.FirstName + " " + u.LastName }

// RegisterInput is the public sign-up form. The group is not part of it: new
// accounts always join DefaultGroupID and only a gated update can move them.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	Gender      string `json:"gender"`
	Address     string `json:"address"`
}

// Update is a partial profile update; nil fields are left untouched.
type Update struct {
	ID          int64   `json:"id" validate:"required,gt=0"`
	PhoneNumber *string `json:"phoneNumber"`
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Gender      *string `json:"gender"`
	Address     *string `json:"address"`
	GroupID     *int    `json:"groupId" validate:"omitempty,gt=0"`
}
