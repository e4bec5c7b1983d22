package core

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

var emailPattern = regexp.MustCompile(`.+@.+\..+`)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// Normalize trims fields, lower-cases the email and defaults the role.
func (in UserInput) Normalize() UserInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = RoleMember
	}
	return in
}

func (in UserInput) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "is required")
	}
	if strings.TrimSpace(in.Email) == "" {
		v.Add("email", "is required")
	} else if !emailPattern.MatchString(in.Email) {
		v.Add("email", "is not a valid address")
	}
	if in.Password == "" {
		v.Add("password", "is required")
	} else if len(in.Password) < 6 {
		v.Add("password", "must have at least 6 characters")
	}
	switch in.Role {
	case "", RoleAdmin, RoleMember:
	default:
		v.Add("role", fmt.Sprintf("unknown role %q", in.Role))
	}
	return v.OrNil()
}
