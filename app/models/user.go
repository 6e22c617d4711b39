package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/utils"
)

// UserRole is the account role chosen at registration.
type UserRole string

const (
	ROLE_FREELANCER UserRole = "FREELANCER"
	ROLE_PAYER      UserRole = "PAYER"
)

// IsValid reports whether r is one of the known roles.
func (r UserRole) IsValid() bool {
	return r == ROLE_FREELANCER || r == ROLE_PAYER
}

type User struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(150)" json:"name" validate:"required,min=2,max=150"`
	Email     string    `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,max=200"`
	Password  string    `gorm:"type:text" json:"-" validate:"required"`
	Role      UserRole  `gorm:"type:varchar(20);index" json:"role" validate:"oneof=FREELANCER PAYER"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	AvatarURL string    `gorm:"-" json:"avatar_url,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

func (u *User) AfterFind(tx *gorm.DB) error {
	u.AvatarURL = utils.GravatarURL(u.Email, 0)
	return nil
}

func (u *User) AfterSave(tx *gorm.DB) error {
	u.AvatarURL = utils.GravatarURL(u.Email, 0)
	return nil
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(name string, email string, password string, role UserRole) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:     strings.TrimSpace(name),
		Email:    NormalizeEmail(email),
		Password: pw,
		Role:     role,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

func (u *User) IsPayer() bool {
	return u.Role == ROLE_PAYER
}

func (u *User) IsFreelancer() bool {
	return u.Role == ROLE_FREELANCER
}
