package user

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Provider identifies how a user authenticates.
type Provider string

const (
	ProviderEmail  Provider = "email"
	ProviderGoogle Provider = "google"
)

// User represents a marketplace member.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Provider     Provider  `json:"provider"`
	GoogleID     *string   `json:"-"`
	Picture      *string   `json:"picture,omitempty"`
	Language     string    `json:"language"`
	Region       string    `json:"region"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPasswordAuth reports whether the user can log in with a password.
func (u *User) HasPasswordAuth() bool {
	return u.Provider == ProviderEmail && u.PasswordHash != ""
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if !emailPattern.MatchString(email) {
		return errors.New("email is invalid")
	}
	return nil
}

func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name is required")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	return nil
}

func ValidateProvider(p Provider) error {
	switch p {
	case ProviderEmail, ProviderGoogle:
		return nil
	default:
		return errors.New("invalid provider")
	}
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hash string, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidateLanguage accepts only languages the app has translations for.
func ValidateLanguage(language string) error {
	if _, ok := languageRegions[strings.ToLower(language)]; !ok {
		return errors.New("unsupported language")
	}
	return nil
}

var languageRegions = map[string]string{
	"en": "US",
	"es": "ES",
}

// RegionForLanguage derives the user's region from the preferred language.
func RegionForLanguage(language string) string {
	if region, ok := languageRegions[strings.ToLower(language)]; ok {
		return region
	}
	return "US"
}
