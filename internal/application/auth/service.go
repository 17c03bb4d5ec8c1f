package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trueque-app/trueque-api/internal/domain/apperrors"
	domainUser "github.com/trueque-app/trueque-api/internal/domain/user"
)

const tokenTTL = 24 * time.Hour

// GoogleClaims is the subset of a verified Google ID token we use.
type GoogleClaims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// GoogleVerifier validates a Google ID token.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleClaims, error)
}

// Welcomer greets newly registered users.
type Welcomer interface {
	Welcome(ctx context.Context, u *domainUser.User) error
}

// Service handles registration and authentication.
type Service struct {
	userRepo  domainUser.Repository
	verifier  GoogleVerifier
	welcomer  Welcomer
	jwtSecret []byte
	logger    zerolog.Logger
}

// NewService creates an auth service.
func NewService(userRepo domainUser.Repository, verifier GoogleVerifier, welcomer Welcomer, jwtSecret string, logger zerolog.Logger) *Service {
	return &Service{
		userRepo:  userRepo,
		verifier:  verifier,
		welcomer:  welcomer,
		jwtSecret: []byte(jwtSecret),
		logger:    logger.With().Str("service", "auth").Logger(),
	}
}

// Result contains an authenticated user and their bearer token.
type Result struct {
	User  *domainUser.User
	Token string
}

// SignupInput is the input for registering a user.
type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Language string `json:"language"`
}

// Signup registers a user with email and password.
func (s *Service) Signup(ctx context.Context, input SignupInput) (*Result, error) {
	var v apperrors.Violations
	if err := domainUser.ValidateName(input.Name); err != nil {
		v.Add("name", err.Error())
	}
	if err := domainUser.ValidateEmail(input.Email); err != nil {
		v.Add("email", err.Error())
	}
	if err := domainUser.ValidatePassword(input.Password); err != nil {
		v.Add("password", err.Error())
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	email := domainUser.NormalizeEmail(input.Email)
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict("email is already registered")
	}

	hash, err := domainUser.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	language := input.Language
	if language == "" {
		language = "en"
	}

	now := time.Now().UTC()
	u := &domainUser.User{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        email,
		PasswordHash: hash,
		Provider:     domainUser.ProviderEmail,
		Language:     language,
		Region:       domainUser.RegionForLanguage(language),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", u.ID.String()).Msg("user registered")
	s.welcome(ctx, u)
	return s.result(u)
}

// Login authenticates a user with email and password.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	u, err := s.userRepo.GetByEmail(ctx, domainUser.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil || !u.HasPasswordAuth() {
		return nil, fmt.Errorf("invalid email or password")
	}
	if !domainUser.VerifyPassword(u.PasswordHash, password) {
		return nil, fmt.Errorf("invalid email or password")
	}

	s.logger.Info().Str("user_id", u.ID.String()).Msg("user login")
	return s.result(u)
}

// GoogleLogin signs a user in with a Google ID token, creating or
// linking the account as needed.
func (s *Service) GoogleLogin(ctx context.Context, idToken string) (*Result, error) {
	if s.verifier == nil {
		return nil, fmt.Errorf("google sign-in is not configured")
	}
	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("invalid google token")
	}

	u, err := s.userRepo.GetByGoogleID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return s.result(u)
	}

	email := domainUser.NormalizeEmail(claims.Email)
	u, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u != nil {
		// Existing email account, link the Google identity to it.
		u.GoogleID = &claims.Subject
		if claims.Picture != "" && u.Picture == nil {
			u.Picture = &claims.Picture
		}
		u.UpdatedAt = time.Now().UTC()
		if err := s.userRepo.Update(ctx, u); err != nil {
			return nil, err
		}
		return s.result(u)
	}

	now := time.Now().UTC()
	u = &domainUser.User{
		ID:        uuid.New(),
		Name:      claims.Name,
		Email:     email,
		Provider:  domainUser.ProviderGoogle,
		GoogleID:  &claims.Subject,
		Language:  "en",
		Region:    domainUser.RegionForLanguage("en"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if claims.Picture != "" {
		u.Picture = &claims.Picture
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", u.ID.String()).Msg("user registered via google")
	s.welcome(ctx, u)
	return s.result(u)
}

// Authenticate validates a bearer token and returns the user.
func (s *Service) Authenticate(ctx context.Context, token string) (*domainUser.User, error) {
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	rawID, ok := claims["user_id"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid token claims")
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user not found")
	}
	return u, nil
}

func (s *Service) result(u *domainUser.User) (*Result, error) {
	token, err := s.issueToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &Result{User: u, Token: token}, nil
}

func (s *Service) issueToken(userID uuid.UUID) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"iat":     now.Unix(),
		"exp":     now.Add(tokenTTL).Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

func (s *Service) welcome(ctx context.Context, u *domainUser.User) {
	if s.welcomer == nil {
		return
	}
	if err := s.welcomer.Welcome(ctx, u); err != nil {
		s.logger.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to send welcome")
	}
}
