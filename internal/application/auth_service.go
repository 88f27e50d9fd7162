package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/volunteer-scheduler/internal/persistence"
)

// TokenClaims are the claims carried by issued bearer tokens.
type TokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

const tokenIssuer = "volunteer-scheduler"

// AuthService registers volunteers, verifies credentials, and issues signed tokens.
type AuthService struct {
	store          persistence.DocumentStore
	secret         []byte
	tokenTTL       time.Duration
	hashPassword   PasswordHasher
	verifyPassword PasswordVerifier
	now            func() time.Time
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(store persistence.DocumentStore, secret []byte, tokenTTL time.Duration, now func() time.Time) *AuthService {
	return NewAuthServiceWithLogger(store, secret, tokenTTL, nil, nil, now, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with explicit password
// functions and a specified logger. Nil functions fall back to argon2id.
func NewAuthServiceWithLogger(store persistence.DocumentStore, secret []byte, tokenTTL time.Duration, hash PasswordHasher, verify PasswordVerifier, now func() time.Time, logger *slog.Logger) *AuthService {
	if hash == nil {
		hash = HashPassword
	}
	if verify == nil {
		verify = VerifyPassword
	}
	if now == nil {
		now = time.Now
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		store:          store,
		secret:         secret,
		tokenTTL:       tokenTTL,
		hashPassword:   hash,
		verifyPassword: verify,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Register creates a volunteer account. The profile document id becomes the user id.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (user User, err error) {
	if s == nil || s.store == nil {
		return User{}, fmt.Errorf("AuthService is not configured")
	}

	params.Name = strings.TrimSpace(params.Name)
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.Profile = normalizeProfile(params.Profile)

	logger := s.loggerWith(ctx, "Register", "email", params.Email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	}()

	if err = Validate(params); err != nil {
		return User{}, err
	}

	existing, err := s.store.Query(ctx, persistence.CollectionUsers, persistence.Eq(fieldEmail, params.Email))
	if err != nil {
		return User{}, fmt.Errorf("check email: %w", err)
	}
	if len(existing) > 0 {
		return User{}, ErrAlreadyExists
	}

	hash, err := s.hashPassword(params.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user = User{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
		Profile:      params.Profile,
	}
	id, err := s.store.Insert(ctx, persistence.CollectionUsers, userFields(user))
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	user.ID = id
	return user, nil
}

func normalizeProfile(p Profile) Profile {
	p.Phone = strings.TrimSpace(p.Phone)
	p.Sport = strings.TrimSpace(p.Sport)
	p.AdditionalSports = strings.TrimSpace(p.AdditionalSports)
	p.UserType = strings.TrimSpace(p.UserType)
	if p.UserType == "" {
		p.UserType = DefaultUserType
	}
	return p
}

// Login verifies credentials and issues a signed bearer token.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result LoginResult, err error) {
	if s == nil || s.store == nil {
		return LoginResult{}, fmt.Errorf("AuthService is not configured")
	}

	email := strings.ToLower(strings.TrimSpace(params.Email))
	logger := s.loggerWith(ctx, "Login", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "login succeeded", "user_id", result.User.ID)
	}()

	if email == "" || params.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	docs, err := s.store.Query(ctx, persistence.CollectionUsers, persistence.Eq(fieldEmail, email))
	if err != nil {
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}
	if len(docs) == 0 {
		return LoginResult{}, ErrInvalidCredentials
	}
	user := userFromDocument(docs[0])

	if err := s.verifyPassword(user.PasswordHash, params.Password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issueToken(user)
	if err != nil {
		return LoginResult{}, err
	}
	user.PasswordHash = ""
	return LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ValidateToken verifies a bearer token and returns the principal it names.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (Principal, error) {
	if s == nil {
		return Principal{}, fmt.Errorf("AuthService is nil")
	}
	if strings.TrimSpace(token) == "" {
		return Principal{}, ErrInvalidToken
	}

	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		s.loggerWith(ctx, "ValidateToken").DebugContext(ctx, "token rejected", "error", err)
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return Principal{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: claims.Subject, Email: claims.Email}, nil
}

func (s *AuthService) issueToken(user User) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("token secret not configured")
	}
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := TokenClaims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}
