package services

import (
	"fmt"
	"time"

	"chaya/internal/apperrors"
	"chaya/internal/models"
	"chaya/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session"

// sessionTTL is the only invalidation mechanism: no refresh, no revocation.
const sessionTTL = 7 * 24 * time.Hour

// Session is the caller identity decoded from a valid session token.
type Session struct {
	UserID uint
	Role   string
}

// AuthService handles login and session token issue/validation.
type AuthService struct {
	userRepo repositories.UserRepository
	secret   []byte
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, secret string) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		secret:   []byte(secret),
	}
}

// SessionTTL returns how long issued sessions stay valid.
func (s *AuthService) SessionTTL() time.Duration {
	return sessionTTL
}

// Login authenticates a user and returns the user plus a signed session
// token. Lookup and password failures collapse to the same error so the
// response does not reveal which accounts exist.
func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", apperrors.ErrAccountDisabled
	}

	token, err := s.IssueSession(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// IssueSession signs a session token carrying {user_id, role, exp}.
func (s *AuthService) IssueSession(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     time.Now().Add(sessionTTL).Unix(),
		"iat":     time.Now().Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ValidateSession parses and validates a session token. Expired or
// tampered tokens fail; expiry is checked by the JWT library.
func (s *AuthService) ValidateSession(tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, apperrors.ErrAuthRequired
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrAuthRequired
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, apperrors.ErrAuthRequired
	}
	role, ok := claims["role"].(string)
	if !ok {
		return nil, apperrors.ErrAuthRequired
	}
	return &Session{UserID: uint(userID), Role: role}, nil
}
