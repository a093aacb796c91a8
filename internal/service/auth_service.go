package service

import (
	"crypto/subtle"
	"fmt"

	"investment_tracker/internal/logger"
	"investment_tracker/internal/utils"
)

// Operator is an account allowed to use the API
type Operator struct {
	Username     string
	PasswordHash string // bcrypt
	Role         string
}

// AuthService provides authentication related services
type AuthService interface {
	Login(username, password string) (string, string, error) // returns token and role
}

type authService struct {
	operators []Operator
	jwtUtil   *utils.JWTUtil
}

// NewAuthService creates a new AuthService. Operators without a password hash cannot log in.
func NewAuthService(operators []Operator, jwtUtil *utils.JWTUtil) AuthService {
	enabled := make([]Operator, 0, len(operators))
	for _, op := range operators {
		if op.Username == "" || op.PasswordHash == "" {
			logger.Warn("Operator account disabled, no password hash configured", "role", op.Role)
			continue
		}
		enabled = append(enabled, op)
	}
	return &authService{operators: enabled, jwtUtil: jwtUtil}
}

// Login authenticates an operator and returns a JWT token
func (s *authService) Login(username, password string) (string, string, error) {
	var operator *Operator
	for i := range s.operators {
		if subtle.ConstantTimeCompare([]byte(s.operators[i].Username), []byte(username)) == 1 {
			operator = &s.operators[i]
			break
		}
	}
	if operator == nil {
		return "", "", ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, operator.PasswordHash) {
		return "", "", ErrInvalidCredentials
	}

	token, err := s.jwtUtil.GenerateToken(operator.Username, operator.Role)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, operator.Role, nil
}

