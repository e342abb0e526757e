/**
 * @description
 * Login and token issuance. Passwords are verified against bcrypt hashes and
 * successful logins receive a signed HS256 bearer token carrying the user's
 * id and role.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vaultpay/card-service/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// Login verifies the credentials and returns a signed bearer token. A missing
// user and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !user.Enabled {
		return "", ErrUserDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Printf("level=warn component=card_service msg=\"login rejected\" username=%s", username)
		return "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}
