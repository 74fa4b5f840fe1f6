/**
 * @description
 * Auth Service for passwordless sign in.
 * Issues single-use magic links stored in Redis and signs session JWTs.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9
 * - github.com/golang-jwt/jwt/v5
 * - backend/internal/mail
 */

package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ktcapester/glimpse-sub000/internal/config"
	"github.com/ktcapester/glimpse-sub000/internal/logger"
	mailer "github.com/ktcapester/glimpse-sub000/internal/mail"
	"github.com/redis/go-redis/v9"
)

const (
	CacheKeyMagicLinkPrefix = "auth:magic:"
	TokenIssuer             = "glimpse"
)

var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrInvalidMagicLink = errors.New("magic link is invalid or expired")
)

type AuthService struct {
	Redis  *redis.Client
	Mailer mailer.Mailer

	secret      []byte
	tokenTTL    time.Duration
	linkTTL     time.Duration
	frontendURL string
}

func NewAuthService(rdb *redis.Client, m mailer.Mailer, cfg *config.Config) *AuthService {
	return &AuthService{
		Redis:       rdb,
		Mailer:      m,
		secret:      []byte(cfg.Auth.JWTSecret),
		tokenTTL:    cfg.Auth.JWTTTL,
		linkTTL:     cfg.Auth.MagicLinkTTL,
		frontendURL: cfg.Server.FrontendURL,
	}
}

// NormalizeEmail validates an address and returns its lower-cased bare form
func NormalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

// RequestMagicLink stores a one-time token for the email and mails the sign-in link
func (s *AuthService) RequestMagicLink(ctx context.Context, rawEmail string) error {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return err
	}

	token := uuid.NewString()
	if err := s.Redis.Set(ctx, CacheKeyMagicLinkPrefix+token, email, s.linkTTL).Err(); err != nil {
		return fmt.Errorf("failed to store magic link: %w", err)
	}

	link := fmt.Sprintf("%s/auth/verify?token=%s", s.frontendURL, url.QueryEscape(token))
	body := fmt.Sprintf("Sign in to Glimpse:\n\n%s\n\nThis link expires in %s and works once.", link, s.linkTTL)
	if err := s.Mailer.Send(ctx, email, "Your Glimpse sign-in link", body); err != nil {
		// Don't leave a usable token behind if the user never receives it
		_ = s.Redis.Del(ctx, CacheKeyMagicLinkPrefix+token).Err()
		return fmt.Errorf("failed to send magic link: %w", err)
	}

	logger.Info("AuthService: magic link issued for %s", email)
	return nil
}

// ConsumeMagicLink returns the email bound to the token and invalidates it
func (s *AuthService) ConsumeMagicLink(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidMagicLink
	}

	email, err := s.Redis.GetDel(ctx, CacheKeyMagicLinkPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrInvalidMagicLink
		}
		return "", err
	}
	return email, nil
}

// IssueToken signs a session JWT whose subject is the user ID
func (s *AuthService) IssueToken(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(s.tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    TokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}
