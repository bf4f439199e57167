package security

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"raffle-system/internal/status"
	"raffle-system/utils"
)

const maxLoginAttempts = 10

// AdminGate guards the dashboard behind the single shared secret. On a
// correct password it hands out a random token kept in Redis for the
// configured TTL; there is no per-admin identity. Failed attempts are
// throttled per IP.
type AdminGate struct {
	redis  *redis.Client
	secret string
	ttl    time.Duration
}

func NewAdminGate(redisClient *redis.Client, secret string, ttl time.Duration) *AdminGate {
	return &AdminGate{
		redis:  redisClient,
		secret: secret,
		ttl:    ttl,
	}
}

func attemptsKey(ip string) string { return fmt.Sprintf("admin:attempts:%s", ip) }
func tokenKey(token string) string { return fmt.Sprintf("admin:session:%s", token) }

// Login checks the password and returns a session token. ADMIN_PASSWORD
// may hold a bcrypt hash; anything else is compared in constant time.
func (g *AdminGate) Login(ctx context.Context, ip, password string) (string, error) {
	key := attemptsKey(ip)
	attempts, err := g.redis.Incr(ctx, key).Result()
	if err == nil && attempts == 1 {
		g.redis.Expire(ctx, key, time.Minute)
	}
	if attempts > maxLoginAttempts {
		return "", status.ErrTooManyAttempts
	}

	if g.secret == "" || !g.matches(password) {
		return "", status.ErrWrongPassword
	}

	// A correct password clears the window, so valid logins never count
	// toward the lockout.
	g.redis.Del(ctx, key)

	token, err := utils.GenerateCode(24)
	if err != nil {
		return "", fmt.Errorf("generate admin token: %w", err)
	}
	if err := g.redis.Set(ctx, tokenKey(token), "1", g.ttl).Err(); err != nil {
		return "", fmt.Errorf("store admin token: %w", err)
	}
	return token, nil
}

func (g *AdminGate) matches(password string) bool {
	if strings.HasPrefix(g.secret, "$2a$") || strings.HasPrefix(g.secret, "$2b$") || strings.HasPrefix(g.secret, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(g.secret), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(g.secret), []byte(password)) == 1
}

// Validate checks that token is a live admin session.
func (g *AdminGate) Validate(ctx context.Context, token string) error {
	if token == "" {
		return status.ErrInvalidToken
	}
	exists, err := g.redis.Exists(ctx, tokenKey(token)).Result()
	if err != nil {
		return fmt.Errorf("validate admin token: %w", err)
	}
	if exists == 0 {
		return status.ErrInvalidToken
	}
	return nil
}

// Logout drops the session token.
func (g *AdminGate) Logout(ctx context.Context, token string) error {
	return g.redis.Del(ctx, tokenKey(token)).Err()
}
