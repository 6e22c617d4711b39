package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/cache"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/env"
)

var sessionStore *session.Store

// Config describes where login sessions are kept.
type Config struct {
	Host     string
	Port     int
	Password string
	// Database must differ from the cache database
	Database   int
	Expiration time.Duration
	Secure     bool
}

// LoadConfig reuses the cache connection settings and reads
// SESSION_REDIS_DB (default 1) and SESSION_TTL (default 24h).
func LoadConfig() Config {
	cfg := Config{
		Host:       env.GetEnv("CACHE_HOST", "localhost"),
		Port:       env.GetInt("CACHE_PORT", 6379),
		Password:   env.GetEnv("CACHE_PASSWORD", ""),
		Database:   env.GetInt("SESSION_REDIS_DB", 1),
		Expiration: env.GetDuration("SESSION_TTL", 24*time.Hour),
		Secure:     !env.IsDev(),
	}
	if client := cache.GetClient(); client != nil {
		if h, p, err := net.SplitHostPort(client.Options().Addr); err == nil {
			cfg.Host = h
			if port, err := strconv.Atoi(p); err == nil {
				cfg.Port = port
			}
		}
	}
	return cfg
}

// NewSessionStore installs a Redis backed store built from LoadConfig.
func NewSessionStore() *session.Store {
	cfg := LoadConfig()
	sessionStore = session.New(session.Config{
		Storage: redis.New(redis.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Password: cfg.Password,
			Database: cfg.Database,
		}),
		CookieHTTPOnly: true,
		CookieSecure:   cfg.Secure,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		Expiration:     cfg.Expiration,
		KeyLookup:      "cookie:session_id",
	})
	return sessionStore
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// SetStore replaces the active store, e.g. with an in-memory one in tests.
func SetStore(store *session.Store) {
	sessionStore = store
}

// SetSessionValues stores all pairs in the caller's session and saves it once.
func SetSessionValues(c *fiber.Ctx, values map[string]string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	for k, v := range values {
		sess.Set(k, v)
	}
	return sess.Save()
}

// Destroy ends the caller's session.
func Destroy(c *fiber.Ctx) error {
	if sessionStore == nil {
		return nil
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	return sess.Destroy()
}
