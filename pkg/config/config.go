package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/dispatch/pkg/db"
	"github.com/dmitrymomot/dispatch/pkg/logger"
	"github.com/dmitrymomot/dispatch/pkg/redis"
)

// Session store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// ErrInvalid is returned when the loaded configuration fails validation.
var ErrInvalid = errors.New("config: invalid configuration")

// Server holds HTTP and dispatcher settings.
type Server struct {
	Address         string        `env:"HTTP_ADDRESS" envDefault:":8080"`
	RoutesFile      string        `env:"DISPATCH_ROUTES_FILE" envDefault:"routes.yaml"`
	ContextPath     string        `env:"DISPATCH_CONTEXT_PATH"`
	FallbackName    string        `env:"DISPATCH_FALLBACK"`
	StaticDir       string        `env:"DISPATCH_STATIC_DIR"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	Verbose         bool          `env:"DISPATCH_VERBOSE"`
}

// Session holds session store and cookie settings.
type Session struct {
	Store      string `env:"SESSION_STORE" envDefault:"memory"`
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"__sid"`
	KeyPrefix  string `env:"SESSION_KEY_PREFIX" envDefault:"session"`
	MaxAge     int    `env:"SESSION_MAX_AGE" envDefault:"2592000"`
	Secure     bool   `env:"SESSION_SECURE"`

	// Cron spec for sweeping expired sessions from the memory store.
	SweepSchedule string `env:"SESSION_SWEEP_SCHEDULE" envDefault:"@every 10m"`
}

// Config is the full process configuration of dispatchd.
type Config struct {
	Server  Server
	Session Session
	Log     logger.Config
	DB      db.Config
	Redis   redis.Config
}

// Load reads the configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field rules env tags cannot express.
func (c *Config) Validate() error {
	err := validation.Errors{
		"server": validation.ValidateStruct(&c.Server,
			validation.Field(&c.Server.Address, validation.Required, validation.By(hostPort)),
			validation.Field(&c.Server.RoutesFile, validation.Required),
			validation.Field(&c.Server.ShutdownTimeout, validation.Min(time.Second)),
		),
		"session": validation.ValidateStruct(&c.Session,
			validation.Field(&c.Session.Store, validation.Required, validation.In(StoreMemory, StoreRedis)),
			validation.Field(&c.Session.CookieName, validation.Required),
			validation.Field(&c.Session.MaxAge, validation.Min(60)),
			validation.Field(&c.Session.SweepSchedule, validation.By(cronSpec)),
		),
		"log": validation.ValidateStruct(&c.Log,
			validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "error")),
			validation.Field(&c.Log.Format, validation.In("json", "text")),
		),
		"redis": validation.ValidateStruct(&c.Redis,
			validation.Field(&c.Redis.URL,
				validation.When(c.Session.Store == StoreRedis, validation.Required),
				is.URL,
			),
		),
	}.Filter()
	if err != nil {
		return errors.Join(ErrInvalid, err)
	}
	return nil
}

func hostPort(value any) error {
	s, _ := value.(string)
	if _, _, err := net.SplitHostPort(s); err != nil {
		return validation.NewError("validation_host_port", "must be host:port")
	}
	return nil
}

func cronSpec(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := cron.ParseStandard(s); err != nil {
		return validation.NewError("validation_cron", "must be a cron spec")
	}
	return nil
}
