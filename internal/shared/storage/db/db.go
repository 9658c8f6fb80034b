package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver

	"jobassist-backend/internal/shared/telemetry"
)

// Options controls database pool and connectivity behavior.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// Profile names a pool shape for one kind of process.
type Profile string

const (
	ProfileServer  Profile = "server"
	ProfileLambda  Profile = "lambda"
	ProfileMigrate Profile = "migrate"
)

var profiles = map[Profile]Options{
	ProfileServer:  {MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxIdleTime: 2 * time.Minute, ConnMaxLifetime: time.Hour, PingTimeout: 5 * time.Second},
	ProfileLambda:  {MaxOpenConns: 2, MaxIdleConns: 1, ConnMaxIdleTime: 30 * time.Second, ConnMaxLifetime: 15 * time.Minute, PingTimeout: 3 * time.Second},
	ProfileMigrate: {MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxIdleTime: 2 * time.Minute, ConnMaxLifetime: time.Hour, PingTimeout: 5 * time.Second},
}

// ProfileOptions returns the pool defaults for p. Unknown profiles get the
// server shape.
func ProfileOptions(p Profile) Options {
	if opts, ok := profiles[p]; ok {
		return opts
	}
	return profiles[ProfileServer]
}

// RuntimeProfile picks the lambda profile inside AWS Lambda and the server
// profile everywhere else.
func RuntimeProfile() Profile {
	if strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != "" {
		return ProfileLambda
	}
	return ProfileServer
}

type envOverride struct {
	key   string
	apply func(opts *Options, raw string) error
}

var envOverrides = []envOverride{
	{"DB_MAX_OPEN_CONNS", func(o *Options, raw string) error { return setInt(&o.MaxOpenConns, raw) }},
	{"DB_MAX_IDLE_CONNS", func(o *Options, raw string) error { return setInt(&o.MaxIdleConns, raw) }},
	{"DB_CONN_MAX_LIFETIME", func(o *Options, raw string) error { return setDuration(&o.ConnMaxLifetime, raw) }},
	{"DB_CONN_MAX_IDLE_TIME", func(o *Options, raw string) error { return setDuration(&o.ConnMaxIdleTime, raw) }},
	{"DB_PING_TIMEOUT", func(o *Options, raw string) error { return setDuration(&o.PingTimeout, raw) }},
}

// OptionsFromEnv overrides defaults with DB_* env vars. Invalid values are
// logged and ignored.
func OptionsFromEnv(defaults Options) Options {
	opts := defaults
	for _, o := range envOverrides {
		raw := strings.TrimSpace(os.Getenv(o.key))
		if raw == "" {
			continue
		}
		if err := o.apply(&opts, raw); err != nil {
			telemetry.Warn("db.env.invalid", map[string]any{"key": o.key, "error": err.Error()})
		}
	}
	return opts
}

var openDB = sql.Open

// Connect opens a pgx-backed *sql.DB and pings it.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url is empty")
	}
	target := describeDSN(databaseURL)

	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", target, err)
	}
	applyOptions(db, opts)

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database %s: %w", target, err)
	}

	stats := db.Stats()
	telemetry.Info("db.connected", map[string]any{
		"target":   target,
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
	})
	return db, nil
}

var shared struct {
	mu sync.Mutex
	db *sql.DB
}

// GetSingleton returns the process-wide handle used by warm Lambda
// invocations. A failed connect leaves nothing cached, so the next call
// retries.
func GetSingleton(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.db != nil {
		telemetry.Debug("db.singleton.reuse", nil)
		return shared.db, nil
	}
	db, err := Connect(ctx, databaseURL, opts)
	if err != nil {
		return nil, err
	}
	shared.db = db
	telemetry.Info("db.singleton.init", nil)
	return db, nil
}

// OpenForRuntime connects with the pool profile of the current runtime. In
// Lambda the handle is the shared singleton and the returned close func is
// a no-op; elsewhere it closes the pool.
func OpenForRuntime(ctx context.Context, databaseURL string) (*sql.DB, func() error, error) {
	profile := RuntimeProfile()
	opts := OptionsFromEnv(ProfileOptions(profile))
	if profile == ProfileLambda {
		db, err := GetSingleton(ctx, databaseURL, opts)
		return db, func() error { return nil }, err
	}
	db, err := Connect(ctx, databaseURL, opts)
	if err != nil {
		return nil, nil, err
	}
	return db, db.Close, nil
}

// describeDSN reduces a connection string to host/database for logs and
// errors. Credentials never leave this function.
func describeDSN(dsn string) string {
	u, err := url.Parse(strings.TrimSpace(dsn))
	if err != nil || u.Host == "" {
		return "postgres"
	}
	if name := strings.TrimPrefix(u.Path, "/"); name != "" {
		return u.Host + "/" + name
	}
	return u.Host
}

func applyOptions(db *sql.DB, opts Options) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

func setInt(dst *int, raw string) error {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func setDuration(dst *time.Duration, raw string) error {
	v, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
