package config

import (
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Logs     LogConfig
	HTTP     HTTPConfig
	Engine   EngineConfig
	DB       PostgresConfig
	QueueURL string
	Workers  int
}

type LogConfig struct {
	Style string // "console" or "json"
	Level string
}

type HTTPConfig struct {
	Addr        string
	CORSOrigins []string
}

type PostgresConfig struct {
	Username string
	Password string
	URL      string
	Port     string
	Name     string
}

// Enabled reports whether a database host was configured at all.
func (c PostgresConfig) Enabled() bool { return c.URL != "" }

func (c PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     c.URL + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=require",
	}
	return u.String()
}

type EngineConfig struct {
	Kind        string // "minimax" or "stockfish"
	Path        string
	MoveTime    int
	DepthOrTime bool //true for depth, false for time
	Depth       int  // depth handed to the native engine
	Timeout     time.Duration

	MinimaxDepth int
	Rules        string // rules provider for the minimax engine
	CachePolicy  string
}

const (
	defaultEngineKind   = "minimax"
	defaultEnginePath   = "stockfish"
	defaultEngineDepth  = 20
	defaultMoveTime     = 1000
	defaultMinimaxDepth = 4
	defaultTimeout      = 30 * time.Second
	defaultAddr         = "0.0.0.0:8000"
	defaultCORSOrigin   = "http://localhost:5173"
	defaultDBPort       = "5432"
	defaultDBName       = "postgres"
)

// LoadConfig reads the environment (and .env, if present), falling back to
// defaults for anything unset.
func LoadConfig() (*Config, error) {
	moveTime, err := envInt("ENGINE_MOVE_TIME", defaultMoveTime)
	if err != nil {
		return nil, err
	}

	depth, err := envInt("ENGINE_DEPTH", defaultEngineDepth)
	if err != nil {
		return nil, err
	}

	depthOrTime, err := envBool("ENGINE_DEPTH_OR_TIME", true)
	if err != nil {
		return nil, err
	}

	minimaxDepth, err := envInt("MINIMAX_DEPTH", defaultMinimaxDepth)
	if err != nil {
		return nil, err
	}
	if minimaxDepth < 1 {
		return nil, fmt.Errorf("MINIMAX_DEPTH must be at least 1, got %d", minimaxDepth)
	}

	timeoutMS, err := envInt("ENGINE_TIMEOUT_MS", int(defaultTimeout/time.Millisecond))
	if err != nil {
		return nil, err
	}

	// default number of workers = number of cpus
	workers, err := envInt("WORKERS", runtime.NumCPU())
	if err != nil || workers <= 0 {
		workers = runtime.NumCPU()
	}

	cfg := &Config{
		Logs: LogConfig{
			Style: envString("LOG_STYLE", "console"),
			Level: envString("LOG_LEVEL", "info"),
		},
		HTTP: HTTPConfig{
			Addr:        envString("HTTP_ADDR", defaultAddr),
			CORSOrigins: splitList(envString("CORS_ORIGINS", defaultCORSOrigin)),
		},
		Engine: EngineConfig{
			Kind:         envString("ENGINE_KIND", defaultEngineKind),
			Path:         envString("ENGINE_PATH", defaultEnginePath),
			MoveTime:     moveTime,
			Depth:        depth,
			DepthOrTime:  depthOrTime,
			Timeout:      time.Duration(timeoutMS) * time.Millisecond,
			MinimaxDepth: minimaxDepth,
			Rules:        envString("RULES_PROVIDER", "notnil"),
			CachePolicy:  envString("CACHE_POLICY", "always"),
		},
		DB: PostgresConfig{
			Username: envString("DB_USERNAME", ""),
			Password: os.Getenv("DB_PASSWORD"),
			URL:      envString("DB_URL", ""),
			Port:     envString("DB_PORT", defaultDBPort),
			Name:     envString("DB_NAME", defaultDBName),
		},
		QueueURL: envString("QUEUE_URL", ""),
		Workers:  workers,
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("error converting string to int: %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("error parsing %s: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
