package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults kept as package vars so tests and main can reference them.
var (
	DefaultSessionTTL          = 5 * time.Minute
	DefaultUnlockDuration      = 10 * time.Second
	DefaultSimilarityThreshold = 0.45
	DefaultCleanupInterval     = time.Minute
	DefaultEmbeddingDim        = 512
)

// Server captures all runtime configuration for the access control service.
type Server struct {
	Addr        string
	DatabaseURL string

	// Identity matching
	SimilarityThreshold float64
	EmbeddingDim        int

	// Session lifecycle
	SessionTTL      time.Duration
	CleanupInterval time.Duration

	// Door actuator
	ActuatorURL     string
	ActuatorSecret  string
	UnlockDuration  time.Duration
	CommandTimeout  time.Duration

	// Role string to capability mapping, e.g. "vendor=vendor,pic=approver".
	RoleCapabilities map[string]string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:                envOr("SENTINEL_ADDR", ":8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		SimilarityThreshold: DefaultSimilarityThreshold,
		EmbeddingDim:        DefaultEmbeddingDim,
		SessionTTL:          DefaultSessionTTL,
		CleanupInterval:     DefaultCleanupInterval,
		ActuatorURL:         envOr("ACTUATOR_URL", "http://192.168.1.100"),
		ActuatorSecret:      envOr("ACTUATOR_SECRET", "dev-secret-change-in-production"),
		UnlockDuration:      DefaultUnlockDuration,
		CommandTimeout:      5 * time.Second,
		RoleCapabilities:    parseRoleCapabilities(os.Getenv("ROLE_CAPABILITIES")),
	}

	if v := os.Getenv("SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f < 1 {
			cfg.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("EMBEDDING_DIM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EmbeddingDim = n
		}
	}
	if d, ok := envDuration("SESSION_TTL"); ok {
		cfg.SessionTTL = d
	}
	if d, ok := envDuration("CLEANUP_INTERVAL"); ok {
		cfg.CleanupInterval = d
	}
	if d, ok := envDuration("UNLOCK_DURATION"); ok {
		cfg.UnlockDuration = d
	}
	if d, ok := envDuration("ACTUATOR_COMMAND_TIMEOUT"); ok {
		cfg.CommandTimeout = d
	}

	return cfg
}

// parseRoleCapabilities parses "role=capability" pairs separated by commas.
// Which role strings count as approvers is a deployment decision; the default
// covers every spelling seen across enrollment system revisions.
func parseRoleCapabilities(raw string) map[string]string {
	if raw == "" {
		raw = "vendor=vendor,pic=approver,dcfm=approver,soc=approver"
	}
	table := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		role, capability, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		table[strings.ToLower(strings.TrimSpace(role))] = strings.ToLower(strings.TrimSpace(capability))
	}
	return table
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
