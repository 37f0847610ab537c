// Package actuator sends unlock and lock commands to remote door lock
// controllers.
package actuator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sentinel/internal/platform/metrics"
	"sentinel/pkg/platform/circuit"
)

// Command names on the controller's HTTP surface.
const (
	CommandUnlock = "unlock"
	CommandLock   = "lock"
)

const commandTokenTTL = 30 * time.Second

// CommandResult reports the outcome of a single unlock or lock command.
//
// A failed unlock does not prove the door stayed locked: the command may have
// reached the device and only its acknowledgement was lost. Callers treat
// failures as operational signals, not as ground truth about the hardware.
type CommandResult struct {
	Command string `json:"command"`
	Success bool   `json:"success"`
	Status  int    `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SequenceResult reports a full unlock-wait-relock sequence.
type SequenceResult struct {
	Unlock   CommandResult `json:"unlock"`
	Lock     CommandResult `json:"lock"`
	Duration time.Duration `json:"duration"`
}

// Client issues authenticated commands to lock controllers. Each command
// carries a short-lived HS256 token so a captured request cannot be replayed
// later.
type Client struct {
	httpClient *http.Client
	secret     []byte
	breaker    *circuit.Breaker
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-command HTTP timeout (default 5s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables actuator command metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithBreaker overrides the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		if b != nil {
			c.breaker = b
		}
	}
}

// New constructs a Client signing commands with the given shared secret.
func New(secret string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		secret:     []byte(secret),
		breaker:    circuit.New("actuator"),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UnlockAndRelock runs the full sequence against the controller at addr:
// unlock, hold for duration, lock. A failed unlock aborts the sequence
// without attempting the lock step. Lock failures are reported, never
// retried. The sequence is expected to run detached from any request.
func (c *Client) UnlockAndRelock(ctx context.Context, addr string, duration time.Duration) SequenceResult {
	result := SequenceResult{Duration: duration}

	result.Unlock = c.send(ctx, addr, CommandUnlock)
	if !result.Unlock.Success {
		c.logger.ErrorContext(ctx, "unlock command failed, door may or may not be locked",
			"addr", addr,
			"error", result.Unlock.Error,
		)
		return result
	}

	c.logger.InfoContext(ctx, "door unlocked, holding before relock",
		"addr", addr,
		"duration", duration,
	)
	time.Sleep(duration)

	result.Lock = c.send(ctx, addr, CommandLock)
	if !result.Lock.Success {
		c.logger.ErrorContext(ctx, "lock command failed",
			"addr", addr,
			"error", result.Lock.Error,
		)
	}
	return result
}

func (c *Client) send(ctx context.Context, addr, command string) CommandResult {
	result := CommandResult{Command: command}

	if !c.breaker.Allow() {
		result.Error = "actuator circuit open"
		c.count(command, "circuit_open")
		return result
	}

	// Every Allow must be answered with Success or Failure, or an open
	// circuit's probe slot is never returned.
	token, err := c.commandToken(addr, command)
	if err != nil {
		c.breaker.Failure()
		result.Error = fmt.Sprintf("sign command token: %v", err)
		c.count(command, "error")
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr+"/"+command, nil)
	if err != nil {
		c.breaker.Failure()
		result.Error = fmt.Sprintf("build request: %v", err)
		c.count(command, "error")
		return result
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.breaker.Failure() {
			c.logger.Warn("actuator circuit opened", "addr", addr)
		}
		result.Error = err.Error()
		c.count(command, "unreachable")
		return result
	}
	defer resp.Body.Close()

	result.Status = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if c.breaker.Failure() {
			c.logger.Warn("actuator circuit opened", "addr", addr)
		}
		result.Error = fmt.Sprintf("controller returned status %d", resp.StatusCode)
		c.count(command, "rejected")
		return result
	}

	if c.breaker.Success() {
		c.logger.Info("actuator circuit closed", "addr", addr)
	}
	result.Success = true
	c.count(command, "ok")
	return result
}

// commandToken mints a short-lived token scoped to one command on one
// controller.
func (c *Client) commandToken(addr, command string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"aud": addr,
		"cmd": command,
		"iat": now.Unix(),
		"exp": now.Add(commandTokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *Client) count(command, outcome string) {
	if c.metrics != nil {
		c.metrics.ActuatorCommands.WithLabelValues(command, outcome).Inc()
	}
}
