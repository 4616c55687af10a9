package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carebook/carebook-platform/pkg/logging"
)

// VelocityChecker limits how often a payment order can be created for the
// same appointment. It fails open when Redis is unreachable.
type VelocityChecker struct {
	redis  *redis.Client
	logger *logging.Logger
	config VelocityConfig
}

// VelocityConfig contains velocity check limits.
type VelocityConfig struct {
	MaxOrdersPerAppointment int
	OrderWindow             time.Duration
	Enabled                 bool
}

// DefaultVelocityConfig returns default velocity limits.
func DefaultVelocityConfig() VelocityConfig {
	return VelocityConfig{
		MaxOrdersPerAppointment: 5,
		OrderWindow:             time.Hour,
		Enabled:                 true,
	}
}

// VelocityResult contains the result of a velocity check.
type VelocityResult struct {
	Allowed      bool
	CurrentCount int
	MaxAllowed   int
	WindowExpiry time.Time
}

// NewVelocityChecker creates a new velocity checker.
func NewVelocityChecker(redisClient *redis.Client, config VelocityConfig, logger *logging.Logger) *VelocityChecker {
	if logger == nil {
		logger = logging.Default()
	}
	return &VelocityChecker{
		redis:  redisClient,
		logger: logger,
		config: config,
	}
}

// CheckOrderVelocity checks whether another payment order may be created for
// the appointment.
func (v *VelocityChecker) CheckOrderVelocity(ctx context.Context, appointmentID uuid.UUID) (*VelocityResult, error) {
	if !v.config.Enabled || v.redis == nil {
		return &VelocityResult{Allowed: true}, nil
	}

	key := fmt.Sprintf("velocity:order:%s", appointmentID)

	count, expiry, err := v.incrementAndGet(ctx, key, v.config.OrderWindow)
	if err != nil {
		v.logger.Error("velocity check failed", "error", err, "key", key)
		// Fail open when Redis is down
		return &VelocityResult{Allowed: true}, nil
	}

	result := &VelocityResult{
		Allowed:      count <= v.config.MaxOrdersPerAppointment,
		CurrentCount: count,
		MaxAllowed:   v.config.MaxOrdersPerAppointment,
		WindowExpiry: expiry,
	}

	if !result.Allowed {
		v.logger.Warn("order velocity exceeded",
			"appointment_id", appointmentID,
			"count", count,
			"max", v.config.MaxOrdersPerAppointment,
		)
	}

	return result, nil
}

// ResetOrderVelocity clears the counter for an appointment (admin use).
func (v *VelocityChecker) ResetOrderVelocity(ctx context.Context, appointmentID uuid.UUID) error {
	if v.redis == nil {
		return nil
	}
	return v.redis.Del(ctx, fmt.Sprintf("velocity:order:%s", appointmentID)).Err()
}

// incrementAndGet increments a counter and returns the new value with its
// window expiry.
func (v *VelocityChecker) incrementAndGet(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	count, err := v.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, err
	}

	// Set expiry only on first increment
	if count == 1 {
		v.redis.Expire(ctx, key, window)
	}

	ttl, err := v.redis.TTL(ctx, key).Result()
	if err != nil {
		ttl = window
	}

	return int(count), time.Now().Add(ttl), nil
}
