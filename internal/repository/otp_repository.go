package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bumex/engagement-service/internal/domain"
)

// ErrOTPNotFound signals no pending code exists for the user.
var ErrOTPNotFound = errors.New("one-time code not found")

const otpKeyPrefix = "pending_otp:"

// OTPRepository stores one-time-code records keyed by user id. A new code
// overwrites any prior one, so a single code is active per user; records
// expire with the code's validity window and are deleted on consumption.
type OTPRepository interface {
	Save(ctx context.Context, code *domain.OneTimeCode) error
	Get(ctx context.Context, userID string) (*domain.OneTimeCode, error)
	Delete(ctx context.Context, userID string) error
	// Exists reports whether an unexpired record is pending for the user,
	// without reading the code hash.
	Exists(ctx context.Context, userID string) (bool, error)
}

type otpRepository struct {
	client *redis.Client
}

// NewOTPRepository returns a Redis-backed implementation.
func NewOTPRepository(client *redis.Client) OTPRepository {
	return &otpRepository{client: client}
}

func (r *otpRepository) Save(ctx context.Context, code *domain.OneTimeCode) error {
	payload, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}
	ttl := time.Until(code.ExpiresAt)
	if ttl <= 0 {
		return errors.New("otp record already expired")
	}
	return r.client.Set(ctx, otpKeyPrefix+code.UserID, payload, ttl).Err()
}

func (r *otpRepository) Get(ctx context.Context, userID string) (*domain.OneTimeCode, error) {
	raw, err := r.client.Get(ctx, otpKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrOTPNotFound
	}
	if err != nil {
		return nil, err
	}
	var code domain.OneTimeCode
	if err := json.Unmarshal(raw, &code); err != nil {
		return nil, fmt.Errorf("decode otp record: %w", err)
	}
	return &code, nil
}

func (r *otpRepository) Delete(ctx context.Context, userID string) error {
	return r.client.Del(ctx, otpKeyPrefix+userID).Err()
}

func (r *otpRepository) Exists(ctx context.Context, userID string) (bool, error) {
	n, err := r.client.Exists(ctx, otpKeyPrefix+userID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
