package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/asterhq/aster/pkg/redis"
)

const recoveryKeyPrefix = "recovery:"

// Recovery stores password-recovery codes in Redis keyed by mail address.
// A code survives for its TTL and is consumed on successful verification.
type Recovery struct {
	store *redis.Client
	ttl   time.Duration
}

func NewRecovery(store *redis.Client, ttl time.Duration) *Recovery {
	return &Recovery{
		store: store,
		ttl:   ttl,
	}
}

// IssueCode generates and stores a six digit code for the mail address,
// replacing any previous one.
func (r *Recovery) IssueCode(ctx context.Context, mail string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate recovery code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	if err := r.store.Set(ctx, recoveryKeyPrefix+mail, code, r.ttl); err != nil {
		return "", fmt.Errorf("failed to store recovery code: %w", err)
	}

	return code, nil
}

// VerifyCode checks the code for the mail address and consumes it when it
// matches.
func (r *Recovery) VerifyCode(ctx context.Context, mail, code string) (bool, error) {
	key := recoveryKeyPrefix + mail

	stored, err := r.store.Get(ctx, key)
	if err != nil {
		return false, nil
	}

	if stored != code {
		return false, nil
	}

	if err := r.store.Del(ctx, key); err != nil {
		return true, err
	}

	return true, nil
}
