package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/asterhq/aster/pkg/redis"
	"github.com/mojocn/base64Captcha"
)

const captchaKeyPrefix = "captcha:"

// Captcha issues digit challenges and checks answers against Redis, so any
// instance behind the load balancer can verify a challenge another one
// issued.
type Captcha struct {
	driver *base64Captcha.DriverDigit
	store  *redis.Client
	ttl    time.Duration
	logger ectologger.Logger
}

func NewCaptcha(store *redis.Client, ttl time.Duration, logger ectologger.Logger) *Captcha {
	return &Captcha{
		driver: base64Captcha.NewDriverDigit(80, 240, 5, 0.7, 80),
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Generate creates a challenge and returns its id and the base64 PNG.
func (c *Captcha) Generate(ctx context.Context) (id string, image string, err error) {
	id, content, answer := c.driver.GenerateIdQuestionAnswer()

	item, err := c.driver.DrawCaptcha(content)
	if err != nil {
		return "", "", fmt.Errorf("failed to draw captcha: %w", err)
	}

	if err := c.store.Set(ctx, captchaKeyPrefix+id, answer, c.ttl); err != nil {
		return "", "", fmt.Errorf("failed to store captcha answer: %w", err)
	}

	return id, item.EncodeB64string(), nil
}

// Verify checks the answer and consumes the challenge either way: a wrong
// answer burns the id, so answers cannot be brute-forced against one image.
func (c *Captcha) Verify(ctx context.Context, id, answer string) bool {
	key := captchaKeyPrefix + id

	stored, err := c.store.Get(ctx, key)
	if err != nil {
		return false
	}

	if err := c.store.Del(ctx, key); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("failed to delete consumed captcha")
	}

	return strings.EqualFold(strings.TrimSpace(answer), stored)
}
