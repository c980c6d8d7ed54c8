package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/keepsakelabs/keepsake/internal/clock"
	"github.com/keepsakelabs/keepsake/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyPublicValidate = "public:validate:%s"
	keyPublicUpload   = "public:upload:%s"
)

// PublicLimiter throttles the unauthenticated endpoints per client address.
// Validation checks and file uploads carry separate budgets since uploads
// are far more expensive.
type PublicLimiter struct {
	enabled bool
	bucket  Bucket

	validateRate  float64
	validateBurst int
	uploadRate    float64
	uploadBurst   int
}

type Params struct {
	fx.In

	Config config.Config
	Clock  clock.Clock
	Log    *zap.Logger
}

func NewPublicLimiter(p Params) *PublicLimiter {
	cfg := p.Config
	if !cfg.RateLimitEnabled {
		return nil
	}

	log := p.Log.Named("ratelimit")
	var bucket Bucket
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: strings.TrimSpace(cfg.RedisPassword),
			DB:       cfg.RedisDB,
		})
		bucket = NewTokenBucket(client)
		log.Info("rate limiting backed by redis", zap.String("addr", addr))
	} else {
		bucket = NewMemoryBucket(p.Clock)
		log.Warn("rate limiting using in-process buckets, limits are per replica")
	}

	return &PublicLimiter{
		enabled:       true,
		bucket:        bucket,
		validateRate:  cfg.RateLimitValidateRate,
		validateBurst: cfg.RateLimitValidateBurst,
		uploadRate:    cfg.RateLimitUploadRate,
		uploadBurst:   cfg.RateLimitUploadBurst,
	}
}

func (l *PublicLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *PublicLimiter) AllowValidate(ctx context.Context, clientIP string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyPublicValidate, strings.TrimSpace(clientIP)), l.validateRate, l.validateBurst)
}

func (l *PublicLimiter) AllowUpload(ctx context.Context, clientIP string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyPublicUpload, strings.TrimSpace(clientIP)), l.uploadRate, l.uploadBurst)
}

var Module = fx.Module("rate.limit",
	fx.Provide(NewPublicLimiter),
)
