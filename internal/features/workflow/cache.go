package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-crm-core/internal/config"
	"go-crm-core/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const ruleCachePrefix = "workflow:rules:"

// CachedRuleSource fronts a RuleSource with Redis. Rules are stored as JSON
// per event type. Redis failures fall back to the underlying source.
type CachedRuleSource struct {
	next   RuleSource
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedRuleSource(next RuleSource, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedRuleSource {
	return &CachedRuleSource{next: next, client: client, ttl: ttl, logger: logger}
}

// NewRuleCache returns nil when Redis is not configured.
func NewRuleCache(repo WorkflowRepository, client *redis.Client, cfg *config.Config, logger *zap.Logger) *CachedRuleSource {
	if client == nil || cfg.RuleCacheTTL <= 0 {
		return nil
	}
	return NewCachedRuleSource(repo, client, cfg.RuleCacheTTL, logger.Named("rule_cache"))
}

func cacheKey(eventType string) string { return ruleCachePrefix + eventType }

func (c *CachedRuleSource) ActiveRules(ctx context.Context, eventType string) ([]*models.Workflow, error) {
	key := cacheKey(eventType)
	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var rules []*models.Workflow
		if err := json.Unmarshal([]byte(val), &rules); err == nil {
			ruleCacheLookups.WithLabelValues("hit").Inc()
			return rules, nil
		}
		c.logger.Warn("discarding undecodable rule cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("rule cache read failed", zap.String("key", key), zap.Error(err))
	}
	ruleCacheLookups.WithLabelValues("miss").Inc()

	rules, err := c.next.ActiveRules(ctx, eventType)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(rules)
	if err != nil {
		return rules, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("rule cache write failed", zap.String("key", key), zap.Error(err))
	}
	return rules, nil
}

// Invalidate drops the cached rules of the given event types.
func (c *CachedRuleSource) Invalidate(ctx context.Context, eventTypes ...string) error {
	keys := make([]string, 0, len(eventTypes))
	for _, e := range eventTypes {
		if e != "" {
			keys = append(keys, cacheKey(e))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
