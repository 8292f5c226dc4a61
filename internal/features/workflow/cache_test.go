package workflow

import (
	"context"
	"testing"
	"time"

	"go-crm-core/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func TestCachedRuleSource(t *testing.T) {
	h := newHarness(t)
	mr, client := setupRedis(t)
	ctx := context.Background()
	cache := NewCachedRuleSource(h.repo, client, time.Minute, zaptest.NewLogger(t))

	rule := &models.Workflow{Name: "cached", EventType: "deal.updated", IsActive: true, Priority: 3}
	require.NoError(t, h.repo.Create(ctx, rule))

	misses := testutil.ToFloat64(ruleCacheLookups.WithLabelValues("miss"))
	rules, err := cache.ActiveRules(ctx, "deal.updated")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.True(t, mr.Exists("workflow:rules:deal.updated"))
	assert.Equal(t, time.Minute, mr.TTL("workflow:rules:deal.updated"))
	assert.Equal(t, misses+1, testutil.ToFloat64(ruleCacheLookups.WithLabelValues("miss")))

	// a write behind the cache's back stays invisible until invalidated
	require.NoError(t, h.repo.Delete(ctx, rule.ID))
	rules, err = cache.ActiveRules(ctx, "deal.updated")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "cached", rules[0].Name)
	assert.Equal(t, 3, rules[0].Priority)

	require.NoError(t, cache.Invalidate(ctx, "deal.updated", ""))
	rules, err = cache.ActiveRules(ctx, "deal.updated")
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestServiceInvalidatesCacheOnWrite(t *testing.T) {
	h := newHarness(t)
	_, client := setupRedis(t)
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	cache := NewCachedRuleSource(h.repo, client, time.Minute, logger)
	svc := NewWorkflowService(h.repo, cache, NewActionExecutor(h.dispatcher, h.notifier, logger), h.dispatcher, logger)

	report, err := svc.Dispatch(ctx, "deal.updated", &models.Deal{Title: "warm-up"})
	require.NoError(t, err)
	assert.Empty(t, report.Rules)

	require.NoError(t, svc.CreateRule(ctx, &models.Workflow{
		Name: "notify", EventType: "deal.updated", IsActive: true,
		Actions: []models.Action{{Type: string(ActionSendNotification), Params: map[string]any{"message": "hi"}}},
	}))

	deal := &models.Deal{Title: "Big"}
	h.create(t, deal)
	report, err = svc.Dispatch(ctx, "deal.updated", deal)
	require.NoError(t, err)
	require.Len(t, report.Rules, 1)
	assert.True(t, report.Rules[0].Matched)
}

func TestCacheFallsBackWhenRedisIsDown(t *testing.T) {
	h := newHarness(t)
	mr, client := setupRedis(t)
	ctx := context.Background()
	cache := NewCachedRuleSource(h.repo, client, time.Minute, zaptest.NewLogger(t))
	require.NoError(t, h.repo.Create(ctx, &models.Workflow{Name: "r", EventType: "lead.created", IsActive: true}))

	mr.Close()
	rules, err := cache.ActiveRules(ctx, "lead.created")
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}
