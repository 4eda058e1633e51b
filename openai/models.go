package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"

	"github.com/randalmurphal/chatkit/provider"
)

// modelCache memoizes the filtered model list.
// Concurrent misses share one fetch through the singleflight group.
// Failed fetches leave the cache empty so the next call retries.
type modelCache struct {
	group singleflight.Group

	mu     sync.RWMutex
	models []provider.ModelInfo
	loaded bool
}

func newModelCache() *modelCache {
	return &modelCache{}
}

func (m *modelCache) get() ([]provider.ModelInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.loaded {
		return nil, false
	}
	return slices.Clone(m.models), true
}

func (m *modelCache) set(models []provider.ModelInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = models
	m.loaded = true
}

func (m *modelCache) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = nil
	m.loaded = false
}

// ListModels implements provider.ModelLister.
//
// The first call fetches GET /models, keeps ids starting with the configured
// prefix and sorts them by id. Later calls return the memoized list. Callers
// that arrive while a fetch is in flight wait for it instead of starting
// their own.
func (c *Client) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	if models, ok := c.models.get(); ok {
		return models, nil
	}

	// The shared fetch must outlive any single waiter's cancellation;
	// the HTTP client timeout still bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.models.group.DoChan("models", func() (any, error) {
		if models, ok := c.models.get(); ok {
			return models, nil
		}
		models, err := c.fetchModels(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.models.set(models)
		slog.Debug("model list cached", slog.Int("count", len(models)))
		return models, nil
	})

	select {
	case <-ctx.Done():
		return nil, provider.NewError(providerName, "list_models", ctx.Err(), false)
	case res := <-ch:
		if res.Err != nil {
			return nil, wrapError("list_models", res.Err)
		}
		return slices.Clone(res.Val.([]provider.ModelInfo)), nil
	}
}

// RefreshModels drops the memoized list and fetches it again.
func (c *Client) RefreshModels(ctx context.Context) ([]provider.ModelInfo, error) {
	c.models.reset()
	c.models.group.Forget("models")
	return c.ListModels(ctx)
}

// fetchModels performs the GET and applies the prefix filter and sort.
func (c *Client) fetchModels(ctx context.Context) ([]provider.ModelInfo, error) {
	all, err := c.FetchAllModels(ctx)
	if err != nil {
		return nil, err
	}
	return filterModels(all, c.cfg.ModelPrefix), nil
}

// FetchAllModels returns every model from GET /models, unfiltered and
// without touching the memo.
func (c *Client) FetchAllModels(ctx context.Context) ([]Model, error) {
	resp, err := c.do(ctx, "list_models", http.MethodGet, "/models", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var list modelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode models: %w", err)
	}
	return list.Data, nil
}

// filterModels keeps models whose id starts with prefix, sorted by id.
func filterModels(all []Model, prefix string) []provider.ModelInfo {
	kept := lo.Filter(all, func(m Model, _ int) bool {
		return strings.HasPrefix(m.ID, prefix)
	})
	out := lo.Map(kept, func(m Model, _ int) provider.ModelInfo {
		return provider.ModelInfo{ID: m.ID, Object: m.Object, Created: m.Created, OwnedBy: m.OwnedBy}
	})
	slices.SortFunc(out, func(a, b provider.ModelInfo) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
