package model

import (
	"maps"
	"sync"
)

// Usage tracks token usage for a model.
type Usage struct {
	InputTokens  int
	OutputTokens int
	Requests     int
}

// Add adds the given usage to this usage.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.Requests += other.Requests
}

// TotalTokens returns the total tokens used.
func (u *Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// CostFor returns the USD cost of one call, or 0 for unknown models.
func CostFor(id string, input, output int) float64 {
	info, ok := Lookup(id)
	if !ok {
		return 0
	}
	return price(info, input, output)
}

func price(info Info, input, output int) float64 {
	return float64(input)/1_000_000*info.InputPerMillion +
		float64(output)/1_000_000*info.OutputPerMillion
}

// CostTracker tracks token usage and estimated costs across models.
// Usage is keyed by normalized family name.
type CostTracker struct {
	mu     sync.RWMutex
	totals map[ModelName]Usage
}

// NewCostTracker creates a new cost tracker.
func NewCostTracker() *CostTracker {
	return &CostTracker{
		totals: make(map[ModelName]Usage),
	}
}

// Record adds one request's usage for the given model id.
func (t *CostTracker) Record(id string, input, output int) {
	t.RecordUsage(id, Usage{InputTokens: input, OutputTokens: output, Requests: 1})
}

// RecordUsage adds a usage record for the given model id.
func (t *CostTracker) RecordUsage(id string, usage Usage) {
	name := NormalizeModelName(id)

	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.totals[name]
	u.Add(usage)
	t.totals[name] = u
}

// Usage returns the usage for a specific model id.
func (t *CostTracker) Usage(id string) Usage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totals[NormalizeModelName(id)]
}

// Summary returns a copy of all usage totals.
func (t *CostTracker) Summary() map[ModelName]Usage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.totals)
}

// TotalUsage returns aggregated usage across all models.
func (t *CostTracker) TotalUsage() Usage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var total Usage
	for _, u := range t.totals {
		total.Add(u)
	}
	return total
}

// EstimatedCost returns the total USD cost of models with known pricing.
func (t *CostTracker) EstimatedCost() float64 {
	var total float64
	for _, cost := range t.EstimatedCostByModel() {
		total += cost
	}
	return total
}

// EstimatedCostByModel returns the estimated cost for each priced model.
func (t *CostTracker) EstimatedCostByModel() map[ModelName]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[ModelName]float64, len(t.totals))
	for name, usage := range t.totals {
		info, ok := Families[name]
		if !ok {
			continue
		}
		result[name] = price(info, usage.InputTokens, usage.OutputTokens)
	}
	return result
}

// Reset clears all tracked usage.
func (t *CostTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals = make(map[ModelName]Usage)
}
