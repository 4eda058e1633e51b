package model

import (
	"math"
	"sync"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNormalizeModelName(t *testing.T) {
	tests := []struct {
		id   string
		want ModelName
	}{
		{"gpt-4o", ModelGPT4o},
		{"gpt-4o-2024-08-06", ModelGPT4o},
		{"gpt-4o-mini", ModelGPT4oMini},
		{"gpt-4o-mini-2024-07-18", ModelGPT4oMini},
		{"gpt-4-0613", ModelGPT4},
		{"gpt-4-turbo-preview", ModelGPT4Turbo},
		{"gpt-4.1", ModelGPT41},
		{"gpt-4.1-mini-2025-04-14", ModelGPT41Mini},
		{"gpt-3.5-turbo-16k", ModelGPT35Turbo},
		{"gpt-5-nano", ModelGPT5Nano},
		{"GPT-5", ModelGPT5},
		{"o3-mini-2025-01-31", ModelO3Mini},
		{"ft:gpt-4o-mini-2024-07-18:acme::abc123", ModelGPT4oMini},
		{"llama3.2:latest", ModelName("llama3.2:latest")},
		{"gpt-4x", ModelName("gpt-4x")},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := NormalizeModelName(tt.id); got != tt.want {
				t.Errorf("NormalizeModelName(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestContextWindow(t *testing.T) {
	if got := ContextWindow("gpt-4o-2024-08-06", 1000); got != 128000 {
		t.Errorf("ContextWindow(gpt-4o) = %d, want 128000", got)
	}
	if got := ContextWindow("gpt-4-0613", 1000); got != 8192 {
		t.Errorf("ContextWindow(gpt-4) = %d, want 8192", got)
	}
	if got := ContextWindow("mystery", 4096); got != 4096 {
		t.Errorf("ContextWindow(unknown) = %d, want fallback 4096", got)
	}
}

func TestCostFor(t *testing.T) {
	// gpt-4o-mini: $0.15 in, $0.60 out per million.
	if got := CostFor("gpt-4o-mini-2024-07-18", 1_000_000, 1_000_000); !approx(got, 0.75) {
		t.Errorf("CostFor(gpt-4o-mini) = %f, want 0.75", got)
	}
	if got := CostFor("unknown-model", 1_000_000, 1_000_000); got != 0 {
		t.Errorf("CostFor(unknown) = %f, want 0", got)
	}
}

func TestCostTracker(t *testing.T) {
	t.Run("record and retrieve", func(t *testing.T) {
		tracker := NewCostTracker()

		tracker.Record("gpt-4o", 1000, 500)
		tracker.Record("gpt-4o-2024-08-06", 500, 250)
		tracker.Record("gpt-4.1", 2000, 1000)

		gpt4o := tracker.Usage("gpt-4o")
		if gpt4o.InputTokens != 1500 || gpt4o.OutputTokens != 750 || gpt4o.Requests != 2 {
			t.Errorf("gpt-4o usage = %+v, want {Input:1500, Output:750, Requests:2}", gpt4o)
		}

		gpt41 := tracker.Usage(string(ModelGPT41))
		if gpt41.InputTokens != 2000 || gpt41.OutputTokens != 1000 || gpt41.Requests != 1 {
			t.Errorf("gpt-4.1 usage = %+v, want {Input:2000, Output:1000, Requests:1}", gpt41)
		}
	})

	t.Run("summary", func(t *testing.T) {
		tracker := NewCostTracker()
		tracker.Record("gpt-4o", 100, 50)
		tracker.Record("gpt-4o-mini", 200, 100)

		summary := tracker.Summary()
		if len(summary) != 2 {
			t.Errorf("Summary has %d entries, want 2", len(summary))
		}

		summary[ModelGPT4o] = Usage{InputTokens: 999}
		if tracker.Usage("gpt-4o").InputTokens == 999 {
			t.Error("Summary returned reference instead of copy")
		}
	})

	t.Run("total usage", func(t *testing.T) {
		tracker := NewCostTracker()
		tracker.Record("gpt-4o", 100, 50)
		tracker.Record("gpt-4.1", 200, 100)
		tracker.Record("local-model", 50, 25)

		total := tracker.TotalUsage()
		if total.InputTokens != 350 || total.OutputTokens != 175 || total.Requests != 3 {
			t.Errorf("TotalUsage() = %+v, want {Input:350, Output:175, Requests:3}", total)
		}
	})

	t.Run("estimated cost skips unpriced models", func(t *testing.T) {
		tracker := NewCostTracker()
		// gpt-4o: $2.50 in + $10.00 out per million.
		tracker.Record("gpt-4o", 1_000_000, 1_000_000)
		tracker.Record("local-model", 1_000_000, 1_000_000)

		if cost := tracker.EstimatedCost(); !approx(cost, 12.5) {
			t.Errorf("EstimatedCost() = %f, want 12.5", cost)
		}
	})

	t.Run("cost by model", func(t *testing.T) {
		tracker := NewCostTracker()
		tracker.Record("gpt-4o", 1_000_000, 0)
		tracker.Record("gpt-4.1", 1_000_000, 0)

		costs := tracker.EstimatedCostByModel()
		if !approx(costs[ModelGPT4o], 2.5) {
			t.Errorf("gpt-4o cost = %f, want 2.5", costs[ModelGPT4o])
		}
		if !approx(costs[ModelGPT41], 2.0) {
			t.Errorf("gpt-4.1 cost = %f, want 2.0", costs[ModelGPT41])
		}
	})

	t.Run("reset", func(t *testing.T) {
		tracker := NewCostTracker()
		tracker.Record("gpt-4o", 1000, 500)
		tracker.Reset()

		if usage := tracker.Usage("gpt-4o"); usage.InputTokens != 0 {
			t.Error("Reset did not clear usage")
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		tracker := NewCostTracker()
		var wg sync.WaitGroup

		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tracker.Record("gpt-4o", 100, 50)
			}()
		}

		wg.Wait()

		if usage := tracker.Usage("gpt-4o"); usage.Requests != 100 {
			t.Errorf("Concurrent requests = %d, want 100", usage.Requests)
		}
	})
}

func TestUsage(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		u1 := Usage{InputTokens: 100, OutputTokens: 50, Requests: 1}
		u2 := Usage{InputTokens: 200, OutputTokens: 100, Requests: 2}

		u1.Add(u2)
		if u1.InputTokens != 300 || u1.OutputTokens != 150 || u1.Requests != 3 {
			t.Errorf("After Add: %+v, want {Input:300, Output:150, Requests:3}", u1)
		}
	})

	t.Run("total tokens", func(t *testing.T) {
		u := Usage{InputTokens: 100, OutputTokens: 50}
		if got := u.TotalTokens(); got != 150 {
			t.Errorf("TotalTokens() = %d, want 150", got)
		}
	})
}
