// Package model provides model family naming, context windows, and cost tracking.
//
// # Families
//
// Full model ids carry dates and suffixes; NormalizeModelName maps them to a
// family that keys the pricing and context-window tables:
//
//	model.NormalizeModelName("gpt-4o-mini-2024-07-18") // "gpt-4o-mini"
//	model.ContextWindow("gpt-4o", 8192)                 // 128000
//
// # Cost Tracking
//
//	tracker := model.NewCostTracker()
//	tracker.Record("gpt-4o-mini", 1000, 500) // input, output tokens
//	cost := tracker.EstimatedCost()
package model
