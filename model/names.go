package model

import (
	"cmp"
	"slices"
	"strings"
)

// ModelName is a normalized model family name, e.g. "gpt-4o-mini".
type ModelName string

// GPT model families.
const (
	ModelGPT5       ModelName = "gpt-5"
	ModelGPT5Mini   ModelName = "gpt-5-mini"
	ModelGPT5Nano   ModelName = "gpt-5-nano"
	ModelGPT41      ModelName = "gpt-4.1"
	ModelGPT41Mini  ModelName = "gpt-4.1-mini"
	ModelGPT41Nano  ModelName = "gpt-4.1-nano"
	ModelGPT4o      ModelName = "gpt-4o"
	ModelGPT4oMini  ModelName = "gpt-4o-mini"
	ModelGPT4Turbo  ModelName = "gpt-4-turbo"
	ModelGPT4       ModelName = "gpt-4"
	ModelGPT35Turbo ModelName = "gpt-3.5-turbo"
	ModelO1         ModelName = "o1"
	ModelO3         ModelName = "o3"
	ModelO3Mini     ModelName = "o3-mini"
	ModelO4Mini     ModelName = "o4-mini"
)

// Info describes a model family.
type Info struct {
	// ContextWindow is the maximum prompt+completion size in tokens.
	ContextWindow int

	// InputPerMillion and OutputPerMillion are USD prices per million tokens.
	InputPerMillion  float64
	OutputPerMillion float64
}

// Families holds known model families.
var Families = map[ModelName]Info{
	ModelGPT5:       {ContextWindow: 400000, InputPerMillion: 1.25, OutputPerMillion: 10.0},
	ModelGPT5Mini:   {ContextWindow: 400000, InputPerMillion: 0.25, OutputPerMillion: 2.0},
	ModelGPT5Nano:   {ContextWindow: 400000, InputPerMillion: 0.05, OutputPerMillion: 0.40},
	ModelGPT41:      {ContextWindow: 1047576, InputPerMillion: 2.0, OutputPerMillion: 8.0},
	ModelGPT41Mini:  {ContextWindow: 1047576, InputPerMillion: 0.40, OutputPerMillion: 1.60},
	ModelGPT41Nano:  {ContextWindow: 1047576, InputPerMillion: 0.10, OutputPerMillion: 0.40},
	ModelGPT4o:      {ContextWindow: 128000, InputPerMillion: 2.50, OutputPerMillion: 10.0},
	ModelGPT4oMini:  {ContextWindow: 128000, InputPerMillion: 0.15, OutputPerMillion: 0.60},
	ModelGPT4Turbo:  {ContextWindow: 128000, InputPerMillion: 10.0, OutputPerMillion: 30.0},
	ModelGPT4:       {ContextWindow: 8192, InputPerMillion: 30.0, OutputPerMillion: 60.0},
	ModelGPT35Turbo: {ContextWindow: 16385, InputPerMillion: 0.50, OutputPerMillion: 1.50},
	ModelO1:         {ContextWindow: 200000, InputPerMillion: 15.0, OutputPerMillion: 60.0},
	ModelO3:         {ContextWindow: 200000, InputPerMillion: 2.0, OutputPerMillion: 8.0},
	ModelO3Mini:     {ContextWindow: 200000, InputPerMillion: 1.10, OutputPerMillion: 4.40},
	ModelO4Mini:     {ContextWindow: 200000, InputPerMillion: 1.10, OutputPerMillion: 4.40},
}

// familiesByLength lists family names longest first so "gpt-4o-mini"
// is tried before "gpt-4o".
var familiesByLength = func() []ModelName {
	names := make([]ModelName, 0, len(Families))
	for name := range Families {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b ModelName) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(string(a), string(b))
	})
	return names
}()

// NormalizeModelName maps a full model id to its family.
// For example "gpt-4o-mini-2024-07-18" becomes "gpt-4o-mini" and
// "gpt-4-0613" becomes "gpt-4". A family matches only at a "-" boundary, so
// "gpt-4.1" never collapses to "gpt-4". Unknown ids are returned unchanged.
func NormalizeModelName(id string) ModelName {
	lower := strings.ToLower(strings.TrimSpace(id))
	// Fine-tuned ids look like "ft:gpt-4o-mini-2024-07-18:org::abc".
	lower = strings.TrimPrefix(lower, "ft:")

	for _, family := range familiesByLength {
		f := string(family)
		if !strings.HasPrefix(lower, f) {
			continue
		}
		if len(lower) == len(f) {
			return family
		}
		if next := lower[len(f)]; next == '-' || next == ':' {
			return family
		}
	}
	return ModelName(id)
}

// Lookup returns the family info for a model id.
func Lookup(id string) (Info, bool) {
	info, ok := Families[NormalizeModelName(id)]
	return info, ok
}

// ContextWindow returns the context size for a model id, or fallback when
// the family is unknown.
func ContextWindow(id string, fallback int) int {
	if info, ok := Lookup(id); ok {
		return info.ContextWindow
	}
	return fallback
}
