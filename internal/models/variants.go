package models

import "strings"

// Variant represents the parsed features of an exposed model name.
type Variant struct {
	Base        string
	Search      bool
	NoThinking  bool
	MaxThinking bool
}

// ParseModel parses an exposed model name and extracts variant features.
func ParseModel(name string) Variant {
	return Variant{
		Base:        BaseModel(name),
		Search:      IsSearchModel(name),
		NoThinking:  IsNoThinkingModel(name),
		MaxThinking: IsMaxThinkingModel(name),
	}
}

// BaseModel strips variant suffixes to recover the upstream model name.
// Suffix order matters: thinking suffixes come before -search.
func BaseModel(name string) string {
	for _, suffix := range []string{"-maxthinking", "-nothinking", "-search"} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}

func IsSearchModel(name string) bool      { return strings.Contains(name, "-search") }
func IsNoThinkingModel(name string) bool  { return strings.Contains(name, "-nothinking") }
func IsMaxThinkingModel(name string) bool { return strings.Contains(name, "-maxthinking") }

// ThinkingBudget returns the upstream thinkingBudget for a model name,
// honoring explicit -nothinking/-maxthinking suffixes. -1 means model default.
func ThinkingBudget(name string) int {
	base := BaseModel(name)

	if IsNoThinkingModel(name) {
		switch {
		case strings.Contains(base, "gemini-2.5-flash"):
			return 0
		case strings.Contains(base, "gemini-2.5-pro"):
			return 128
		case strings.Contains(base, "gemini-3-pro"):
			return 128
		}
		return 0
	}
	if IsMaxThinkingModel(name) {
		switch {
		case strings.Contains(base, "gemini-2.5-flash"):
			return 24576
		case strings.Contains(base, "gemini-2.5-pro"):
			return 32768
		case strings.Contains(base, "gemini-3-pro"):
			return 45000
		}
		return 32768
	}
	return -1
}

// IncludeThoughts reports whether thought summaries should be requested.
// Only flash models in nothinking mode drop them.
func IncludeThoughts(name string) bool {
	if IsNoThinkingModel(name) {
		base := BaseModel(name)
		return strings.Contains(base, "gemini-2.5-pro") || strings.Contains(base, "gemini-3-pro")
	}
	return true
}

// ThinkingDirective is the resolved thinkingConfig for an upstream request.
type ThinkingDirective struct {
	Budget          int
	IncludeThoughts bool
}

// effortBudgets maps OpenAI reasoning_effort levels to per-family budgets.
// The "default" key applies regardless of base family.
var effortBudgets = map[string][]struct {
	family string
	budget int
}{
	"minimal": {
		{"gemini-2.5-flash", 0},
		{"gemini-2.5-pro", 128},
		{"gemini-3-pro", 128},
	},
	"low":    {{"default", 1000}},
	"medium": {{"default", -1}},
	"high": {
		{"gemini-2.5-flash", 24576},
		{"gemini-2.5-pro", 32768},
		{"gemini-3-pro", 45000},
	},
}

// ResolveThinking computes the thinkingConfig for a model, giving explicit
// variant suffixes priority over the caller's reasoning_effort. Image models
// take no thinkingConfig at all; the second return is false in that case and
// when an unknown effort matches nothing.
func ResolveThinking(model, reasoningEffort string) (ThinkingDirective, bool) {
	if strings.Contains(model, "gemini-2.5-flash-image") {
		return ThinkingDirective{}, false
	}

	if IsNoThinkingModel(model) || IsMaxThinkingModel(model) {
		return ThinkingDirective{Budget: ThinkingBudget(model), IncludeThoughts: IncludeThoughts(model)}, true
	}

	if reasoningEffort != "" {
		entries, ok := effortBudgets[reasoningEffort]
		if !ok {
			return ThinkingDirective{}, false
		}
		base := BaseModel(model)
		for _, e := range entries {
			if e.family == "default" || strings.Contains(base, e.family) {
				return ThinkingDirective{Budget: e.budget, IncludeThoughts: IncludeThoughts(model)}, true
			}
		}
		return ThinkingDirective{}, false
	}

	return ThinkingDirective{Budget: -1, IncludeThoughts: true}, true
}
