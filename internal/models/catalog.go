package models

import (
	"sort"
	"strings"
)

// ModelDescriptor mirrors the Gemini models.list entry shape.
type ModelDescriptor struct {
	Name                       string   `json:"name"`
	Version                    string   `json:"version"`
	DisplayName                string   `json:"displayName"`
	Description                string   `json:"description"`
	InputTokenLimit            int      `json:"inputTokenLimit"`
	OutputTokenLimit           int      `json:"outputTokenLimit"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	Temperature                float64  `json:"temperature"`
	MaxTemperature             float64  `json:"maxTemperature"`
	TopP                       float64  `json:"topP"`
	TopK                       int      `json:"topK"`
}

func baseDescriptor(name, displayName, description string) ModelDescriptor {
	return ModelDescriptor{
		Name:                       "models/" + name,
		Version:                    "001",
		DisplayName:                displayName,
		Description:                description,
		InputTokenLimit:            1048576,
		OutputTokenLimit:           65535,
		SupportedGenerationMethods: []string{"generateContent", "streamGenerateContent"},
		Temperature:                1.0,
		MaxTemperature:             2.0,
		TopP:                       0.95,
		TopK:                       64,
	}
}

// BaseModels 上游支持的基础模型（不含变体后缀）
func BaseModels() []ModelDescriptor {
	imagePreview := baseDescriptor("gemini-2.5-flash-image-preview", "Gemini 2.5 Flash Image Preview", "Gemini 2.5 Flash Image Preview")
	imagePreview.InputTokenLimit = 32768
	imagePreview.OutputTokenLimit = 32768

	return []ModelDescriptor{
		baseDescriptor("gemini-2.5-pro-preview-03-25", "Gemini 2.5 Pro Preview 03-25", "Preview version of Gemini 2.5 Pro from May 6th"),
		baseDescriptor("gemini-2.5-pro-preview-05-06", "Gemini 2.5 Pro Preview 05-06", "Preview version of Gemini 2.5 Pro from May 6th"),
		baseDescriptor("gemini-2.5-pro-preview-06-05", "Gemini 2.5 Pro Preview 06-05", "Preview version of Gemini 2.5 Pro from June 5th"),
		baseDescriptor("gemini-2.5-pro", "Gemini 2.5 Pro", "Advanced multimodal model with enhanced capabilities"),
		baseDescriptor("gemini-2.5-flash-preview-05-20", "Gemini 2.5 Flash Preview 05-20", "Preview version of Gemini 2.5 Flash from May 20th"),
		baseDescriptor("gemini-2.5-flash-preview-04-17", "Gemini 2.5 Flash Preview 04-17", "Preview version of Gemini 2.5 Flash from April 17th"),
		baseDescriptor("gemini-2.5-flash", "Gemini 2.5 Flash", "Fast and efficient multimodal model with latest improvements"),
		imagePreview,
		baseDescriptor("gemini-3-pro-preview", "Gemini 3.0 Pro Preview 11-2025", "Preview version of Gemini 3.0 Pro from November 2025"),
	}
}

// supportsVariants reports whether a base model gets derived -search and
// thinking variants. Image models stay as-is.
func supportsVariants(desc ModelDescriptor) bool {
	if strings.Contains(desc.Name, "gemini-2.5-flash-image") {
		return false
	}
	return containsMethod(desc.SupportedGenerationMethods, "generateContent")
}

// supportsThinkingVariants limits -nothinking/-maxthinking to bases with a
// controllable thinking budget.
func supportsThinkingVariants(desc ModelDescriptor) bool {
	if !supportsVariants(desc) {
		return false
	}
	return strings.Contains(desc.Name, "gemini-2.5-flash") ||
		strings.Contains(desc.Name, "gemini-2.5-pro") ||
		strings.Contains(desc.Name, "gemini-3-pro")
}

func containsMethod(methods []string, method string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

func searchVariant(desc ModelDescriptor) ModelDescriptor {
	v := desc
	v.Name = desc.Name + "-search"
	v.DisplayName = desc.DisplayName + " with Google Search"
	v.Description = desc.Description + " (includes Google Search grounding)"
	return v
}

func noThinkingVariant(desc ModelDescriptor) ModelDescriptor {
	v := desc
	v.Name = desc.Name + "-nothinking"
	v.DisplayName = desc.DisplayName + " (No Thinking)"
	v.Description = desc.Description + " (thinking disabled)"
	return v
}

func maxThinkingVariant(desc ModelDescriptor) ModelDescriptor {
	v := desc
	v.Name = desc.Name + "-maxthinking"
	v.DisplayName = desc.DisplayName + " (Max Thinking)"
	v.Description = desc.Description + " (maximum thinking budget)"
	return v
}

// Catalog returns all exposed models: bases plus derived variants, sorted by
// name so variants group next to their base.
func Catalog() []ModelDescriptor {
	bases := BaseModels()
	out := make([]ModelDescriptor, 0, len(bases)*4)
	out = append(out, bases...)

	for _, desc := range bases {
		if supportsVariants(desc) {
			out = append(out, searchVariant(desc))
		}
		if supportsThinkingVariants(desc) {
			out = append(out, noThinkingVariant(desc), maxThinkingVariant(desc))
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a catalog entry by exposed name, with or without the
// "models/" resource prefix.
func Lookup(name string) (ModelDescriptor, bool) {
	want := name
	if !strings.HasPrefix(want, "models/") {
		want = "models/" + want
	}
	for _, desc := range Catalog() {
		if desc.Name == want {
			return desc, true
		}
	}
	return ModelDescriptor{}, false
}

// IsKnownModel reports whether the name resolves to a supported base after
// stripping variant suffixes.
func IsKnownModel(name string) bool {
	base := BaseModel(strings.TrimPrefix(name, "models/"))
	for _, desc := range BaseModels() {
		if desc.Name == "models/"+base {
			return true
		}
	}
	return false
}
