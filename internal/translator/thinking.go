package translator

import (
	"github.com/tidwall/gjson"

	"geminicli2api-go/internal/models"
)

// thinkingConfigValue resolves the thinkingConfig object for a model and
// optional reasoning effort. ok is false when the model takes none (image
// models, unknown effort levels).
func thinkingConfigValue(model, reasoningEffort string) (map[string]any, bool) {
	directive, ok := models.ResolveThinking(model, reasoningEffort)
	if !ok {
		return nil, false
	}
	return map[string]any{
		"thinkingBudget":  directive.Budget,
		"includeThoughts": directive.IncludeThoughts,
	}, true
}

// toolConfigFromChoice maps an OpenAI tool_choice to a Gemini toolConfig.
// ok is false when the choice is absent or unrecognized.
func toolConfigFromChoice(choice gjson.Result) (map[string]any, bool) {
	cfg := map[string]any{}
	switch {
	case choice.Type == gjson.String:
		switch choice.String() {
		case "auto":
			cfg["mode"] = "AUTO"
		case "none":
			cfg["mode"] = "NONE"
		case "required":
			cfg["mode"] = "ANY"
		default:
			return nil, false
		}
	case choice.IsObject():
		name := choice.Get("function.name").String()
		if name == "" {
			return nil, false
		}
		cfg["mode"] = "ANY"
		cfg["allowedFunctionNames"] = []string{name}
	default:
		return nil, false
	}
	return map[string]any{"functionCallingConfig": cfg}, true
}

// toolConfigFromAnthropicChoice maps Anthropic's tool_choice object
// (auto / any / tool) to a Gemini toolConfig.
func toolConfigFromAnthropicChoice(choice gjson.Result) (map[string]any, bool) {
	if !choice.IsObject() {
		return nil, false
	}
	cfg := map[string]any{}
	switch choice.Get("type").String() {
	case "auto":
		cfg["mode"] = "AUTO"
	case "any":
		cfg["mode"] = "ANY"
	case "tool":
		name := choice.Get("name").String()
		if name == "" {
			return nil, false
		}
		cfg["mode"] = "ANY"
		cfg["allowedFunctionNames"] = []string{name}
	default:
		return nil, false
	}
	return map[string]any{"functionCallingConfig": cfg}, true
}

// cleanFunctionParameters strips JSON-Schema keywords the endpoint rejects
// ($schema, additionalProperties) from a tool parameter schema, recursively.
func cleanFunctionParameters(params gjson.Result) map[string]any {
	cleaned := map[string]any{}
	params.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "$schema", "additionalProperties":
			return true
		}
		cleaned[key.String()] = cleanSchemaValue(value)
		return true
	})
	return cleaned
}

func cleanSchemaValue(value gjson.Result) any {
	switch {
	case value.IsObject():
		obj := map[string]any{}
		value.ForEach(func(key, v gjson.Result) bool {
			switch key.String() {
			case "$schema", "additionalProperties":
				return true
			}
			obj[key.String()] = cleanSchemaValue(v)
			return true
		})
		return obj
	case value.IsArray():
		var arr []any
		for _, item := range value.Array() {
			arr = append(arr, cleanSchemaValue(item))
		}
		if arr == nil {
			arr = []any{}
		}
		return arr
	default:
		return value.Value()
	}
}

// functionDeclarationsFromTools maps OpenAI tools entries of type function
// into Gemini function declarations; other tool types are ignored.
func functionDeclarationsFromTools(tools []gjson.Result) []map[string]any {
	var decls []map[string]any
	for _, tool := range tools {
		if tool.Get("type").String() != "function" {
			continue
		}
		fn := tool.Get("function")
		name := fn.Get("name").String()
		if name == "" {
			continue
		}
		decl := map[string]any{"name": name}
		if desc := fn.Get("description").String(); desc != "" {
			decl["description"] = desc
		}
		if params := fn.Get("parameters"); params.IsObject() {
			decl["parameters"] = cleanFunctionParameters(params)
		}
		decls = append(decls, decl)
	}
	return decls
}
