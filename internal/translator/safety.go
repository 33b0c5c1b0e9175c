package translator

import "github.com/tidwall/sjson"

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// permissiveSafetySettings disables every harm filter the endpoint knows
// about. The gateway never moderates; callers own their own policy.
var permissiveSafetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_CIVIC_INTEGRITY", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_IMAGE_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_IMAGE_HARASSMENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_IMAGE_HATE", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_IMAGE_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_UNSPECIFIED", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_JAILBREAK", Threshold: "BLOCK_NONE"},
}

func safetySettingsValue() []map[string]any {
	out := make([]map[string]any, 0, len(permissiveSafetySettings))
	for _, s := range permissiveSafetySettings {
		out = append(out, map[string]any{"category": s.Category, "threshold": s.Threshold})
	}
	return out
}

// applySafetySettings overwrites safetySettings on a raw request body.
func applySafetySettings(body []byte) []byte {
	out, err := sjson.SetBytes(body, "safetySettings", safetySettingsValue())
	if err != nil {
		return body
	}
	return out
}
