package models

import "strings"

// Fixed created timestamp used for every entry in the OpenAI model list.
const openAIModelCreated = 1677610602

// OpenAIModel is a single /v1/models entry.
type OpenAIModel struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// OpenAIModelList is the /v1/models response body.
type OpenAIModelList struct {
	Object string        `json:"object"`
	Data   []OpenAIModel `json:"data"`
}

// OpenAIModels renders the catalog as OpenAI model entries. IDs drop the
// "models/" resource prefix since OpenAI clients pass bare names.
func OpenAIModels() OpenAIModelList {
	catalog := Catalog()
	data := make([]OpenAIModel, 0, len(catalog))
	for _, desc := range catalog {
		data = append(data, OpenAIModelEntry(desc.Name))
	}
	return OpenAIModelList{Object: "list", Data: data}
}

// OpenAIModelEntry renders one catalog name as an OpenAI model object.
func OpenAIModelEntry(name string) OpenAIModel {
	return OpenAIModel{
		ID:      strings.TrimPrefix(name, "models/"),
		Object:  "model",
		Created: openAIModelCreated,
		OwnedBy: "google",
	}
}

// GeminiModelList is the /v1beta/models response body.
type GeminiModelList struct {
	Models []ModelDescriptor `json:"models"`
}

// GeminiModels renders the catalog in native list form.
func GeminiModels() GeminiModelList {
	return GeminiModelList{Models: Catalog()}
}
