package discovery

import (
	"geminicli2api-go/internal/common"
)

// metadata 构造 loadCodeAssist/onboardUser 请求体里的客户端元数据。
func metadata(project string) common.ClientMetadata {
	return common.NewClientMetadata(project)
}

type loadRequest struct {
	CloudAICompanionProject string                `json:"cloudaicompanionProject,omitempty"`
	Metadata                common.ClientMetadata `json:"metadata"`
}

type onboardRequest struct {
	TierID                  string                `json:"tierId"`
	CloudAICompanionProject string                `json:"cloudaicompanionProject"`
	Metadata                common.ClientMetadata `json:"metadata"`
}
