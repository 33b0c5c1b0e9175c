package constants

const (
	// AppName is the service name reported by the root descriptor and health endpoint.
	AppName = "geminicli2api"

	// AppVersion is the service version reported by the root descriptor.
	AppVersion = "1.0.0"

	// CLIVersion is the gemini-cli release we present as to the Code Assist API.
	// 升级前先确认官方 CLI 的 User-Agent 与 ClientMetadata 是否同步变化。
	CLIVersion = "0.1.5"
)
