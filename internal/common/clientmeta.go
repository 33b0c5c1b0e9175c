package common

import (
	"fmt"
	"runtime"

	"geminicli2api-go/internal/constants"
)

// UserAgent returns the User-Agent string the official gemini-cli sends,
// e.g. "GeminiCLI/0.1.5 (Linux; x86_64)".
func UserAgent() string {
	return fmt.Sprintf("GeminiCLI/%s (%s; %s)", constants.CLIVersion, platformSystem(), platformMachine())
}

func platformSystem() string {
	switch runtime.GOOS {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "windows":
		return "Windows"
	default:
		return runtime.GOOS
	}
}

func platformMachine() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "arm64"
	case "386":
		return "i686"
	default:
		return runtime.GOARCH
	}
}

// PlatformString maps the runtime OS/arch pair onto the closed set of
// platform identifiers the Code Assist API recognizes.
func PlatformString() string {
	switch runtime.GOOS {
	case "darwin":
		switch runtime.GOARCH {
		case "arm64":
			return "DARWIN_ARM64"
		case "amd64":
			return "DARWIN_AMD64"
		}
	case "linux":
		switch runtime.GOARCH {
		case "arm64":
			return "LINUX_ARM64"
		case "amd64":
			return "LINUX_AMD64"
		}
	case "windows":
		if runtime.GOARCH == "amd64" {
			return "WINDOWS_AMD64"
		}
	}
	return "PLATFORM_UNSPECIFIED"
}

// ClientMetadata rides inside loadCodeAssist and onboardUser request bodies.
// DuetProject stays empty when no project is known yet.
type ClientMetadata struct {
	IDEType     string `json:"ideType"`
	Platform    string `json:"platform"`
	PluginType  string `json:"pluginType"`
	DuetProject string `json:"duetProject,omitempty"`
}

// NewClientMetadata builds the metadata object for the given project.
func NewClientMetadata(projectID string) ClientMetadata {
	return ClientMetadata{
		IDEType:     "IDE_UNSPECIFIED",
		Platform:    PlatformString(),
		PluginType:  "GEMINI",
		DuetProject: projectID,
	}
}
