package constants

// 上游 SSE 行缓冲。单帧可能携带整段 base64 内联图片，上限随之放宽。
const (
	// SSELineInitialBuffer is the starting buffer for upstream SSE line scanning.
	SSELineInitialBuffer = 64 * 1024
	// SSELineMaxBuffer caps one SSE line; image-bearing frames approach megabytes.
	SSELineMaxBuffer = 4 * 1024 * 1024
)
