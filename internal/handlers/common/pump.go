package common

import (
	"fmt"
	"io"
	"time"

	apperrors "geminicli2api-go/internal/errors"
	"geminicli2api-go/internal/middleware"
	"geminicli2api-go/internal/translator"
	"geminicli2api-go/internal/usage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// StreamParams carries the accounting identity of one translated stream.
type StreamParams struct {
	Protocol string
	Model    string
	Tracker  *usage.Tracker
}

// PumpSSE drains an upstream SSE body through the translator and writes the
// resulting events to the client. It owns body and closes it. Usage tokens
// are taken from the last frame carrying usageMetadata; the stream close
// reason and line/tool-call counts feed the metrics recorders.
//
// 上游的重试只发生在第一个字节之前（见 upstream 包），到这里的流只会
// 完整消费或原样中断，不存在中途重放。
func PumpSSE(c *gin.Context, body io.ReadCloser, tr translator.StreamTranslator, p StreamParams) {
	defer body.Close()

	w, flusher := PrepareSSE(c)
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}

	scanner := NewSSEScanner(body)

	var tokens usage.Tokens
	toolCalls := 0
	lines := 0
	reason := "eof"
	success := true

	write := func(events []translator.Event) bool {
		n, err := WriteEvents(w, flusher, events)
		lines += n
		if err != nil {
			reason = "client_disconnect"
			success = false
			return false
		}
		return true
	}

loop:
	for {
		frame, done, err := scanner.Next()
		if err != nil {
			log.WithFields(log.Fields{
				"protocol": p.Protocol,
				"model":    p.Model,
			}).WithError(err).Warn("Upstream stream read failed")
			write(tr.Fail(apperrors.Transport(fmt.Sprintf("upstream stream read: %v", err))))
			reason = "upstream_error"
			success = false
			break loop
		}
		if done {
			write(tr.Finish())
			break loop
		}

		if t, ok := usage.TokensFromFrame(frame); ok {
			tokens = t
		}
		toolCalls += usage.CountFunctionCalls(frame)

		events, terminal := tr.Push(frame)
		if !write(events) {
			break loop
		}
		if terminal {
			// In-band upstream error: the translator already emitted the
			// closing events for its surface.
			reason = "upstream_error"
			success = false
			break loop
		}
	}

	middleware.RecordSSELines(p.Protocol, path, lines)
	middleware.RecordToolCalls(p.Protocol, path, toolCalls)
	middleware.RecordSSEClose(p.Protocol, path, reason)

	if p.Tracker != nil {
		p.Tracker.Record(usage.Record{
			Timestamp: time.Now(),
			Protocol:  p.Protocol,
			Model:     p.Model,
			Success:   success,
			Streaming: true,
			Tokens:    tokens,
		})
	}
}
