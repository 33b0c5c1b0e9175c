package common

import (
	"io"
	"net/http"

	"geminicli2api-go/internal/translator"
	"github.com/gin-gonic/gin"
)

// PrepareSSE sets the standard event-stream headers and returns the
// writer/flusher pair.
func PrepareSSE(c *gin.Context) (gin.ResponseWriter, http.Flusher) {
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	w := c.Writer
	fl, _ := w.(http.Flusher)
	return w, fl
}

// WriteEvents writes translated events to the wire and flushes once at the
// end. An event with a Name produces an `event:` line before its data line.
// Returns the number of SSE lines written.
func WriteEvents(w io.Writer, flusher http.Flusher, events []translator.Event) (int, error) {
	lines := 0
	for _, ev := range events {
		if ev.Name != "" {
			if _, err := w.Write([]byte("event: " + ev.Name + "\n")); err != nil {
				return lines, err
			}
			lines++
		}
		if _, err := w.Write([]byte("data: ")); err != nil {
			return lines, err
		}
		if _, err := w.Write(ev.Data); err != nil {
			return lines, err
		}
		if _, err := w.Write([]byte("\n\n")); err != nil {
			return lines, err
		}
		lines++
	}
	if len(events) > 0 && flusher != nil {
		flusher.Flush()
	}
	return lines, nil
}
