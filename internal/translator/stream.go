package translator

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	apperrors "geminicli2api-go/internal/errors"
)

// Event is one translated SSE event ready for the wire. An empty Name means
// a bare `data:` frame; Data holds the payload exactly as it should appear
// after "data: ".
type Event struct {
	Name string
	Data []byte
}

// StreamTranslator turns decoded upstream frames into caller-schema events.
// Push is called once per upstream `data:` payload, in arrival order; done
// reports that the machine emitted its terminal events (in-band upstream
// error) and must not be pushed again. Finish is called at clean upstream
// EOF, Fail on a transport failure; both return the closing events.
type StreamTranslator interface {
	Push(frame []byte) (events []Event, done bool)
	Finish() []Event
	Fail(apiErr *apperrors.APIError) []Event
}

func dataEvent(payload any) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{Data: []byte("{}")}
	}
	return Event{Data: data}
}

func namedEvent(name string, payload any) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{Name: name, Data: []byte("{}")}
	}
	return Event{Name: name, Data: data}
}

// decodeFrame unwraps and validates an upstream frame. ok is false for
// unparseable payloads, which callers skip without terminating the stream.
func decodeFrame(frame []byte) (gjson.Result, bool) {
	if !gjson.ValidBytes(frame) {
		return gjson.Result{}, false
	}
	return gjson.ParseBytes(unwrapFrame(frame)), true
}

// frameError reports an in-band upstream error object carried inside a
// stream frame. Those terminate the translated stream.
func frameError(resp gjson.Result) (gjson.Result, bool) {
	errObj := resp.Get("error")
	return errObj, errObj.Exists()
}
