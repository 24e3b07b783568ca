// Package wire defines the request and response envelopes exchanged with the
// rendering peer and their (de)serialization. Requests follow the JSON-RPC
// 2.0 shape; responses correlate back to requests by id. Binary payloads ride
// a positional side-channel and are referenced from params by placeholder
// strings rather than inline values.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Version is the protocol version stamped on every outbound request
const Version = "2.0"

// Request is one outbound command. Params hold only JSON-safe values after
// encoding; large numeric columns may be replaced by buffer placeholders.
type Request struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      uint64         `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

// Response is one inbound reply correlated to a Request by ID. By convention
// exactly one of Result and Error is populated.
type Response struct {
	ID     uint64         `json:"id"`
	Result map[string]any `json:"result,omitempty"`
	Error  *Error         `json:"error,omitempty"`
}

// Error is the error payload of a failed Response
type Error struct {
	Code    int            `json:"code,omitempty"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// EncodeRequest builds and serializes a request envelope. Params are
// sanitized first: numeric array-likes become plain nested JSON arrays,
// integers stay integers, floats stay floats, and non-finite or
// non-serializable values fail the encode. Any buffer placeholder in params
// must reference an index below bufferCount. Encoding is deterministic, so a
// second encode of the same logical structure yields the same bytes.
func EncodeRequest(id uint64, method string, params map[string]any, bufferCount int) ([]byte, error) {
	if method == "" {
		return nil, fmt.Errorf("method cannot be empty")
	}
	if params == nil {
		params = map[string]any{}
	}

	clean, err := sanitizeParams(params)
	if err != nil {
		return nil, fmt.Errorf("sanitize params for %q: %w", method, err)
	}
	if err := validateBufferRefs(clean, bufferCount); err != nil {
		return nil, fmt.Errorf("validate buffer refs for %q: %w", method, err)
	}

	req := Request{
		JSONRPC: Version,
		ID:      id,
		Method:  method,
		Params:  clean,
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request %q: %w", method, err)
	}
	return data, nil
}

// DecodeResponse accepts the response payload in whatever raw shape the
// transport delivers it: raw bytes, text, or an already-parsed mapping. It
// returns an error for anything that cannot be normalized into a Response;
// callers on the inbound path must log and drop that error, never raise it
// into the transport callback.
func DecodeResponse(raw any) (*Response, error) {
	var data []byte
	switch v := raw.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	case string:
		data = []byte(v)
	case map[string]any:
		// Re-encode so id/result/error coercion follows one code path.
		var err error
		data, err = json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal pre-parsed response: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported response payload type %T", raw)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty response payload")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var envelope map[string]any
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}

	rawID, ok := envelope["id"]
	if !ok {
		return nil, fmt.Errorf("response missing id field")
	}
	id, err := coerceID(rawID)
	if err != nil {
		return nil, err
	}

	resp := &Response{ID: id}
	if result, ok := envelope["result"]; ok && result != nil {
		m, ok := result.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("response result must be an object, got %T", result)
		}
		resp.Result = m
	}
	if errVal, ok := envelope["error"]; ok && errVal != nil {
		m, ok := errVal.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("response error must be an object, got %T", errVal)
		}
		resp.Error = decodeError(m)
	}
	return resp, nil
}

func coerceID(v any) (uint64, error) {
	switch n := v.(type) {
	case json.Number:
		id, err := n.Int64()
		if err != nil || id < 0 {
			return 0, fmt.Errorf("response id %q is not a non-negative integer", n.String())
		}
		return uint64(id), nil
	case float64:
		if n < 0 || n != float64(uint64(n)) {
			return 0, fmt.Errorf("response id %v is not a non-negative integer", n)
		}
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("response id %d is negative", n)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("response id %d is negative", n)
		}
		return uint64(n), nil
	case uint64:
		return n, nil
	default:
		return 0, fmt.Errorf("response id has unsupported type %T", v)
	}
}

func decodeError(m map[string]any) *Error {
	e := &Error{}
	if msg, ok := m["message"].(string); ok {
		e.Message = msg
	}
	if code, ok := m["code"]; ok {
		switch c := code.(type) {
		case json.Number:
			if i, err := c.Int64(); err == nil {
				e.Code = int(i)
			}
		case float64:
			e.Code = int(c)
		}
	}
	if data, ok := m["data"].(map[string]any); ok {
		e.Data = data
	}
	if e.Message == "" {
		e.Message = "unspecified peer error"
	}
	return e
}
