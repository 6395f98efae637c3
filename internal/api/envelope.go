package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Envelope is the wrapper every API response uses.
type Envelope struct {
	Success *bool           `json:"success,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *EnvelopeError  `json:"error,omitempty"`
}

// EnvelopeError is the error member of an Envelope.
type EnvelopeError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// hasData reports whether the envelope carries a non-null data member.
func (e Envelope) hasData() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// operation describes one resource call and the messages used when the
// server does not supply its own.
type operation struct {
	method string
	path   string

	// failMsg is used when the envelope error has no message.
	failMsg string

	// emptyMsg is used when data is missing. Empty means data is optional.
	emptyMsg string

	// public calls go out without a bearer token and never refresh.
	public bool
}

// call issues op and decodes the envelope's data into result.
func (c *Client) call(ctx context.Context, op operation, body, result any) error {
	status, raw, err := c.do(ctx, op.method, op.path, body, !op.public)
	if err != nil {
		return err
	}

	var env Envelope
	decodeErr := json.Unmarshal(raw, &env)

	if status < 200 || status >= 300 {
		apiErr := &APIError{Status: status, Message: op.failMsg}
		if decodeErr == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Details = env.Error.Details
			if env.Error.Message != "" {
				apiErr.Message = env.Error.Message
			}
		}
		c.log.Warn("api request failed",
			"method", op.method, "path", op.path, "status", status, "message", apiErr.Message)
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("decoding response from %s %s: %w", op.method, op.path, decodeErr)
	}

	// An error member means failure even on 2xx.
	if env.Error != nil {
		msg := env.Error.Message
		if msg == "" {
			msg = op.failMsg
		}
		return &APIError{
			Status:  status,
			Code:    env.Error.Code,
			Message: msg,
			Details: env.Error.Details,
		}
	}

	if !env.hasData() {
		if op.emptyMsg == "" {
			return nil
		}
		return fmt.Errorf("%s: %w", op.emptyMsg, ErrNoData)
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("unmarshaling data from %s %s: %w", op.method, op.path, err)
	}
	return nil
}

func get(path, failMsg, emptyMsg string) operation {
	return operation{method: http.MethodGet, path: path, failMsg: failMsg, emptyMsg: emptyMsg}
}

func post(path, failMsg, emptyMsg string) operation {
	return operation{method: http.MethodPost, path: path, failMsg: failMsg, emptyMsg: emptyMsg}
}

func patch(path, failMsg, emptyMsg string) operation {
	return operation{method: http.MethodPatch, path: path, failMsg: failMsg, emptyMsg: emptyMsg}
}

func del(path, failMsg, emptyMsg string) operation {
	return operation{method: http.MethodDelete, path: path, failMsg: failMsg, emptyMsg: emptyMsg}
}
