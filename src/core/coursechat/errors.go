package coursechat

import (
	"fmt"
	"strings"
)

// UnknownToolError reports a model request for a tool that was never registered
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// Model API failure kinds
const (
	ModelErrRateLimited = "rate_limited"
	ModelErrBadRequest  = "bad_request"
	ModelErrService     = "service"
)

// ModelAPIError wraps a failure from the chat model provider
type ModelAPIError struct {
	Kind string
	Err  error
}

func (e *ModelAPIError) Error() string {
	return fmt.Sprintf("model api error (%s): %v", e.Kind, e.Err)
}

func (e *ModelAPIError) Unwrap() error {
	return e.Err
}

// classifyModelError maps provider errors onto ModelAPIError kinds. The
// langchaingo anthropic provider surfaces HTTP failures as plain errors,
// so classification goes by message.
func classifyModelError(err error) *ModelAPIError {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") || strings.Contains(msg, "too many requests"):
		return &ModelAPIError{Kind: ModelErrRateLimited, Err: err}
	case strings.Contains(msg, "bad request") || strings.Contains(msg, "400") || strings.Contains(msg, "invalid request"):
		return &ModelAPIError{Kind: ModelErrBadRequest, Err: err}
	default:
		return &ModelAPIError{Kind: ModelErrService, Err: err}
	}
}
