package chat

import "helm-server/internal/domain/llm"

const genericStreamError = "The assistant is temporarily unavailable. Please try again."

// SanitizeError converts a provider failure into a client-safe message.
// Internal detail is only exposed in trusted (development) environments.
func SanitizeError(err error, trusted bool) string {
	if err == nil {
		return ""
	}
	if trusted {
		return err.Error()
	}
	switch llm.CategoryOf(err) {
	case llm.CategoryRateLimit:
		return "The assistant is receiving too many requests. Please try again shortly."
	case llm.CategoryOverloaded:
		return "The assistant is overloaded right now. Please try again shortly."
	default:
		return genericStreamError
	}
}
