package brain

import "github.com/rs/zerolog"

// BestEffort runs a non-critical operation and returns fallback on any
// failure, logging structured detail instead of propagating the error. It is
// used only for the brain-update path; nothing else may swallow errors this
// way.
func BestEffort[T any](log zerolog.Logger, operation string, fallback T, fn func() (T, error)) T {
	result, err := fn()
	if err != nil {
		log.Error().
			Err(err).
			Str("operation", operation).
			Msg("non-critical operation failed, keeping prior state")
		return fallback
	}
	return result
}
