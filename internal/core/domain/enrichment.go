package domain

// Enrichment is the result of a best-effort step such as classification,
// a relevance explanation or query suggestions.
// A degraded enrichment carries the fallback value and the reason it was used,
// so callers can tell a complete result from a fallback.
type Enrichment[T any] struct {
	// Value is the produced value or the fallback default.
	Value T

	// Degraded is true when Value is a fallback.
	Degraded bool

	// Reason explains the degradation. Empty when not degraded.
	Reason string
}

// Enriched wraps a successfully produced value.
func Enriched[T any](v T) Enrichment[T] {
	return Enrichment[T]{Value: v}
}

// Degrade wraps a fallback value together with the failure that caused it.
func Degrade[T any](fallback T, err error) Enrichment[T] {
	reason := "unavailable"
	if err != nil {
		reason = err.Error()
	}
	return Enrichment[T]{Value: fallback, Degraded: true, Reason: reason}
}
