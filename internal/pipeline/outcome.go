package pipeline

// Outcome carries a value that is either authoritative or a fallback used
// because upstream data was missing or unreadable.
type Outcome[T any] struct {
	Value  T
	Reason string
}

func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

func Degraded[T any](v T, reason string) Outcome[T] {
	return Outcome[T]{Value: v, Reason: reason}
}

func (o Outcome[T]) IsDegraded() bool { return o.Reason != "" }

// Degradation records one fallback taken during a run.
type Degradation struct {
	Step   string `json:"step"`
	Reason string `json:"reason"`
}
