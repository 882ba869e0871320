package tool

// InvokeObservation captures one tool invocation outcome.
type InvokeObservation struct {
	Tool       string
	DurationMS int64
	Success    bool
	ErrorCode  string
}

// Observer receives tool-level observability events.
type Observer interface {
	ObserveInvoke(observation InvokeObservation)
}

type noopObserver struct{}

func (noopObserver) ObserveInvoke(InvokeObservation) {}
