package api

import "fmt"

// ExchangeState is the lifecycle state of a request inside the pipeline.
type ExchangeState string

const (
	StatePending        ExchangeState = "pending"
	StateAuthenticating ExchangeState = "authenticating"
	StateHandling       ExchangeState = "handling"
	StateSucceeded      ExchangeState = "succeeded"
	StateFailed         ExchangeState = "failed"
	StateTerminated     ExchangeState = "terminated"
)

var exchangeTransitions = map[ExchangeState][]ExchangeState{
	StatePending:        {StateAuthenticating, StateHandling, StateFailed},
	StateAuthenticating: {StateHandling, StateFailed},
	StateHandling:       {StateSucceeded, StateFailed},
	StateSucceeded:      {StateTerminated},
	StateFailed:         {StateTerminated},
	StateTerminated:     {}, // terminal
}

// ValidateExchangeTransition checks whether a request may move from one state
// to another. Terminated allows no outgoing transitions.
func ValidateExchangeTransition(from, to ExchangeState) error {
	allowed, exists := exchangeTransitions[from]
	if !exists {
		return fmt.Errorf("invalid transition from %q to %q", from, to)
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("invalid transition from %q to %q", from, to)
}
