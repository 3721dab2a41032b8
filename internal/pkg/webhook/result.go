package webhook

import "fmt"

// Result is the outcome every event handler reports back to the HTTP layer.
// Success maps to 200, failure to 500; failures are never panics so a single
// bad event cannot take the request path down.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func OK(message string) Result {
	return Result{Success: true, Message: message}
}

func Failure(message string) Result {
	return Result{Success: false, Message: message}
}

// Unhandled acknowledges an event type the gateway does not know. Providers
// add event types over time; receiving one must never fail the request.
func Unhandled(eventType string) Result {
	return Result{Success: true, Message: fmt.Sprintf("Unhandled event: %s", eventType)}
}

// Err converts a failed result into an error for audit bookkeeping.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return fmt.Errorf("%s", r.Message)
}
