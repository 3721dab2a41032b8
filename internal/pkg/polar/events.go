package polar

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EventType discriminates the webhook envelope. Polar appends new types over
// time; anything not listed here is dispatched as an acknowledged no-op.
type EventType string

const (
	EventCheckoutCreated        EventType = "checkout.created"
	EventCheckoutUpdated        EventType = "checkout.updated"
	EventSubscriptionCreated    EventType = "subscription.created"
	EventSubscriptionUpdated    EventType = "subscription.updated"
	EventSubscriptionCanceled   EventType = "subscription.canceled"
	EventSubscriptionRevoked    EventType = "subscription.revoked"
	EventSubscriptionActive     EventType = "subscription.active"
	EventSubscriptionUncanceled EventType = "subscription.uncanceled"
	EventOrderCreated           EventType = "order.created"
	EventOrderPaid              EventType = "order.paid"
	EventOrderRefunded          EventType = "order.refunded"
	EventCustomerCreated        EventType = "customer.created"
	EventCustomerUpdated        EventType = "customer.updated"
)

var ErrMalformedPayload = errors.New("malformed webhook payload")

// Envelope is the parsed webhook body: a type discriminant plus the raw
// variant data. Immutable once parsed, discarded after handling.
type Envelope struct {
	Type       EventType       `json:"type"`
	Data       json.RawMessage `json:"data"`
	ReceivedAt time.Time       `json:"-"`
}

// ParseEnvelope decodes the raw body into an envelope. Fails when the JSON is
// malformed or the discriminant is absent.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if strings.TrimSpace(string(env.Type)) == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedPayload)
	}
	env.ReceivedAt = time.Now()
	return &env, nil
}

// Checkout is the data variant for checkout.* events.
type Checkout struct {
	ID         string                 `json:"id"`
	Status     string                 `json:"status"`
	CustomerID string                 `json:"customer_id"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// Subscription is the data variant for subscription.* events.
type Subscription struct {
	ID                 string                 `json:"id"`
	Status             string                 `json:"status"`
	ProductID          string                 `json:"product_id"`
	PriceID            string                 `json:"price_id"`
	CurrentPeriodStart *time.Time             `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time             `json:"current_period_end"`
	CancelAtPeriodEnd  bool                   `json:"cancel_at_period_end"`
	Metadata           map[string]interface{} `json:"metadata"`
}

// Order is the data variant for order.* events.
type Order struct {
	ID             string                 `json:"id"`
	ProductID      string                 `json:"product_id"`
	ProductPriceID string                 `json:"product_price_id"`
	Amount         int64                  `json:"amount"`
	Currency       string                 `json:"currency"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// Customer is the data variant for customer.* events.
type Customer struct {
	ID       string                 `json:"id"`
	Email    string                 `json:"email"`
	Metadata map[string]interface{} `json:"metadata"`
}

// UserIDFromMetadata extracts the application-supplied user correlation ID
// from a provider metadata bag. The second return reports whether a non-empty
// user_id was present; missing correlation is a named handler failure, not an
// exception.
func UserIDFromMetadata(metadata map[string]interface{}) (string, bool) {
	if metadata == nil {
		return "", false
	}
	raw, ok := metadata["user_id"]
	if !ok {
		return "", false
	}
	userID, ok := raw.(string)
	if !ok || strings.TrimSpace(userID) == "" {
		return "", false
	}
	return userID, true
}
