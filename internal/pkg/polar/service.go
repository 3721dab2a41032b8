package polar

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/kumoha/webhook-gateway/app/models"
	"github.com/kumoha/webhook-gateway/internal/pkg/webhook"
)

// Service routes parsed Polar envelopes to their event handlers. Handlers
// perform a single idempotent persistence operation against the injected
// repository and report a Result; they never panic and never retry, that is
// the provider's redelivery job.
type Service struct {
	repo Repository
}

// NewService creates a Polar webhook service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Dispatch resolves the envelope's event type to exactly one handler. Unknown
// event types are acknowledged, never fatal, so new provider events cannot
// break ingestion.
func (s *Service) Dispatch(ctx context.Context, env *Envelope) webhook.Result {
	switch env.Type {
	case EventCheckoutCreated:
		return s.handleCheckoutCreated(ctx, env.Data)
	case EventCheckoutUpdated:
		return s.handleCheckoutUpdated(ctx, env.Data)
	case EventSubscriptionCreated:
		return s.handleSubscriptionCreated(ctx, env.Data)
	case EventSubscriptionUpdated:
		return s.handleSubscriptionUpdated(ctx, env.Data)
	case EventSubscriptionCanceled:
		return s.handleSubscriptionCanceled(ctx, env.Data)
	case EventSubscriptionRevoked:
		return s.handleSubscriptionRevoked(ctx, env.Data)
	case EventSubscriptionActive:
		return s.handleSubscriptionActive(ctx, env.Data)
	case EventSubscriptionUncanceled:
		return s.handleSubscriptionUncanceled(ctx, env.Data)
	case EventOrderCreated:
		return s.handleOrderCreated(ctx, env.Data)
	case EventOrderPaid:
		return s.handleOrderPaid(ctx, env.Data)
	case EventOrderRefunded:
		return s.handleOrderRefunded(ctx, env.Data)
	case EventCustomerCreated:
		return s.handleCustomerCreated(ctx, env.Data)
	case EventCustomerUpdated:
		return s.handleCustomerUpdated(ctx, env.Data)
	default:
		log.Printf("[polar-webhook] Unhandled event type: %s", env.Type)
		return webhook.Unhandled(string(env.Type))
	}
}

func (s *Service) handleCheckoutCreated(ctx context.Context, data json.RawMessage) webhook.Result {
	var checkout Checkout
	if err := json.Unmarshal(data, &checkout); err != nil {
		return webhook.Failure(fmt.Sprintf("invalid checkout payload: %v", err))
	}
	log.Printf("[checkout.created] Checkout created: %s", checkout.ID)
	return webhook.OK("Checkout created logged")
}

// handleCheckoutUpdated runs when a checkout completes (status "succeeded")
// and links the Polar customer to the internal profile.
func (s *Service) handleCheckoutUpdated(ctx context.Context, data json.RawMessage) webhook.Result {
	var checkout Checkout
	if err := json.Unmarshal(data, &checkout); err != nil {
		return webhook.Failure(fmt.Sprintf("invalid checkout payload: %v", err))
	}
	log.Printf("[checkout.updated] Processing: %s", checkout.ID)

	if checkout.Status != "succeeded" {
		return webhook.OK("Checkout not succeeded, skipping")
	}

	userID, ok := UserIDFromMetadata(checkout.Metadata)
	if !ok {
		log.Printf("[checkout.updated] No user_id in metadata for checkout %s", checkout.ID)
		return webhook.Failure("No user_id in metadata")
	}

	if err := s.repo.UpdateProfileCustomerID(userID, checkout.CustomerID); err != nil {
		log.Printf("[checkout.updated] Failed to update profile: %v", err)
		return webhook.Failure(err.Error())
	}
	return webhook.OK("Checkout processed successfully")
}

func (s *Service) handleSubscriptionCreated(ctx context.Context, data json.RawMessage) webhook.Result {
	var sub Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return webhook.Failure(fmt.Sprintf("invalid subscription payload: %v", err))
	}
	log.Printf("[subscription.created] Processing: %s", sub.ID)

	userID, ok := UserIDFromMetadata(sub.Metadata)
	if !ok {
		log.Printf("[subscription.created] No user_id in metadata for subscription %s", sub.ID)
		return webhook.Failure("No user_id in metadata")
	}

	record := &models.Subscription{
		ID:                 sub.ID,
		UserID:             userID,
		PolarProductID:     sub.ProductID,
		PolarPriceID:       sub.PriceID,
		Status:             sub.Status,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
	}
	if err := s.repo.UpsertSubscription(record); err != nil {
		log.Printf("[subscription.created] Failed to create subscription: %v", err)
		return webhook.Failure(err.Error())
	}
	return webhook.OK("Subscription created successfully")
}

func (s *Service) handleSubscriptionUpdated(ctx context.Context, data json.RawMessage) webhook.Result {
	var sub Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return webhook.Failure(fmt.Sprintf("invalid subscription payload: %v", err))
	}
	log.Printf("[subscription.updated] Processing: %s", sub.ID)

	err := s.repo.UpdateSubscription(sub.ID, map[string]interface{}{
		"status":               sub.Status,
		"current_period_start": sub.CurrentPeriodStart,
		"current_period_end":   sub.CurrentPeriodEnd,
		"cancel_at_period_end": sub.CancelAtPeriodEnd,
		"updated_at":           time.Now(),
	})
	if err != nil {
		log.Printf("[subscription.updated] Failed to update subscription: %v", err)
		return webhook.Failure(err.Error())
	}
	return webhook.OK("Subscription updated successfully")
}

func (s *Service) handleSubscriptionCanceled(ctx context.Context, data json.RawMessage) webhook.Result {
	var sub Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return webhook.Failure(fmt.Sprintf("invalid subscription payload: %v", err))
	}
	log.Printf("[subscription.canceled] Processing: %s", sub.ID)

	err := s.repo.UpdateSubscription(sub.ID, map[string]interface{}{
		"status":               models.SubscriptionStatusCanceled,
		"cancel_at_period_end": true,
		"updated_at":           time.Now(),
	})
	if err != nil {
		log.Printf("[subscription.canceled] Failed to cancel subscription: %v", err)
		return webhook.Failure(err.Error())
	}
	return webhook.OK("Subscription canceled successfully")
}

// handleSubscriptionRevoked normalizes revocation to the internal canceled
// status; access is gone immediately but the row is never deleted.
func (s *Service) handleSubscriptionRevoked(ctx context.Context, data json.RawMessage) webhook.Result {
	var sub Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return webhook.Failure(fmt.Sprintf("invalid subscription payload: %v", err))
	}
	log.Printf("[subscription.revoked] Processing: %s", sub.ID)

	err := s.repo.UpdateSubscription(sub.ID, map[string]interface{}{
		"status":     models.SubscriptionStatusCanceled,
		"updated_at": time.Now(),
	})
	if err != nil {
		log.Printf("[subscription.revoked] Failed to revoke subscription: %v", err)
		return webhook.Failure(err.Error())
	}
	return webhook.OK("Subscription revoked successfully")
}

func (s *Service) handleSubscriptionActive(ctx context.Context, data json.RawMessage) webhook.Result {
	var sub Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return webhook.Failure(fmt.Sprintf("invalid subscription payload: %v", err))
	}
	log.Printf("[subscription.active] Processing: %s", sub.ID)

	err := s.repo.UpdateSubscription(sub.ID, map[string]interface{}{
		"status":               models.SubscriptionStatusActive,
		"current_period_start": sub.CurrentPeriodStart,
		"current_period_end":   sub.CurrentPeriodEnd,
		"updated_at":           time.Now(),
	})
	if err != nil {
		log.Printf("[subscription.active] Failed to activate subscription: %v", err)
		return webhook.Failure(err.Error())
	}
	return webhook.OK("Subscription activated successfully")
}

func (s *Service) handleSubscriptionUncanceled(ctx context.Context, data json.RawMessage) webhook.Result {
	var sub Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return webhook.Failure(fmt.Sprintf("invalid subscription payload: %v", err))
	}
	log.Printf("[subscription.uncanceled] Processing: %s", sub.ID)

	err := s.repo.UpdateSubscription(sub.ID, map[string]interface{}{
		"status":               sub.Status,
		"cancel_at_period_end": false,
		"updated_at":           time.Now(),
	})
	if err != nil {
		log.Printf("[subscription.uncanceled] Failed to uncancel subscription: %v", err)
		return webhook.Failure(err.Error())
	}
	return webhook.OK("Subscription uncanceled successfully")
}

func (s *Service) handleOrderCreated(ctx context.Context, data json.RawMessage) webhook.Result {
	var order Order
	if err := json.Unmarshal(data, &order); err != nil {
		return webhook.Failure(fmt.Sprintf("invalid order payload: %v", err))
	}
	log.Printf("[order.created] Order created: %s", order.ID)
	return webhook.OK("Order created logged")
}

func (s *Service) handleOrderPaid(ctx context.Context, data json.RawMessage) webhook.Result {
	var order Order
	if err := json.Unmarshal(data, &order); err != nil {
		return webhook.Failure(fmt.Sprintf("invalid order payload: %v", err))
	}
	log.Printf("[order.paid] Processing: %s", order.ID)

	userID, ok := UserIDFromMetadata(order.Metadata)
	if !ok {
		log.Printf("[order.paid] No user_id in metadata for order %s", order.ID)
		return webhook.Failure("No user_id in metadata")
	}

	record := &models.Order{
		ID:             order.ID,
		UserID:         userID,
		PolarProductID: order.ProductID,
		PolarPriceID:   order.ProductPriceID,
		Status:         models.OrderStatusPaid,
		Amount:         order.Amount,
		Currency:       order.Currency,
	}
	if err := s.repo.UpsertOrder(record); err != nil {
		log.Printf("[order.paid] Failed to create order: %v", err)
		return webhook.Failure(err.Error())
	}
	return webhook.OK("Order processed successfully")
}

func (s *Service) handleOrderRefunded(ctx context.Context, data json.RawMessage) webhook.Result {
	var order Order
	if err := json.Unmarshal(data, &order); err != nil {
		return webhook.Failure(fmt.Sprintf("invalid order payload: %v", err))
	}
	log.Printf("[order.refunded] Processing: %s", order.ID)

	err := s.repo.UpdateOrder(order.ID, map[string]interface{}{
		"status":     models.OrderStatusRefunded,
		"updated_at": time.Now(),
	})
	if err != nil {
		log.Printf("[order.refunded] Failed to refund order: %v", err)
		return webhook.Failure(err.Error())
	}
	return webhook.OK("Order refunded successfully")
}

// handleCustomerCreated links the Polar customer ID when the metadata carries
// a user correlation; customers created outside a checkout have none and are
// a logged no-op.
func (s *Service) handleCustomerCreated(ctx context.Context, data json.RawMessage) webhook.Result {
	var customer Customer
	if err := json.Unmarshal(data, &customer); err != nil {
		return webhook.Failure(fmt.Sprintf("invalid customer payload: %v", err))
	}
	log.Printf("[customer.created] Processing: %s", customer.ID)

	userID, ok := UserIDFromMetadata(customer.Metadata)
	if !ok {
		log.Printf("[customer.created] No user_id in metadata, skipping profile update")
		return webhook.OK("Customer created without user_id")
	}

	if err := s.repo.UpdateProfileCustomerID(userID, customer.ID); err != nil {
		log.Printf("[customer.created] Failed to update profile: %v", err)
		return webhook.Failure(err.Error())
	}
	return webhook.OK("Customer created and profile updated")
}

func (s *Service) handleCustomerUpdated(ctx context.Context, data json.RawMessage) webhook.Result {
	var customer Customer
	if err := json.Unmarshal(data, &customer); err != nil {
		return webhook.Failure(fmt.Sprintf("invalid customer payload: %v", err))
	}
	log.Printf("[customer.updated] Customer updated: %s", customer.ID)
	return webhook.OK("Customer updated logged")
}
