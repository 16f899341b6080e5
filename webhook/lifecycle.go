package webhook

import (
	"context"
	"log"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// SubscriptionAPI is the slice of the processor API the lifecycle controller
// needs: read a subscription's current state, flip its cancel flag.
type SubscriptionAPI interface {
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
	CancelAtPeriodEnd(ctx context.Context, id string) (*stripe.Subscription, error)
}

type stripeSubscriptions struct {
	sc *client.API
}

func (a stripeSubscriptions) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	return a.sc.Subscriptions.Get(id, params)
}

func (a stripeSubscriptions) CancelAtPeriodEnd(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	params.Context = ctx
	return a.sc.Subscriptions.Update(id, params)
}

// Lifecycle enforces the billing-duration policy stored on a subscription's
// metadata after its first successful charge.
type Lifecycle struct {
	api SubscriptionAPI
}

func NewLifecycle(api SubscriptionAPI) *Lifecycle {
	return &Lifecycle{api: api}
}

// OnFirstInvoicePaid marks one-month-only subscriptions to cancel at period
// end. Stripe is re-read on every call and the flag is one-way, so duplicate
// or concurrent deliveries for the same subscription converge on the same
// terminal state without issuing a second update. The "already transitioned"
// decision is never cached locally.
func (l *Lifecycle) OnFirstInvoicePaid(ctx context.Context, subscriptionID string) error {
	sub, err := l.api.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub.Metadata["one_month_only"] != "true" {
		return nil
	}
	if sub.CancelAtPeriodEnd {
		return nil
	}
	if _, err := l.api.CancelAtPeriodEnd(ctx, subscriptionID); err != nil {
		return err
	}
	log.Printf("[WEBHOOK][lifecycle] subscription %s marked to cancel at period end", subscriptionID)
	return nil
}
