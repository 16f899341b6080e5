package webhook

import (
	"context"
	"errors"
	"testing"

	stripe "github.com/stripe/stripe-go/v78"
)

// fakeSubscriptionAPI acts like the processor: it holds the authoritative
// subscription state and mutates it on update.
type fakeSubscriptionAPI struct {
	sub            *stripe.Subscription
	getCalls       int
	cancelCalls    int
	getFailWith    error
	cancelFailWith error
}

func (f *fakeSubscriptionAPI) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	f.getCalls++
	if f.getFailWith != nil {
		return nil, f.getFailWith
	}
	return f.sub, nil
}

func (f *fakeSubscriptionAPI) CancelAtPeriodEnd(ctx context.Context, id string) (*stripe.Subscription, error) {
	f.cancelCalls++
	if f.cancelFailWith != nil {
		return nil, f.cancelFailWith
	}
	f.sub.CancelAtPeriodEnd = true
	return f.sub, nil
}

func oneMonthSub() *stripe.Subscription {
	return &stripe.Subscription{
		ID:       "sub_test123",
		Metadata: map[string]string{"one_month_only": "true"},
	}
}

func TestOnFirstInvoicePaid_cancelsOneMonthOnly(t *testing.T) {
	api := &fakeSubscriptionAPI{sub: oneMonthSub()}
	l := NewLifecycle(api)

	if err := l.OnFirstInvoicePaid(context.Background(), "sub_test123"); err != nil {
		t.Fatalf("OnFirstInvoicePaid: %v", err)
	}
	if !api.sub.CancelAtPeriodEnd {
		t.Fatal("subscription not marked to cancel")
	}
	if api.cancelCalls != 1 {
		t.Fatalf("cancel calls = %d, want 1", api.cancelCalls)
	}
}

func TestOnFirstInvoicePaid_idempotent(t *testing.T) {
	api := &fakeSubscriptionAPI{sub: oneMonthSub()}
	l := NewLifecycle(api)

	for i := 0; i < 3; i++ {
		if err := l.OnFirstInvoicePaid(context.Background(), "sub_test123"); err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
	}
	if api.cancelCalls != 1 {
		t.Fatalf("cancel calls = %d, want exactly 1 across duplicate deliveries", api.cancelCalls)
	}
	if !api.sub.CancelAtPeriodEnd {
		t.Fatal("flag must stay set")
	}
}

func TestOnFirstInvoicePaid_renewablePlanUntouched(t *testing.T) {
	for _, meta := range []map[string]string{
		{"one_month_only": "false"},
		{},
		nil,
	} {
		api := &fakeSubscriptionAPI{sub: &stripe.Subscription{ID: "sub_test123", Metadata: meta}}
		l := NewLifecycle(api)
		if err := l.OnFirstInvoicePaid(context.Background(), "sub_test123"); err != nil {
			t.Fatalf("metadata %v: %v", meta, err)
		}
		if api.cancelCalls != 0 {
			t.Errorf("metadata %v: unexpected cancel call", meta)
		}
	}
}

func TestOnFirstInvoicePaid_surfacesProcessorErrors(t *testing.T) {
	getErr := errors.New("fetch failed")
	api := &fakeSubscriptionAPI{sub: oneMonthSub(), getFailWith: getErr}
	l := NewLifecycle(api)
	if err := l.OnFirstInvoicePaid(context.Background(), "sub_test123"); !errors.Is(err, getErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}

	cancelErr := errors.New("update failed")
	api = &fakeSubscriptionAPI{sub: oneMonthSub(), cancelFailWith: cancelErr}
	l = NewLifecycle(api)
	if err := l.OnFirstInvoicePaid(context.Background(), "sub_test123"); !errors.Is(err, cancelErr) {
		t.Fatalf("expected update error, got %v", err)
	}
	// Not retried here; a later duplicate delivery may recover the transition.
	if api.sub.CancelAtPeriodEnd {
		t.Fatal("flag must not be set when the update failed")
	}
}
