package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

const processTimeout = 30 * time.Second

// eventEnvelope is the minimal shape of a Stripe event this dispatcher cares
// about: the type, and the subscription reference carried by invoice events.
type eventEnvelope struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			Subscription string `json:"subscription"`
		} `json:"object"`
	} `json:"data"`
}

// Handler receives Stripe event notifications on the raw request body.
// Signature verification runs only when a webhook secret is configured;
// a production deployment must set STRIPE_WEBHOOK_SECRET.
type Handler struct {
	lifecycle     *Lifecycle
	webhookSecret string
	// dispatch decouples lifecycle work from the acknowledgment; replaced
	// with a synchronous version in tests.
	dispatch func(fn func())
}

func NewHandler(lifecycle *Lifecycle, webhookSecret string) *Handler {
	return &Handler{
		lifecycle:     lifecycle,
		webhookSecret: webhookSecret,
		dispatch:      func(fn func()) { go fn() },
	}
}

// NewFromEnv returns a configured handler or nil when STRIPE_SECRET_KEY is
// not set.
func NewFromEnv() *Handler {
	key := os.Getenv("STRIPE_SECRET_KEY")
	if key == "" {
		return nil
	}
	sc := &client.API{}
	sc.Init(key, nil)
	return NewHandler(NewLifecycle(stripeSubscriptions{sc: sc}), os.Getenv("STRIPE_WEBHOOK_SECRET"))
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/webhook", h.handle)
}

func (h *Handler) handle(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
		return
	}
	if h.webhookSecret != "" {
		sig := c.GetHeader("Stripe-Signature")
		if _, err := webhook.ConstructEvent(payload, sig, h.webhookSecret); err != nil {
			log.Printf("[WEBHOOK] signature verification failed: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
	}

	var event eventEnvelope
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Printf("[WEBHOOK] json parse error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("webhook error: %v", err)})
		return
	}

	// Acknowledge first; Stripe retries slow endpoints, and a lifecycle
	// failure must not be reported back as a delivery failure.
	c.JSON(http.StatusOK, gin.H{"received": true})

	if event.Type != "invoice.payment_succeeded" {
		return
	}
	subscriptionID := event.Data.Object.Subscription
	if subscriptionID == "" {
		return
	}
	h.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		if err := h.lifecycle.OnFirstInvoicePaid(ctx, subscriptionID); err != nil {
			log.Printf("[WEBHOOK] invoice.payment_succeeded for %s: %v", subscriptionID, err)
		}
	})
}
