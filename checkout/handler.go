package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"proposals-backend/pricing"
	"proposals-backend/proposals"
)

// Outbound processor calls never block a request longer than this.
const requestTimeout = 15 * time.Second

type Handler struct {
	catalog proposals.Catalog
	stripe  *StripeService
}

func NewHandler(catalog proposals.Catalog, stripe *StripeService) *Handler {
	return &Handler{catalog: catalog, stripe: stripe}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/p/:id", h.getProposal)
	r.POST("/api/create-customer", h.createCustomer)
	// Older clients create a checkout session without a pre-created customer.
	r.POST("/api/proposals/:id/checkout", h.createCheckout)
}

// getProposal serves the proposal details the payment page renders: terms,
// the fee-inclusive price and the billing note. A status query of "success"
// or "cancel" is echoed back so the page can show the checkout outcome.
func (h *Handler) getProposal(c *gin.Context) {
	prop, err := h.catalog.Lookup(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
		return
	}
	gross, err := pricing.GrossUp(prop.AmountNet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp := gin.H{
		"proposal":     prop,
		"price":        fmt.Sprintf("%.2f %s", float64(gross)/100, strings.ToUpper(prop.Currency)),
		"billing_note": prop.BillingNote(),
	}
	if status := c.Query("status"); status == "success" || status == "cancel" {
		resp["status"] = status
	}
	c.JSON(http.StatusOK, resp)
}

// createCustomer handles the payment form: creates a Stripe customer holding
// the billing details, then a checkout session linked to it.
func (h *Handler) createCustomer(c *gin.Context) {
	var body struct {
		FormData   *BillingForm `json:"formData"`
		ProposalID string       `json:"proposalId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	if body.FormData == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "form data is missing"})
		return
	}
	prop, err := h.catalog.Lookup(body.ProposalID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Proposal not found"})
		return
	}
	if h.stripe == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "stripe not configured on server"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	customerID, err := h.stripe.CreateCustomer(ctx, body.FormData, prop)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	res, err := h.stripe.CreateCheckout(ctx, prop, customerID, uuid.NewString())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "checkoutUrl": res.URL, "customerId": customerID})
}

// createCheckout is the legacy customerless flow: path id in, session URL out.
func (h *Handler) createCheckout(c *gin.Context) {
	prop, err := h.catalog.Lookup(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
		return
	}
	if h.stripe == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stripe not configured on server"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	res, err := h.stripe.CreateCheckout(ctx, prop, "", uuid.NewString())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pricing.ErrNonPositiveAmount) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": res.URL})
}
