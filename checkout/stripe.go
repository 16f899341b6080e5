package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"proposals-backend/pricing"
	"proposals-backend/proposals"
)

var ErrStripeNotConfigured = errors.New("stripe not configured")

// ProviderError carries the processor's rejection back to the HTTP boundary
// without exposing credentials or transport detail.
type ProviderError struct {
	Code string
	msg  string
}

func (e *ProviderError) Error() string { return e.msg }

// Backend is the slice of the Stripe client the orchestrator touches. Narrow
// so tests can substitute a fake processor.
type Backend interface {
	NewCustomer(params *stripe.CustomerParams) (*stripe.Customer, error)
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type apiBackend struct {
	sc *client.API
}

func (b apiBackend) NewCustomer(params *stripe.CustomerParams) (*stripe.Customer, error) {
	return b.sc.Customers.New(params)
}

func (b apiBackend) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return b.sc.CheckoutSessions.New(params)
}

// StripeService builds checkout sessions for proposals. Stripe is the system
// of record for sessions, customers and subscriptions; nothing is persisted
// locally and a resubmission always creates a fresh session.
type StripeService struct {
	secretKey string
	// Public base used to build the success/cancel redirect targets.
	baseURL string
	backend Backend
}

func maskKey(k string) string {
	if len(k) < 12 {
		return "****"
	}
	return k[:7] + "..." + k[len(k)-4:]
}

// NewStripeFromEnv returns a configured service or nil when STRIPE_SECRET_KEY
// is not set.
func NewStripeFromEnv() *StripeService {
	key := os.Getenv("STRIPE_SECRET_KEY")
	if key == "" {
		return nil
	}
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://localhost:4242"
	}
	sc := &client.API{}
	sc.Init(key, nil)
	return NewStripeService(apiBackend{sc: sc}, base, key)
}

func NewStripeService(backend Backend, baseURL, secretKey string) *StripeService {
	return &StripeService{secretKey: secretKey, baseURL: strings.TrimRight(baseURL, "/"), backend: backend}
}

// BillingForm is the billing-authorization form the payment page submits.
// Bank fields are recorded as customer metadata only; no tokenization or
// direct charging happens here.
type BillingForm struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	AddressLine1     string `json:"addressLine1"`
	AddressLine2     string `json:"addressLine2"`
	City             string `json:"city"`
	State            string `json:"state"`
	ZipCode          string `json:"zipCode"`
	CompanyName      string `json:"companyName"`
	BankName         string `json:"bankName"`
	AccountType      string `json:"accountType"`
	AccountFirstName string `json:"accountFirstName"`
	AccountLastName  string `json:"accountLastName"`
	RoutingNumber    string `json:"routingNumber"`
	AccountNumber    string `json:"accountNumber"`
}

// CreateCustomer creates a Stripe customer carrying the form's billing
// details. Only the account number's last four digits are kept.
func (s *StripeService) CreateCustomer(ctx context.Context, form *BillingForm, prop *proposals.Proposal) (string, error) {
	if s == nil {
		return "", ErrStripeNotConfigured
	}
	params := &stripe.CustomerParams{
		Name: stripe.String(strings.TrimSpace(form.FirstName + " " + form.LastName)),
		Address: &stripe.AddressParams{
			Line1:      stripe.String(form.AddressLine1),
			City:       stripe.String(form.City),
			State:      stripe.String(form.State),
			PostalCode: stripe.String(form.ZipCode),
			Country:    stripe.String("US"),
		},
	}
	if form.Email != "" {
		params.Email = stripe.String(form.Email)
	}
	if form.AddressLine2 != "" {
		params.Address.Line2 = stripe.String(form.AddressLine2)
	}
	last4 := form.AccountNumber
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}
	params.Metadata = map[string]string{
		"proposalId":         prop.ID,
		"companyName":        form.CompanyName,
		"bankName":           form.BankName,
		"accountType":        form.AccountType,
		"accountHolder":      strings.TrimSpace(form.AccountFirstName + " " + form.AccountLastName),
		"routingNumber":      form.RoutingNumber,
		"accountNumberLast4": last4,
	}
	params.Context = ctx

	cust, err := s.backend.NewCustomer(params)
	if err != nil {
		return "", s.providerError("customer", err)
	}
	log.Printf("[STRIPE][customer] created %s for proposal %s", cust.ID, prop.ID)
	return cust.ID, nil
}

// CheckoutResult is the processor-hosted flow the payer gets redirected to.
type CheckoutResult struct {
	SessionID string
	URL       string
}

// CreateCheckout builds and submits a checkout session for the proposal:
// subscription mode when the proposal recurs, one-off payment otherwise.
// The line item is priced at the grossed-up amount so the merchant nets the
// proposal amount after fees. For subscriptions the one_month_only policy
// flag is derived here, at creation time, and stored on the subscription's
// metadata; the webhook side only ever reads it back.
//
// customerID and nonce are optional: customerID links a pre-created customer,
// nonce makes the processor call idempotent per form submission.
func (s *StripeService) CreateCheckout(ctx context.Context, prop *proposals.Proposal, customerID, nonce string) (*CheckoutResult, error) {
	if s == nil {
		return nil, ErrStripeNotConfigured
	}
	gross, err := pricing.GrossUp(prop.AmountNet)
	if err != nil {
		return nil, err
	}

	mode := stripe.CheckoutSessionModePayment
	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency:    stripe.String(prop.Currency),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{Name: stripe.String(prop.Title)},
		UnitAmount:  stripe.Int64(gross),
	}
	if prop.Recurring {
		mode = stripe.CheckoutSessionModeSubscription
		priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String(prop.BillingInterval()),
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: priceData,
			Quantity:  stripe.Int64(1),
		}},
		SuccessURL: stripe.String(fmt.Sprintf("%s/p/%s?status=success", s.baseURL, prop.ID)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/p/%s?status=cancel", s.baseURL, prop.ID)),
		Metadata: map[string]string{
			"proposal_id": prop.ID,
			"client_name": prop.ClientName,
		},
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
		params.Metadata["customer_id"] = customerID
	}
	if prop.Recurring {
		oneMonthOnly := "false"
		if prop.OneMonthOnly() {
			oneMonthOnly = "true"
		}
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(prop.TrialDays),
			Metadata: map[string]string{
				"proposal_id":    prop.ID,
				"client_name":    prop.ClientName,
				"one_month_only": oneMonthOnly,
			},
		}
	}
	if nonce != "" {
		params.SetIdempotencyKey(fmt.Sprintf("checkout:%s:%s:%s", prop.ID, customerID, nonce))
	}
	params.Context = ctx

	sess, err := s.backend.NewCheckoutSession(params)
	if err != nil {
		return nil, s.providerError("checkout", err)
	}
	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

func (s *StripeService) providerError(op string, err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		log.Printf("[STRIPE][%s] error: %v", op, err)
		return &ProviderError{msg: err.Error()}
	}
	if se.HTTPStatusCode == 401 {
		log.Printf("[STRIPE][%s] invalid api key (%s): %v", op, maskKey(s.secretKey), se)
	} else {
		log.Printf("[STRIPE][%s] %s: %s", op, se.Type, se.Msg)
	}
	return &ProviderError{Code: string(se.Code), msg: se.Msg}
}
