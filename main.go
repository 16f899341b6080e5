package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"proposals-backend/checkout"
	"proposals-backend/proposals"
	"proposals-backend/webhook"
)

func main() {
	_ = godotenv.Load()

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:4242"
	}

	catalog := proposals.NewStaticCatalog(defaultProposals())
	log.Println("server starting, available proposals:")
	for _, p := range catalog.All() {
		log.Printf("- %s: %s/p/%s", p.ClientName, baseURL, p.ID)
	}

	stripeSvc := checkout.NewStripeFromEnv()
	if stripeSvc == nil {
		log.Println("[STRIPE] STRIPE_SECRET_KEY not set; checkout disabled")
	}

	r := gin.Default()
	checkout.NewHandler(catalog, stripeSvc).RegisterRoutes(r)
	if wh := webhook.NewFromEnv(); wh != nil {
		wh.RegisterRoutes(r)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4242"
	}
	r.Run(":" + port)
}

// defaultProposals is the static offer catalog. Amounts are the net the
// merchant must retain, in cents; the checkout layer grosses them up.
func defaultProposals() []*proposals.Proposal {
	return []*proposals.Proposal{
		{
			ID:          "acme-website-2026",
			ClientName:  "Acme LLC",
			Title:       "Website redesign",
			Description: "Full redesign and launch of the marketing site.",
			AmountNet:   250000,
			Currency:    "usd",
		},
		{
			ID:                 "northwind-seo",
			ClientName:         "Northwind Traders",
			Title:              "SEO retainer",
			Description:        "Monthly SEO work, first month only.",
			AmountNet:          150000,
			Currency:           "usd",
			Recurring:          true,
			Interval:           "month",
			TrialDays:          7,
			CancellationMonths: 1,
		},
		{
			ID:                 "globex-support",
			ClientName:         "Globex Corp",
			Title:              "Support plan",
			Description:        "Ongoing monthly support, renews until cancelled.",
			AmountNet:          50000,
			Currency:           "usd",
			Recurring:          true,
			Interval:           "month",
			CancellationMonths: 12,
		},
	}
}
