package domain

import "time"

// CreditPackage is a purchasable credit bundle.
type CreditPackage struct {
	PackageType    string   `json:"package_type"`
	Credits        int      `json:"credits"`
	PriceUSD       float64  `json:"price_usd"`
	PricePerCredit float64  `json:"price_per_credit"`
	Description    string   `json:"description"`
	Features       []string `json:"features,omitempty"`
}

// PaymentIntent is returned when a purchase is started. The client secret
// is handed to the payment provider; this client never collects card data.
type PaymentIntent struct {
	PaymentIntentID string  `json:"payment_intent_id"`
	ClientSecret    string  `json:"client_secret"`
	Amount          float64 `json:"amount"`
	Credits         int     `json:"credits"`
	Status          string  `json:"status"`
}

// Payment is a completed or pending purchase.
type Payment struct {
	ID               string    `json:"id"`
	AmountUSD        float64   `json:"amount_usd"`
	Status           string    `json:"status"`
	PackageType      string    `json:"package_type"`
	CreditsPurchased int       `json:"credits_purchased"`
	CreatedAt        time.Time `json:"created_at"`
}

// CreditTransaction is a ledger entry.
type CreditTransaction struct {
	ID              string    `json:"id"`
	TransactionType string    `json:"transaction_type"`
	CreditsAmount   int       `json:"credits_amount"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
}

// PaymentHistory is a page of payments and credit transactions.
type PaymentHistory struct {
	Payments     []Payment           `json:"payments"`
	Transactions []CreditTransaction `json:"transactions"`
	TotalCount   int                 `json:"total_count"`
	Page         int                 `json:"page"`
	Limit        int                 `json:"limit"`
}
