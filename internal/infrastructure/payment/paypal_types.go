package payment

// PayPal REST v1 payment wire types

type paypalPaymentRequest struct {
	Intent       string              `json:"intent"`
	Payer        paypalPayer         `json:"payer"`
	RedirectURLs paypalRedirectURLs  `json:"redirect_urls"`
	Transactions []paypalTransaction `json:"transactions"`
}

type paypalPayer struct {
	PaymentMethod string           `json:"payment_method,omitempty"`
	PayerInfo     *paypalPayerInfo `json:"payer_info,omitempty"`
}

type paypalPayerInfo struct {
	Email           string                 `json:"email,omitempty"`
	FirstName       string                 `json:"first_name,omitempty"`
	LastName        string                 `json:"last_name,omitempty"`
	PayerID         string                 `json:"payer_id,omitempty"`
	ShippingAddress *paypalShippingAddress `json:"shipping_address,omitempty"`
}

type paypalShippingAddress struct {
	RecipientName string `json:"recipient_name,omitempty"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	City          string `json:"city"`
	State         string `json:"state,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	CountryCode   string `json:"country_code"`
	Phone         string `json:"phone,omitempty"`
}

type paypalRedirectURLs struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type paypalTransaction struct {
	Amount paypalAmount `json:"amount"`
}

type paypalAmount struct {
	Total    string         `json:"total"`
	Currency string         `json:"currency"`
	Details  *paypalDetails `json:"details,omitempty"`
}

type paypalDetails struct {
	Subtotal string `json:"subtotal,omitempty"`
	Shipping string `json:"shipping,omitempty"`
	Tax      string `json:"tax,omitempty"`
}

type paypalExecuteRequest struct {
	PayerID string `json:"payer_id"`
}

type paypalLink struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type paypalPaymentResponse struct {
	ID           string              `json:"id"`
	State        string              `json:"state"`
	Payer        paypalPayer         `json:"payer"`
	Transactions []paypalTransaction `json:"transactions"`
	Links        []paypalLink        `json:"links"`
}

type paypalErrorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	DebugID string `json:"debug_id"`
}
