package payment

import (
	"errors"
	"strings"
	"time"

	domain "github.com/storefront/backend/internal/domain/payment"
)

const (
	paypalSandboxURL     = "https://api.sandbox.paypal.com/v1"
	paypalProductionURL  = "https://api.paypal.com/v1"
	paypalDefaultTimeout = 30 * time.Second
)

// PayPalConfig holds transport settings for the PayPal REST client.
// Credentials come from the payment method settings.
type PayPalConfig struct {
	// BaseURL overrides the environment URL, for tests and proxies
	BaseURL string
	// Timeout bounds each request (30s when zero)
	Timeout time.Duration
	// LogRequests logs every request and response body at debug level
	LogRequests bool
}

// Errors returned by the PayPal client
var (
	ErrPayPalMissingCredentials = errors.New("paypal: missing client ID or secret")
	ErrPayPalRequestFailed      = errors.New("paypal: request failed")
	ErrPayPalUnavailable        = errors.New("paypal: service unavailable")
	ErrPayPalInvalidResponse    = errors.New("paypal: invalid response")
)

// baseURL resolves the API root for the given settings
func (c PayPalConfig) baseURL(settings domain.PayPalSettings) string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	if settings.Env == domain.PayPalEnvProduction {
		return paypalProductionURL
	}
	return paypalSandboxURL
}

func (c PayPalConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return paypalDefaultTimeout
	}
	return c.Timeout
}
