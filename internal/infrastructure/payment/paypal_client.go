package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domain "github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// PayPalClient implements payment.PayPalGateway against the PayPal REST v1 API
type PayPalClient struct {
	config     PayPalConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPayPalClient creates a new PayPal REST client
func NewPayPalClient(config PayPalConfig, logger *zap.Logger) *PayPalClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayPalClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.timeout(),
		},
		logger: logger.Named("paypal"),
	}
}

// CreatePayment creates a sale payment and returns its approval URL
func (c *PayPalClient) CreatePayment(ctx context.Context, settings domain.PayPalSettings, req domain.PayPalCreateRequest) (*domain.PayPalPayment, error) {
	scale := currencyScale(req.Amount.Currency)
	amount := paypalAmount{
		Total:    req.Amount.Total.StringFixed(scale),
		Currency: req.Amount.Currency,
	}
	if !req.Amount.Subtotal.IsZero() || !req.Amount.Shipping.IsZero() || !req.Amount.Tax.IsZero() {
		amount.Details = &paypalDetails{
			Subtotal: req.Amount.Subtotal.StringFixed(scale),
			Shipping: req.Amount.Shipping.StringFixed(scale),
			Tax:      req.Amount.Tax.StringFixed(scale),
		}
	}
	body := paypalPaymentRequest{
		Intent: "sale",
		Payer:  paypalPayer{PaymentMethod: "paypal"},
		RedirectURLs: paypalRedirectURLs{
			ReturnURL: req.ReturnURL,
			CancelURL: req.CancelURL,
		},
		Transactions: []paypalTransaction{{Amount: amount}},
	}

	var resp paypalPaymentResponse
	if err := c.doRequest(ctx, settings, http.MethodPost, "/payments/payment", body, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain()
}

// ExecutePayment executes a payment the payer approved
func (c *PayPalClient) ExecutePayment(ctx context.Context, settings domain.PayPalSettings, paymentID, payerID string) (*domain.PayPalPayment, error) {
	if strings.TrimSpace(paymentID) == "" || strings.TrimSpace(payerID) == "" {
		return nil, fmt.Errorf("%w: payment ID and payer ID are required", ErrPayPalRequestFailed)
	}
	var resp paypalPaymentResponse
	path := "/payments/payment/" + paymentID + "/execute"
	if err := c.doRequest(ctx, settings, http.MethodPost, path, paypalExecuteRequest{PayerID: payerID}, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain()
}

// doRequest performs an authenticated JSON request and decodes the response into out
func (c *PayPalClient) doRequest(ctx context.Context, settings domain.PayPalSettings, method, path string, body, out any) (err error) {
	if strings.TrimSpace(settings.Client) == "" || strings.TrimSpace(settings.Secret) == "" {
		return ErrPayPalMissingCredentials
	}
	ctx, span := telemetry.StartClientSpan(ctx, "paypal "+method,
		telemetry.SpanHTTPMethod.String(method),
		telemetry.SpanGateway.String("paypal"))
	defer func() { telemetry.EndSpan(span, err) }()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("paypal: failed to marshal request: %w", err)
	}
	url := c.config.baseURL(settings) + path

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("paypal: failed to create request: %w", err)
	}
	req.SetBasicAuth(settings.Client, settings.Secret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("PayPal-Partner-Attribution-Id", domain.PayPalPartnerAttributionID)

	logRequests := c.config.LogRequests || settings.LogRequests
	if logRequests {
		c.logger.Debug("PayPal API request",
			zap.String("method", method),
			zap.String("url", url),
			zap.ByteString("body", payload),
		)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("PayPal API request failed", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPayPalUnavailable, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(telemetry.SpanHTTPStatus.Int(resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("paypal: failed to read response: %w", err)
	}
	if logRequests {
		c.logger.Debug("PayPal API response",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
	}

	if resp.StatusCode >= 400 {
		var apiErr paypalErrorResponse
		_ = json.Unmarshal(respBody, &apiErr)
		c.logger.Error("PayPal API returned an error",
			zap.Int("status", resp.StatusCode),
			zap.String("name", apiErr.Name),
			zap.String("message", apiErr.Message),
			zap.String("debug_id", apiErr.DebugID),
		)
		return fmt.Errorf("%w: HTTP %d %s", ErrPayPalRequestFailed, resp.StatusCode, apiErr.Name)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", ErrPayPalInvalidResponse, err)
	}
	return nil
}

func (r *paypalPaymentResponse) toDomain() (*domain.PayPalPayment, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("%w: missing payment id", ErrPayPalInvalidResponse)
	}
	p := &domain.PayPalPayment{ID: r.ID, State: r.State}
	for _, l := range r.Links {
		if l.Rel == "approval_url" {
			p.ApprovalURL = l.Href
		}
	}
	if len(r.Transactions) > 0 {
		amount := r.Transactions[0].Amount
		total, err := decimal.NewFromString(amount.Total)
		if err != nil {
			return nil, fmt.Errorf("%w: bad amount %q", ErrPayPalInvalidResponse, amount.Total)
		}
		p.Total = total
		p.Currency = amount.Currency
	}
	if info := r.Payer.PayerInfo; info != nil {
		p.PayerFirst = info.FirstName
		p.PayerLast = info.LastName
		if sa := info.ShippingAddress; sa != nil {
			p.ShippingAddress = &valueobject.Address{
				FirstName:  info.FirstName,
				LastName:   info.LastName,
				Street1:    sa.Line1,
				Street2:    sa.Line2,
				City:       sa.City,
				Zone:       sa.State,
				PostalCode: sa.PostalCode,
				Country:    sa.CountryCode,
				Phone:      sa.Phone,
			}
		}
	}
	return p, nil
}

func currencyScale(code string) int32 {
	c, err := valueobject.ParseCurrency(code)
	if err != nil {
		return 2
	}
	return c.Scale()
}

var _ domain.PayPalGateway = (*PayPalClient)(nil)
