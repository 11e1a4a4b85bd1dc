package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCheckoutHandlerRejectsBadRequests(t *testing.T) {
	h := NewCheckoutHandler(nil, nil)
	r := gin.New()
	r.POST("/cart/checkout/:id/start", h.Start)
	r.PUT("/cart/checkout/:id", h.Update)
	r.GET("/cart/checkout/:id/review", h.Review)
	r.POST("/cart/checkout/:id/complete", h.Complete)
	r.POST("/paypal/checkout/:id", h.PayPalCreate)
	r.POST("/paypal/checkout/:id/complete", h.PayPalComplete)

	tests := []struct {
		name    string
		method  string
		path    string
		status  int
		message string
	}{
		{"start with bad id", http.MethodPost, "/cart/checkout/42/start", http.StatusBadRequest, "Invalid order ID format"},
		{"update with bad id", http.MethodPut, "/cart/checkout/42", http.StatusBadRequest, "Invalid order ID format"},
		{"review with bad id", http.MethodGet, "/cart/checkout/42/review", http.StatusBadRequest, "Invalid order ID format"},
		{"complete with bad id", http.MethodPost, "/cart/checkout/42/complete", http.StatusBadRequest, "Invalid order ID format"},
		{"paypal not configured", http.MethodPost, "/paypal/checkout/" + uuid.NewString(), http.StatusNotFound, "PayPal is not available"},
		{"paypal execute not configured", http.MethodPost, "/paypal/checkout/" + uuid.NewString() + "/complete", http.StatusNotFound, "PayPal is not available"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, decodeResponse(t, w).Error.Message)
		})
	}
}
