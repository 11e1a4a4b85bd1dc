package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commentRequest struct {
	Message  string `json:"message" binding:"required,max=10"`
	Currency string `json:"currency" binding:"omitempty,iso4217"`
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req commentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	t.Run("field errors use json names", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"currency":"XX"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		info := decodeError(t, rec)
		assert.Equal(t, dto.ErrCodeValidation, info.Code)
		assert.Equal(t, "Request validation failed", info.Message)
		assert.ElementsMatch(t, []dto.ValidationDetail{
			{Field: "message", Message: "This field is required"},
			{Field: "currency", Message: "Must be an ISO 4217 currency code"},
		}, info.Details)
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"message":`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		info := decodeError(t, rec)
		assert.True(t, strings.HasPrefix(info.Message, "Invalid request body: "))
		assert.Empty(t, info.Details)
	})
}

func TestValidationDetails_NonValidatorError(t *testing.T) {
	assert.Nil(t, ValidationDetails(errors.New("boom")))
}

type lineRequest struct {
	SKU    string          `json:"sku" binding:"required,sku"`
	Weight decimal.Decimal `json:"weight" binding:"gte=0"`
	Note   string          `form:"note" json:"-"`
}

func TestStoreValidationTags(t *testing.T) {
	SetupValidator()

	tests := []struct {
		name    string
		body    string
		details []dto.ValidationDetail
	}{
		{name: "valid line", body: `{"sku":"MUG-RED.12","weight":"0.5"}`},
		{name: "sku with spaces", body: `{"sku":"mug red","weight":"1"}`,
			details: []dto.ValidationDetail{{Field: "sku", Message: fixedMessages["sku"]}}},
		{name: "negative weight", body: `{"sku":"MUG","weight":"-2"}`,
			details: []dto.ValidationDetail{{Field: "weight", Message: "Must be greater than or equal to 0"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req lineRequest
			err := binding.JSON.BindBody([]byte(tt.body), &req)
			if tt.details == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.details, ValidationDetails(err))
		})
	}
}

func TestFieldKey(t *testing.T) {
	typ := reflect.TypeOf(lineRequest{})
	sku, _ := typ.FieldByName("SKU")
	note, _ := typ.FieldByName("Note")
	assert.Equal(t, "sku", fieldKey(sku))
	assert.Equal(t, "", fieldKey(note), "json:\"-\" hides the field")
}
