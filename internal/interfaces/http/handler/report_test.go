package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	reportapp "github.com/storefront/backend/internal/application/report"
	"github.com/storefront/backend/internal/domain/report"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportRouter(t *testing.T, userID uuid.UUID) (*gin.Engine, *cache.InMemoryCSVStore) {
	t.Helper()
	store := cache.NewInMemoryCSVStore()
	t.Cleanup(func() { _ = store.Close() })

	svc := reportapp.NewReportService(nil, nil, store, reportapp.ReportServiceConfig{}, nil)
	h := NewReportHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, userID.String())
		c.Next()
	})
	r.GET("/reports/getcsv/:report/:user", h.GetCSV)
	r.GET("/reports/sales/year", h.Yearly)
	r.GET("/reports/archive", h.ArchiveURL)
	r.POST("/reports/archive", h.Archive)
	return r, store
}

func TestReportHandlerGetCSV(t *testing.T) {
	userID := uuid.New()
	r, store := newReportRouter(t, userID)
	data := []byte("Rank,Customer\n1,Jane\n")
	require.NoError(t, store.Set(context.Background(),
		report.CacheKey(report.ReportCustomers, userID.String()), data, time.Hour))

	t.Run("download", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/reports/getcsv/"+report.ReportCustomers+"/"+userID.String(), nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, string(data), w.Body.String())
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Equal(t, "private", w.Header().Get("Pragma"))
		assert.Equal(t, "0", w.Header().Get("Expires"))
		assert.Equal(t, "private, must-revalidate", w.Header().Get("Cache-Control"))
		assert.Equal(t, "binary", w.Header().Get("Content-Transfer-Encoding"))
		assert.Equal(t, "21", w.Header().Get("Content-Length"))
		assert.Equal(t, `attachment; filename="uc_customers.csv"`, w.Header().Get("Content-Disposition"))
	})

	for name, path := range map[string]string{
		"other user":     "/reports/getcsv/" + report.ReportCustomers + "/" + uuid.NewString(),
		"unknown report": "/reports/getcsv/uc_unknown/" + userID.String(),
		"not generated":  "/reports/getcsv/" + report.ReportProducts + "/" + userID.String(),
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, report.MessageCSVExpired, decodeResponse(t, w).Error.Message)
		})
	}
}

func TestReportHandlerQueryValidation(t *testing.T) {
	r, _ := newReportRouter(t, uuid.New())

	for _, path := range []string{"/reports/sales/year?year=abc", "/reports/sales/year?year=12", "/reports/archive?date=2024-13-40"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestReportHandlerArchiveDisabled(t *testing.T) {
	r, _ := newReportRouter(t, uuid.New())

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, "/reports/archive?date=2024-03-01", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeArchiveDisabled, decodeResponse(t, w).Error.Code)
	}
}
