package analytics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/frontdesk/internal/domain/identity"
	"github.com/clinicdesk/frontdesk/internal/domain/visit"
)

func get(t *testing.T, h echo.HandlerFunc, target string, params ...string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec)
	if len(params) == 2 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}
	return rec, h(c)
}

func TestHandler_FinancialReport(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	f.visit(t, uuid.New(), time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC), 100, 20, visit.PaymentPending, visit.StatusCompleted)
	f.visit(t, uuid.New(), time.Date(2024, 5, 12, 12, 0, 0, 0, time.UTC), 50, 0, visit.PaymentPaid, visit.StatusCompleted)

	rec, err := get(t, h.FinancialReport, "/?startDate=2024-05-10&endDate=2024-05-10")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 120.0, body["totalRevenue"])
	assert.Equal(t, 1.0, body["totalVisits"])
	assert.Equal(t, 120.0, body["pendingAmount"])
}

func TestHandler_MonthlyTrends(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)

	rec, err := get(t, h.MonthlyTrends, "/?months=3")
	require.NoError(t, err)
	var trends []TrendMonth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trends))
	assert.Len(t, trends, 3)

	_, err = get(t, h.MonthlyTrends, "/?months=zero")
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestHandler_Unified_UnknownRange(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)

	rec, err := get(t, h.Unified, "/?timeRange=decade")
	require.NoError(t, err)
	var u UnifiedAnalytics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, RangeMonth, u.TimeRange)
}

func TestHandler_DoctorStats(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	doc := f.doctor(t, "Dr S", "Cardiology", identity.DoctorActive)

	rec, err := get(t, h.DoctorStats, "/", "id", doc.ID.String())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err = get(t, h.DoctorStats, "/", "id", uuid.New().String())
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)

	_, err = get(t, h.DoctorStats, "/", "id", "not-a-uuid")
	he, ok = err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}
