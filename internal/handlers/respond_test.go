package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/sme-finhealth/backend/internal/notifications"
)

func queryContext(target string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

// TestParsePeriodValid проверяет корректный разбор периода.
func TestParsePeriodValid(t *testing.T) {
	start, end, err := parsePeriod("2025-04-01", " 2026-03-31 ")
	require.NoError(t, err)

	assert.Equal(t, "2025-04-01", start.Format(dateLayout))
	assert.Equal(t, "2026-03-31", end.Format(dateLayout))
}

// TestParsePeriodInvalid проверяет ошибки при неверном периоде.
func TestParsePeriodInvalid(t *testing.T) {
	_, _, err := parsePeriod("2025/04/01", "2026-03-31")
	assert.EqualError(t, err, "invalid period_start format")

	_, _, err = parsePeriod("2025-04-01", "")
	assert.EqualError(t, err, "invalid period_end format")

	_, _, err = parsePeriod("2026-04-01", "2026-03-31")
	assert.EqualError(t, err, "period_end must be after period_start")
}

// TestParsePagination проверяет лимит, смещение и верхнюю границу.
func TestParsePagination(t *testing.T) {
	limit, offset, err := parsePagination(queryContext("/"), 10, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, limit)
	assert.Zero(t, offset)

	limit, offset, err = parsePagination(queryContext("/?limit=500&offset=20"), 10, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 20, offset)

	_, _, err = parsePagination(queryContext("/?limit=0"), 10, 100)
	assert.Error(t, err)

	_, _, err = parsePagination(queryContext("/?offset=-1"), 10, 100)
	assert.Error(t, err)
}

// TestParseBoolParam проверяет значение по умолчанию и ошибку разбора.
func TestParseBoolParam(t *testing.T) {
	value, err := parseBoolParam(queryContext("/"), "include_ai_insights", true)
	require.NoError(t, err)
	assert.True(t, value)

	value, err = parseBoolParam(queryContext("/?include_ai_insights=0"), "include_ai_insights", true)
	require.NoError(t, err)
	assert.False(t, value)

	_, err = parseBoolParam(queryContext("/?include_ai_insights=nope"), "include_ai_insights", true)
	assert.EqualError(t, err, "invalid include_ai_insights")
}

// TestValidateIndustry проверяет правило валидатора industry.
func TestValidateIndustry(t *testing.T) {
	e := newTestEcho(t)

	type payload struct {
		Industry string `validate:"required,industry"`
	}

	assert.NoError(t, e.Validator.Validate(&payload{Industry: "IT & Software"}))
	assert.Error(t, e.Validator.Validate(&payload{Industry: "it & software"}))
	assert.Error(t, e.Validator.Validate(&payload{Industry: "Mining"}))
}

// TestTrimOptional проверяет обрезку и обнуление пустых строк.
func TestTrimOptional(t *testing.T) {
	assert.Nil(t, trimOptional(nil))

	blank := "   "
	assert.Nil(t, trimOptional(&blank))

	value := " Pune "
	require.NotNil(t, trimOptional(&value))
	assert.Equal(t, "Pune", *trimOptional(&value))

	gstin := " 27aapfu0939f1zv "
	assert.Equal(t, "27AAPFU0939F1ZV", *upperOptional(&gstin))
}

// TestWriteSSE проверяет формат события в потоке.
func TestWriteSSE(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	companyID := uuid.New()

	err := writeSSE(c, notifications.Event{Type: notifications.EventStatementUploaded, CompanyID: &companyID})
	require.NoError(t, err)

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: statement_uploaded\ndata: {"))
	assert.True(t, strings.HasSuffix(body, "}\n\n"))
	assert.Contains(t, body, companyID.String())
}
