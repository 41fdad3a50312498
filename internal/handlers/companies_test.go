package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/sme-finhealth/backend/internal/auth"
	"example.com/sme-finhealth/backend/internal/models"
	"example.com/sme-finhealth/backend/internal/repository"
)

func newCompanyContext(t *testing.T, e *echo.Echo, userID uuid.UUID, method, body string, companyID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	c := e.NewContext(req, rec)
	if companyID != "" {
		c.SetParamNames("companyId")
		c.SetParamValues(companyID)
	}
	c.Set(auth.ContextUserIDKey, userID)
	return c, rec
}

// TestCreateCompanyNormalizesInput проверяет нормализацию полей при создании.
func TestCreateCompanyNormalizesInput(t *testing.T) {
	store := newFakeCompanies()
	handler := NewCompanyHandler(store)
	handler.now = func() time.Time { return fixedNow }
	userID := uuid.New()

	body := `{"name":"  Acme Traders ","industry":"Retail","pan":"abcde1234f","city":"  ","founded_date":"2019-04-01"}`
	c, rec := newCompanyContext(t, newTestEcho(t), userID, http.MethodPost, body, "")

	require.NoError(t, handler.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, store.inputs, 1)
	input := store.inputs[0]
	assert.Equal(t, "Acme Traders", *input.Name)
	assert.Equal(t, "ABCDE1234F", *input.PAN)
	assert.Nil(t, input.City)
	assert.Nil(t, input.Country)
	require.NotNil(t, input.FoundedDate)
	assert.Equal(t, "2019-04-01", input.FoundedDate.Format(dateLayout))

	var company models.Company
	decodeBody(t, rec, &company)
	assert.Equal(t, userID, company.UserID)
	assert.Equal(t, "India", company.Country)
}

// TestCreateCompanyValidation проверяет отказ для неверной отрасли и даты основания.
func TestCreateCompanyValidation(t *testing.T) {
	handler := NewCompanyHandler(newFakeCompanies())
	handler.now = func() time.Time { return fixedNow }
	e := newTestEcho(t)

	cases := map[string]string{
		"unknown industry": `{"name":"Acme","industry":"Mining"}`,
		"missing name":     `{"industry":"Retail"}`,
		"future founded":   `{"name":"Acme","industry":"Retail","founded_date":"2027-01-01"}`,
		"bad founded":      `{"name":"Acme","industry":"Retail","founded_date":"01/01/2020"}`,
		"short pan":        `{"name":"Acme","industry":"Retail","pan":"ABC"}`,
		"blank name":       `{"name":"   ","industry":"Retail"}`,
	}

	for name, body := range cases {
		c, rec := newCompanyContext(t, e, uuid.New(), http.MethodPost, body, "")
		require.NoError(t, handler.Create(c), name)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

// TestCreateCompanyConflict проверяет ответ 409 на дубликат регистрационного номера.
func TestCreateCompanyConflict(t *testing.T) {
	store := newFakeCompanies()
	store.err = repository.ErrConflict
	handler := NewCompanyHandler(store)

	c, rec := newCompanyContext(t, newTestEcho(t), uuid.New(), http.MethodPost, `{"name":"Acme","industry":"Retail","registration_number":"U1234"}`, "")
	require.NoError(t, handler.Create(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// TestCompanyOwnership проверяет, что чужая компания недоступна.
func TestCompanyOwnership(t *testing.T) {
	owner := uuid.New()
	company := models.Company{ID: uuid.New(), UserID: owner, Name: "Acme", Industry: "Retail"}
	store := newFakeCompanies(company)
	handler := NewCompanyHandler(store)
	e := newTestEcho(t)

	c, rec := newCompanyContext(t, e, owner, http.MethodGet, "", company.ID.String())
	require.NoError(t, handler.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newCompanyContext(t, e, uuid.New(), http.MethodGet, "", company.ID.String())
	require.NoError(t, handler.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = newCompanyContext(t, e, uuid.New(), http.MethodDelete, "", company.ID.String())
	require.NoError(t, handler.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = newCompanyContext(t, e, owner, http.MethodGet, "", "bad-id")
	require.NoError(t, handler.Get(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestUpdateAndDeleteCompany проверяет частичное обновление и удаление.
func TestUpdateAndDeleteCompany(t *testing.T) {
	owner := uuid.New()
	company := models.Company{ID: uuid.New(), UserID: owner, Name: "Acme", Industry: "Retail"}
	store := newFakeCompanies(company)
	handler := NewCompanyHandler(store)
	e := newTestEcho(t)

	c, rec := newCompanyContext(t, e, owner, http.MethodPatch, `{"name":" Acme Exports "}`, company.ID.String())
	require.NoError(t, handler.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme Exports", store.companies[company.ID].Name)
	assert.Nil(t, store.inputs[0].Industry)

	c, rec = newCompanyContext(t, e, owner, http.MethodPatch, `{"industry":"Mining"}`, company.ID.String())
	require.NoError(t, handler.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newCompanyContext(t, e, owner, http.MethodDelete, "", company.ID.String())
	require.NoError(t, handler.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.companies)
}

// TestListCompanies проверяет выдачу только своих компаний.
func TestListCompanies(t *testing.T) {
	owner := uuid.New()
	store := newFakeCompanies(
		models.Company{ID: uuid.New(), UserID: owner, Name: "Acme"},
		models.Company{ID: uuid.New(), UserID: uuid.New(), Name: "Other"},
	)
	handler := NewCompanyHandler(store)

	c, rec := newCompanyContext(t, newTestEcho(t), owner, http.MethodGet, "", "")
	require.NoError(t, handler.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var companies []models.Company
	decodeBody(t, rec, &companies)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].Name)
}
