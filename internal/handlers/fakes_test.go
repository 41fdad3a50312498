package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/sme-finhealth/backend/internal/ai"
	"example.com/sme-finhealth/backend/internal/analysis"
	"example.com/sme-finhealth/backend/internal/auth"
	"example.com/sme-finhealth/backend/internal/config"
	"example.com/sme-finhealth/backend/internal/models"
	"example.com/sme-finhealth/backend/internal/notifications"
	"example.com/sme-finhealth/backend/internal/repository"
)

var fixedNow = time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

type testValidator struct {
	validate *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()

	validate := validator.New()
	if err := validate.RegisterValidation("industry", ValidateIndustry); err != nil {
		t.Fatalf("register industry validator: %v", err)
	}

	e := echo.New()
	e.Validator = &testValidator{validate: validate}
	return e
}

type fakeCompanies struct {
	companies map[uuid.UUID]models.Company
	inputs    []repository.CompanyInput
	err       error
}

func newFakeCompanies(companies ...models.Company) *fakeCompanies {
	store := &fakeCompanies{companies: make(map[uuid.UUID]models.Company)}
	for _, company := range companies {
		store.companies[company.ID] = company
	}
	return store
}

func (f *fakeCompanies) Create(_ context.Context, userID uuid.UUID, input repository.CompanyInput) (models.Company, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return models.Company{}, f.err
	}

	company := models.Company{ID: uuid.New(), UserID: userID, Country: "India"}
	if input.Name != nil {
		company.Name = *input.Name
	}
	if input.Industry != nil {
		company.Industry = *input.Industry
	}
	company.PAN = input.PAN
	company.FoundedDate = input.FoundedDate
	f.companies[company.ID] = company
	return company, nil
}

func (f *fakeCompanies) Update(_ context.Context, userID, companyID uuid.UUID, input repository.CompanyInput) (models.Company, error) {
	f.inputs = append(f.inputs, input)
	company, ok := f.companies[companyID]
	if !ok || company.UserID != userID {
		return models.Company{}, repository.ErrNotFound
	}
	if input.Name != nil {
		company.Name = *input.Name
	}
	f.companies[companyID] = company
	return company, nil
}

func (f *fakeCompanies) Delete(_ context.Context, userID, companyID uuid.UUID) error {
	company, ok := f.companies[companyID]
	if !ok || company.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.companies, companyID)
	return nil
}

func (f *fakeCompanies) GetByID(_ context.Context, userID, companyID uuid.UUID) (models.Company, error) {
	company, ok := f.companies[companyID]
	if !ok || company.UserID != userID {
		return models.Company{}, repository.ErrNotFound
	}
	return company, nil
}

func (f *fakeCompanies) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Company, error) {
	companies := make([]models.Company, 0)
	for _, company := range f.companies {
		if company.UserID == userID {
			companies = append(companies, company)
		}
	}
	return companies, nil
}

type fakeStatements struct {
	balanceSheet *analysis.BalanceSheet
	profitLoss   *analysis.ProfitLoss
	periods      []repository.StatementPeriod
	savedSheets  []analysis.BalanceSheet
	savedPL      []analysis.ProfitLoss
}

func (f *fakeStatements) SaveBalanceSheet(_ context.Context, companyID uuid.UUID, period repository.StatementPeriod, sheet analysis.BalanceSheet) (models.FinancialStatement, error) {
	f.periods = append(f.periods, period)
	f.savedSheets = append(f.savedSheets, sheet)
	return models.FinancialStatement{ID: uuid.New(), CompanyID: companyID, StatementType: models.StatementBalanceSheet}, nil
}

func (f *fakeStatements) SaveProfitLoss(_ context.Context, companyID uuid.UUID, period repository.StatementPeriod, statement analysis.ProfitLoss) (models.FinancialStatement, error) {
	f.periods = append(f.periods, period)
	f.savedPL = append(f.savedPL, statement)
	return models.FinancialStatement{ID: uuid.New(), CompanyID: companyID, StatementType: models.StatementProfitLoss}, nil
}

func (f *fakeStatements) LatestBalanceSheet(context.Context, uuid.UUID) (analysis.BalanceSheet, error) {
	if f.balanceSheet == nil {
		return analysis.BalanceSheet{}, repository.ErrNotFound
	}
	return *f.balanceSheet, nil
}

func (f *fakeStatements) LatestProfitLoss(context.Context, uuid.UUID) (analysis.ProfitLoss, error) {
	if f.profitLoss == nil {
		return analysis.ProfitLoss{}, repository.ErrNotFound
	}
	return *f.profitLoss, nil
}

func (f *fakeStatements) ListByCompany(_ context.Context, companyID uuid.UUID) ([]models.FinancialStatement, error) {
	return []models.FinancialStatement{{ID: uuid.New(), CompanyID: companyID, StatementType: models.StatementBalanceSheet}}, nil
}

type fakeTransactions struct {
	items    []analysis.Transaction
	inserted []analysis.Transaction
	since    time.Time
}

func (f *fakeTransactions) InsertBatch(_ context.Context, _ uuid.UUID, transactions []analysis.Transaction) (int64, error) {
	f.inserted = append(f.inserted, transactions...)
	return int64(len(transactions)), nil
}

func (f *fakeTransactions) ListSince(_ context.Context, _ uuid.UUID, since time.Time) ([]analysis.Transaction, error) {
	f.since = since
	return f.items, nil
}

func (f *fakeTransactions) Recent(_ context.Context, _ uuid.UUID, limit int) ([]analysis.Transaction, error) {
	if len(f.items) > limit {
		return f.items[:limit], nil
	}
	return f.items, nil
}

type fakeScores struct {
	saved   []analysis.CreditScoreResult
	history []models.CreditScoreRecord
}

func (f *fakeScores) Save(_ context.Context, companyID uuid.UUID, result analysis.CreditScoreResult) (models.CreditScoreRecord, error) {
	f.saved = append(f.saved, result)
	breakdown, _ := json.Marshal(result.Breakdown)
	return models.CreditScoreRecord{
		ID:                     uuid.New(),
		CompanyID:              companyID,
		Score:                  result.Score,
		Grade:                  result.Grade,
		RiskCategory:           string(result.RiskCategory),
		Breakdown:              breakdown,
		Strengths:              result.Strengths,
		Weaknesses:             result.Weaknesses,
		ImprovementSuggestions: result.ImprovementSuggestions,
		CalculatedAt:           fixedNow,
	}, nil
}

func (f *fakeScores) History(_ context.Context, _ uuid.UUID, limit int) ([]models.CreditScoreRecord, error) {
	if len(f.history) > limit {
		return f.history[:limit], nil
	}
	return f.history, nil
}

type fakeAIRequests struct {
	logs    []repository.AIRequestLog
	filter  repository.AIRequestFilter
	limit   int
	offset  int
	records []repository.AIRequestRecord
}

func (f *fakeAIRequests) LogRequest(_ context.Context, log repository.AIRequestLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeAIRequests) List(_ context.Context, filter repository.AIRequestFilter, limit, offset int) ([]repository.AIRequestRecord, error) {
	f.filter, f.limit, f.offset = filter, limit, offset
	return f.records, nil
}

func (f *fakeAIRequests) Count(context.Context, repository.AIRequestFilter) (int, error) {
	return len(f.records), nil
}

// stubClient отвечает заранее заданным текстом или ошибкой.
type stubClient struct {
	reply string
	err   error
	calls int
}

func (s *stubClient) Chat(context.Context, []ai.Message) (string, []byte, error) {
	s.calls++
	if s.err != nil {
		return "", nil, s.err
	}
	return s.reply, []byte(s.reply), nil
}

type analysisFixture struct {
	e            *echo.Echo
	userID       uuid.UUID
	company      models.Company
	companies    *fakeCompanies
	statements   *fakeStatements
	transactions *fakeTransactions
	scores       *fakeScores
	aiRequests   *fakeAIRequests
	hub          *notifications.Hub
	handler      *AnalysisHandler
}

func sampleBalanceSheet() analysis.BalanceSheet {
	return analysis.NewBalanceSheet(
		analysis.LineItems{"cash": 200000, "accounts receivable": 100000, "inventory": 100000},
		analysis.LineItems{"machinery": 400000},
		analysis.LineItems{"accounts payable": 200000},
		analysis.LineItems{"term loan": 200000},
		analysis.LineItems{"share capital": 400000},
	)
}

func sampleProfitLoss() analysis.ProfitLoss {
	return analysis.NewProfitLoss(
		analysis.LineItems{"sales": 1000000},
		600000,
		analysis.LineItems{"salaries": 200000, "rent": 50000},
		analysis.LineItems{"interest": 50000},
	)
}

func sampleTransactions() []analysis.Transaction {
	return []analysis.Transaction{
		{Date: fixedNow.AddDate(0, 0, -10), Description: "Invoice 17", Amount: 300000, Category: "revenue", Type: analysis.TransactionCredit},
		{Date: fixedNow.AddDate(0, 0, -8), Description: "Payroll", Amount: -120000, Category: "salary", Type: analysis.TransactionDebit},
		{Date: fixedNow.AddDate(0, 0, -5), Description: "Lathe", Amount: -50000, Category: "equipment", Type: analysis.TransactionDebit},
	}
}

func newAnalysisFixture(t *testing.T, client ai.Client) *analysisFixture {
	t.Helper()

	founded := fixedNow.AddDate(-6, 0, 0)
	revenue := 1000000.0
	userID := uuid.New()
	company := models.Company{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          "Acme Traders",
		Industry:      "Retail",
		FoundedDate:   &founded,
		AnnualRevenue: &revenue,
		Country:       "India",
	}

	sheet := sampleBalanceSheet()
	profitLoss := sampleProfitLoss()

	f := &analysisFixture{
		e:            newTestEcho(t),
		userID:       userID,
		company:      company,
		companies:    newFakeCompanies(company),
		statements:   &fakeStatements{balanceSheet: &sheet, profitLoss: &profitLoss},
		transactions: &fakeTransactions{items: sampleTransactions()},
		scores:       &fakeScores{},
		aiRequests:   &fakeAIRequests{},
		hub:          notifications.NewHub(),
	}

	f.handler = NewAnalysisHandler(AnalysisDependencies{
		Companies:    f.companies,
		Statements:   f.statements,
		Transactions: f.transactions,
		Scores:       f.scores,
		AIRequests:   f.aiRequests,
		Narrator:     ai.NewService(client),
		Notifier:     f.hub,
		Provider:     "groq",
		Model:        "test-model",
	}, config.AnalysisConfig{CashFlowWindowMonths: 6, MaxCashFlowWindowMonths: 24, TransactionSampleLimit: 100})
	f.handler.now = func() time.Time { return fixedNow }

	return f
}

// request собирает контекст запроса аутентифицированного владельца компании.
func (f *analysisFixture) request(method, target string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()

	c := f.e.NewContext(req, rec)
	c.SetParamNames("companyId")
	c.SetParamValues(f.company.ID.String())
	c.Set(auth.ContextUserIDKey, f.userID)
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, rec, &body)
	return body["error"]
}
