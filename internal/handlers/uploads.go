package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/sme-finhealth/backend/internal/analysis"
	"example.com/sme-finhealth/backend/internal/auth"
	"example.com/sme-finhealth/backend/internal/config"
	"example.com/sme-finhealth/backend/internal/models"
	"example.com/sme-finhealth/backend/internal/notifications"
	"example.com/sme-finhealth/backend/internal/repository"
	"example.com/sme-finhealth/backend/internal/statements"
)

type UploadHandler struct {
	Companies    CompanyStore
	Statements   StatementStore
	Transactions TransactionStore
	Notifier     *notifications.Hub
	Settings     config.UploadConfig
}

// NewUploadHandler создает обработчик загрузки документов.
func NewUploadHandler(companies CompanyStore, statementStore StatementStore, transactions TransactionStore, notifier *notifications.Hub, settings config.UploadConfig) *UploadHandler {
	return &UploadHandler{
		Companies:    companies,
		Statements:   statementStore,
		Transactions: transactions,
		Notifier:     notifier,
		Settings:     settings,
	}
}

type UploadResponse struct {
	Message     string         `json:"message"`
	FileName    string         `json:"file_name"`
	FileType    string         `json:"file_type"`
	Status      string         `json:"status"`
	StatementID *uuid.UUID     `json:"statement_id,omitempty"`
	DataSummary map[string]any `json:"data_summary,omitempty"`
}

// UploadStatement принимает баланс или P&L в CSV и сохраняет нормализованные данные.
func (h *UploadHandler) UploadStatement(c echo.Context) error {
	userID, companyID, err := h.ownedCompany(c)
	if err != nil {
		return h.fail(c, err)
	}

	statementType := models.StatementType(strings.TrimSpace(c.FormValue("statement_type")))
	if statementType != models.StatementBalanceSheet && statementType != models.StatementProfitLoss {
		return badRequest(c, "statement_type must be balance_sheet or profit_loss")
	}

	periodStart, periodEnd, err := parsePeriod(c.FormValue("period_start"), c.FormValue("period_end"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	filename, body, err := h.openUpload(c)
	if err != nil {
		return h.fail(c, err)
	}
	defer body.Close()

	period := repository.StatementPeriod{Start: periodStart, End: periodEnd, UploadedFile: filename}

	var (
		stored  models.FinancialStatement
		summary map[string]any
	)
	switch statementType {
	case models.StatementBalanceSheet:
		sheet, err := statements.ParseBalanceSheet(body)
		if err != nil {
			return h.fail(c, err)
		}
		if stored, err = h.Statements.SaveBalanceSheet(c.Request().Context(), companyID, period, sheet); err != nil {
			return h.fail(c, err)
		}
		summary = map[string]any{
			"total_assets":      sheet.Assets.TotalAssets,
			"total_liabilities": sheet.Liabilities.TotalLiabilities,
			"total_equity":      sheet.Equity.TotalEquity,
		}
	default:
		statement, err := statements.ParseProfitLoss(body)
		if err != nil {
			return h.fail(c, err)
		}
		if stored, err = h.Statements.SaveProfitLoss(c.Request().Context(), companyID, period, statement); err != nil {
			return h.fail(c, err)
		}
		summary = map[string]any{
			"total_revenue":  statement.Revenue.TotalRevenue,
			"total_expenses": statement.Expenses.TotalExpenses,
			"net_profit":     statement.Profit.NetProfit,
		}
	}

	h.Notifier.PublishCompany(userID, companyID, notifications.EventStatementUploaded, map[string]any{
		"statement_id":   stored.ID.String(),
		"statement_type": string(statementType),
	})

	return c.JSON(http.StatusCreated, UploadResponse{
		Message:     "Financial statement uploaded successfully",
		FileName:    filename,
		FileType:    strings.ToLower(filepath.Ext(filename)),
		Status:      "success",
		StatementID: &stored.ID,
		DataSummary: summary,
	})
}

// UploadTransactions принимает банковскую выписку в CSV и сохраняет транзакции пакетом.
func (h *UploadHandler) UploadTransactions(c echo.Context) error {
	userID, companyID, err := h.ownedCompany(c)
	if err != nil {
		return h.fail(c, err)
	}

	filename, body, err := h.openUpload(c)
	if err != nil {
		return h.fail(c, err)
	}
	defer body.Close()

	transactions, err := statements.ParseTransactions(body)
	if err != nil {
		return h.fail(c, err)
	}

	inserted, err := h.Transactions.InsertBatch(c.Request().Context(), companyID, transactions)
	if err != nil {
		return h.fail(c, err)
	}

	total := transactionTotal(transactions)
	h.Notifier.PublishCompany(userID, companyID, notifications.EventTransactionsImported, map[string]any{
		"transactions_count": inserted,
	})

	return c.JSON(http.StatusCreated, UploadResponse{
		Message:  "Transactions uploaded successfully",
		FileName: filename,
		FileType: strings.ToLower(filepath.Ext(filename)),
		Status:   "success",
		DataSummary: map[string]any{
			"transactions_count": inserted,
			"total_amount":       total,
		},
	})
}

// ListStatements возвращает загруженные отчетности компании.
func (h *UploadHandler) ListStatements(c echo.Context) error {
	_, companyID, err := h.ownedCompany(c)
	if err != nil {
		return h.fail(c, err)
	}

	items, err := h.Statements.ListByCompany(c.Request().Context(), companyID)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *UploadHandler) ownedCompany(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return uuid.Nil, uuid.Nil, errMissingUser
	}

	companyID, err := parseCompanyID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, errInvalidCompanyID
	}

	if _, err := h.Companies.GetByID(c.Request().Context(), userID, companyID); err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	return userID, companyID, nil
}

var (
	errFileRequired = errors.New("file is required")
	errFileTooLarge = errors.New("file too large")
)

// openUpload проверяет расширение и размер файла формы и открывает его на чтение.
func (h *UploadHandler) openUpload(c echo.Context) (string, io.ReadCloser, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return "", nil, errFileRequired
	}

	if err := statements.CheckExtension(header.Filename, h.Settings.AllowedExtensions); err != nil {
		return "", nil, err
	}

	maxSize := h.Settings.MaxFileSizeBytes()
	if header.Size > maxSize {
		return "", nil, errFileTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return "", nil, err
	}

	return filepath.Base(header.Filename), file, nil
}

func (h *UploadHandler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errMissingUser):
		return unauthorized(c)
	case errors.Is(err, errInvalidCompanyID):
		return badRequest(c, "invalid company id")
	case errors.Is(err, repository.ErrNotFound):
		return notFound(c, "Company not found")
	case errors.Is(err, errFileRequired):
		return badRequest(c, err.Error())
	case errors.Is(err, errFileTooLarge):
		return badRequest(c, fmt.Sprintf("file size exceeds %dMB limit", h.Settings.MaxFileSizeMB))
	case errors.Is(err, statements.ErrUnsupportedFormat):
		return badRequest(c, "file type not allowed. Supported: .csv")
	case errors.Is(err, statements.ErrEmptyDocument), errors.Is(err, statements.ErrMissingColumn):
		return unprocessable(c, "failed to parse document: "+err.Error())
	default:
		slog.Error("upload failed", slog.String("path", c.Path()), slog.Any("error", err))
		return serverError(c)
	}
}

func transactionTotal(transactions []analysis.Transaction) float64 {
	total := decimal.Zero
	for _, txn := range transactions {
		total = total.Add(decimal.NewFromFloat(txn.Amount))
	}
	return total.InexactFloat64()
}
