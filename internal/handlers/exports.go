package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"example.com/sme-finhealth/backend/internal/analysis"
	"example.com/sme-finhealth/backend/internal/models"
)

const (
	exportTypeAssessment    = "assessment"
	exportTypeCreditHistory = "credit_history"
)

type metricRow struct {
	section string
	metric  string
	value   string
}

// ExportJSON выгружает полную оценку компании в JSON-файл.
func (h *AnalysisHandler) ExportJSON(c echo.Context) error {
	_, company, err := h.companyFromRequest(c)
	if err != nil {
		return h.fail(c, err)
	}

	assessment, _, err := h.assess(c.Request().Context(), company)
	if err != nil {
		return h.fail(c, err)
	}

	filename := "assessment-" + company.ID.String() + ".json"
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.JSON(http.StatusOK, assessment)
}

// ExportCSV выгружает оценку (type=assessment) или историю скоринга (type=credit_history) в CSV.
func (h *AnalysisHandler) ExportCSV(c echo.Context) error {
	_, company, err := h.companyFromRequest(c)
	if err != nil {
		return h.fail(c, err)
	}

	exportType := strings.ToLower(strings.TrimSpace(c.QueryParam("type")))
	if exportType == "" {
		exportType = exportTypeAssessment
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	switch exportType {
	case exportTypeAssessment:
		assessment, _, err := h.assess(c.Request().Context(), company)
		if err != nil {
			return h.fail(c, err)
		}
		if err := writeAssessmentCSV(writer, assessment); err != nil {
			return serverError(c)
		}
	case exportTypeCreditHistory:
		history, err := h.Scores.History(c.Request().Context(), company.ID, maxHistoryLimit)
		if err != nil {
			return h.fail(c, err)
		}
		if err := writeCreditHistoryCSV(writer, history); err != nil {
			return serverError(c)
		}
	default:
		return badRequest(c, "invalid export type")
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return serverError(c)
	}

	filename := "company-" + company.ID.String() + "-" + exportType + ".csv"
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func writeAssessmentCSV(writer *csv.Writer, assessment analysis.Assessment) error {
	if err := writer.Write([]string{"section", "metric", "value"}); err != nil {
		return err
	}

	for _, row := range assessmentRows(assessment) {
		if err := writer.Write([]string{row.section, row.metric, row.value}); err != nil {
			return err
		}
	}

	return nil
}

func assessmentRows(assessment analysis.Assessment) []metricRow {
	ratios := assessment.Ratios
	rows := []metricRow{
		{"liquidity", "current_ratio", formatFloat(ratios.Liquidity.CurrentRatio)},
		{"liquidity", "quick_ratio", formatFloat(ratios.Liquidity.QuickRatio)},
		{"liquidity", "cash_ratio", formatFloat(ratios.Liquidity.CashRatio)},
		{"profitability", "gross_profit_margin", formatFloat(ratios.Profitability.GrossProfitMargin)},
		{"profitability", "operating_profit_margin", formatFloat(ratios.Profitability.OperatingProfitMargin)},
		{"profitability", "net_profit_margin", formatFloat(ratios.Profitability.NetProfitMargin)},
		{"profitability", "return_on_assets", formatFloat(ratios.Profitability.ReturnOnAssets)},
		{"profitability", "return_on_equity", formatFloat(ratios.Profitability.ReturnOnEquity)},
		{"leverage", "debt_to_equity", formatFloat(ratios.Leverage.DebtToEquity)},
		{"leverage", "debt_to_assets", formatFloat(ratios.Leverage.DebtToAssets)},
		{"leverage", "equity_ratio", formatFloat(ratios.Leverage.EquityRatio)},
		{"efficiency", "asset_turnover", formatFloat(ratios.Efficiency.AssetTurnover)},
		{"efficiency", "receivables_turnover", formatFloat(ratios.Efficiency.ReceivablesTurnover)},
		{"efficiency", "days_sales_outstanding", formatFloat(ratios.Efficiency.DaysSalesOutstanding)},
		{"efficiency", "inventory_turnover", formatFloat(ratios.Efficiency.InventoryTurnover)},
		{"efficiency", "days_inventory_outstanding", formatFloat(ratios.Efficiency.DaysInventoryOutstanding)},
	}

	if flow := assessment.CashFlow; flow != nil {
		rows = append(rows,
			metricRow{"cash_flow", "operating_net", formatFloat(flow.OperatingCashFlow.Net)},
			metricRow{"cash_flow", "investing_net", formatFloat(flow.InvestingCashFlow.Net)},
			metricRow{"cash_flow", "financing_net", formatFloat(flow.FinancingCashFlow.Net)},
			metricRow{"cash_flow", "total_net_cash_flow", formatFloat(flow.TotalNetCashFlow)},
		)
		if flow.MonthlyBurnRate != nil {
			rows = append(rows, metricRow{"cash_flow", "monthly_burn_rate", formatFloat(*flow.MonthlyBurnRate)})
		}
	}

	credit := assessment.CreditScore
	rows = append(rows,
		metricRow{"credit_score", "score", strconv.Itoa(credit.Score)},
		metricRow{"credit_score", "grade", credit.Grade},
		metricRow{"credit_score", "risk_category", string(credit.RiskCategory)},
	)
	for _, component := range analysis.CreditComponents {
		if score, ok := credit.Breakdown[component.Name]; ok {
			rows = append(rows, metricRow{"credit_score", component.Name, strconv.Itoa(score.Score)})
		}
	}

	health := assessment.HealthScore
	rows = append(rows,
		metricRow{"health_score", "liquidity", strconv.Itoa(health.Breakdown.Liquidity)},
		metricRow{"health_score", "profitability", strconv.Itoa(health.Breakdown.Profitability)},
		metricRow{"health_score", "leverage", strconv.Itoa(health.Breakdown.Leverage)},
		metricRow{"health_score", "efficiency", strconv.Itoa(health.Breakdown.Efficiency)},
		metricRow{"health_score", "cash_flow", strconv.Itoa(health.Breakdown.CashFlow)},
		metricRow{"health_score", "total_score", strconv.Itoa(health.TotalScore)},
		metricRow{"health_score", "grade", health.Grade},
	)

	return rows
}

func writeCreditHistoryCSV(writer *csv.Writer, history []models.CreditScoreRecord) error {
	header := []string{
		"id",
		"calculated_at",
		"score",
		"grade",
		"risk_category",
		"positive_factors",
		"negative_factors",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, record := range history {
		row := []string{
			record.ID.String(),
			record.CalculatedAt.Format(timeLayout),
			strconv.Itoa(record.Score),
			record.Grade,
			record.RiskCategory,
			strings.Join(record.Strengths, "; "),
			strings.Join(record.Weaknesses, "; "),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
