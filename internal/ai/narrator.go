package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	costFallbackSnippet = 200
	costFallbackImpact  = "To be determined"
	costFallbackPrio    = "medium"
	costFallbackCat     = "General"
)

type Service struct {
	client Client
}

// NewService создает сервис генерации текстов поверх AI-клиента.
func NewService(client Client) *Service {
	return &Service{client: client}
}

// Generate отправляет системную и пользовательскую подсказки и возвращает текст ответа.
func (s *Service) Generate(ctx context.Context, system, user string) (string, error) {
	text, _, err := s.complete(ctx, system, user)
	return text, err
}

func (s *Service) complete(ctx context.Context, system, user string) (string, Exchange, error) {
	exchange := Exchange{Prompt: user}
	if s == nil || s.client == nil {
		return "", exchange, ErrMissingAPIKey
	}

	text, raw, err := s.client.Chat(ctx, []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	})
	exchange.Raw = raw
	if err != nil {
		return "", exchange, err
	}

	return strings.TrimSpace(text), exchange, nil
}

// FinancialInsights пишет понятный владельцу бизнеса разбор коэффициентов и денежного потока.
func (s *Service) FinancialInsights(ctx context.Context, input InsightsInput) (string, Exchange, error) {
	ratios, err := json.MarshalIndent(input.Ratios, "", "  ")
	if err != nil {
		return "", Exchange{}, err
	}

	cashFlow := []byte("No transaction data available for the analysis window.")
	if input.CashFlow != nil {
		if cashFlow, err = json.MarshalIndent(input.CashFlow, "", "  "); err != nil {
			return "", Exchange{}, err
		}
	}

	name := input.Company.Name
	if strings.TrimSpace(name) == "" {
		name = "the company"
	}

	system := fmt.Sprintf(`You are a financial analyst specializing in SME (Small and Medium Enterprise) financial health assessment.
Your role is to provide clear, actionable insights that non-finance business owners can understand.
Output language: %s`, input.Language.Name())

	user := fmt.Sprintf(`%sAnalyze the following financial data for %s in the %s industry:

Financial Ratios:
%s

Cash Flow Analysis:
%s

Provide:
1. Overall financial health assessment (2-3 sentences)
2. Key strengths (3 points)
3. Areas for improvement (3 points)
4. Top 3 actionable recommendations

Keep it concise, clear, and practical for business owners.`,
		input.Language.instruction(), name, input.Company.Industry, ratios, cashFlow)

	return s.complete(ctx, system, user)
}

// CostOptimization просит у модели 5 предложений по сокращению затрат. Ответ без
// разбираемого JSON-массива превращается в одно предложение категории General.
func (s *Service) CostOptimization(ctx context.Context, input CostOptimizationInput) ([]CostSuggestion, Exchange, error) {
	expenses, err := json.MarshalIndent(input.Expenses, "", "  ")
	if err != nil {
		return nil, Exchange{}, err
	}

	benchmarks, err := json.MarshalIndent(input.Benchmarks, "", "  ")
	if err != nil {
		return nil, Exchange{}, err
	}

	system := fmt.Sprintf(`You are a business efficiency consultant specializing in cost optimization for SMEs.
Provide specific, actionable cost reduction strategies.
Output language: %s`, input.Language.Name())

	user := fmt.Sprintf(`%sAnalyze these expenses and suggest cost optimization opportunities:

Current Expenses:
%s

Industry Benchmarks:
%s

Provide 5 specific cost optimization suggestions in JSON format:
[
  {
    "category": "expense category",
    "suggestion": "specific recommendation",
    "potential_impact": "expected savings or benefit",
    "priority": "high/medium/low"
  }
]

Return ONLY valid JSON array, no other text.`, input.Language.instruction(), expenses, benchmarks)

	text, exchange, err := s.complete(ctx, system, user)
	if err != nil {
		return nil, exchange, err
	}

	var suggestions []CostSuggestion
	if err := parseJSONArray(text, &suggestions); err != nil || len(suggestions) == 0 {
		return []CostSuggestion{{
			Category:        costFallbackCat,
			Suggestion:      truncateRunes(stripCodeFence(text), costFallbackSnippet),
			PotentialImpact: costFallbackImpact,
			Priority:        costFallbackPrio,
		}}, exchange, nil
	}

	return suggestions, exchange, nil
}

// ProductRecommendations подбирает 3-5 кредитных и страховых продуктов. Неразбираемый ответ
// дает пустой список.
func (s *Service) ProductRecommendations(ctx context.Context, input ProductInput) ([]ProductRecommendation, Exchange, error) {
	revenue := 0.0
	if input.Company.AnnualRevenue != nil {
		revenue = *input.Company.AnnualRevenue
	}

	needs := "general working capital"
	if len(input.FinancialNeeds) > 0 {
		needs = strings.Join(input.FinancialNeeds, ", ")
	}

	system := fmt.Sprintf(`You are a financial products advisor for SMEs in India.
Recommend appropriate banking and NBFC products based on company profile and needs.
Output language: %s`, input.Language.Name())

	user := fmt.Sprintf(`%sCompany Profile:
- Industry: %s
- Annual Revenue: ₹%.0f
- Credit Score: %d/900
- Financial Needs: %s

Recommend 3-5 suitable financial products (loans, credit lines, insurance, etc.) in JSON format:
[
  {
    "product_type": "type (loan/credit_line/insurance)",
    "product_name": "specific product name",
    "provider": "bank or NBFC name",
    "key_features": ["feature1", "feature2"],
    "eligibility": "brief eligibility criteria",
    "why_suitable": "explanation of suitability"
  }
]

Return ONLY valid JSON array.`, input.Language.instruction(), input.Company.Industry, revenue, input.CreditScore, needs)

	text, exchange, err := s.complete(ctx, system, user)
	if err != nil {
		return nil, exchange, err
	}

	products := make([]ProductRecommendation, 0)
	if err := parseJSONArray(text, &products); err != nil {
		return []ProductRecommendation{}, exchange, nil
	}

	return products, exchange, nil
}

// InvestorReport готовит инвестиционный профиль в markdown и его HTML-версию.
func (s *Service) InvestorReport(ctx context.Context, input InvestorReportInput) (InvestorReport, Exchange, error) {
	summary, err := json.MarshalIndent(input.Summary, "", "  ")
	if err != nil {
		return InvestorReport{}, Exchange{}, err
	}

	revenue := 0.0
	if input.Company.AnnualRevenue != nil {
		revenue = *input.Company.AnnualRevenue
	}

	system := fmt.Sprintf(`You are a senior investment analyst. Generate a professional, investor-ready financial report for an SME.
The report should be structured, data-driven, and highlight potential for scale while being transparent about risks.
Output language: %s`, input.Language.Name())

	user := fmt.Sprintf(`%sGenerate an investment profile for %s.

Business Context:
- Industry: %s
- Annual Revenue: ₹%.0f

Financial Performance Summary:
%s

Health Assessment:
- Score: %d/%d
- Grade: %s

Please structure the report in markdown with the following sections:
1. Executive Summary
2. Business Overview & Market Position
3. Financial Performance Analysis
4. Risk Assessment & Mitigation
5. Growth Trajectory & Opportunity
6. Investment Recommendation

Use professional financial terminology and keep it rigorous yet accessible.`,
		input.Language.instruction(), input.Company.Name, input.Company.Industry, revenue, summary,
		input.HealthScore.TotalScore, input.HealthScore.MaxScore, input.HealthScore.Grade)

	text, exchange, err := s.complete(ctx, system, user)
	if err != nil {
		return InvestorReport{}, exchange, err
	}

	markdown := CleanMarkdown(text)
	html, err := RenderMarkdown(markdown)
	if err != nil {
		return InvestorReport{}, exchange, err
	}

	return InvestorReport{Markdown: markdown, HTML: html}, exchange, nil
}

// Translate переводит текст на указанный язык; английский возвращается без обращения к модели.
func (s *Service) Translate(ctx context.Context, content string, target Language) (string, error) {
	if target == LanguageEnglish || strings.TrimSpace(content) == "" {
		return content, nil
	}

	system := fmt.Sprintf("You are a professional translator. Translate financial and business content to %s accurately.", target.Name())
	return s.Generate(ctx, system, fmt.Sprintf("Translate the following to %s:\n\n%s", target.Name(), content))
}
