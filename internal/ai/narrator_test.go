package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/sme-finhealth/backend/internal/analysis"
)

type fakeClient struct {
	reply    string
	err      error
	messages []Message
}

func (f *fakeClient) Chat(_ context.Context, messages []Message) (string, []byte, error) {
	f.messages = messages
	if f.err != nil {
		return "", []byte(`{"error":"boom"}`), f.err
	}
	return f.reply, []byte(`{"ok":true}`), nil
}

// TestGenerateSendsSystemAndUser проверяет контракт Generate.
func TestGenerateSendsSystemAndUser(t *testing.T) {
	client := &fakeClient{reply: "  hello  "}
	service := NewService(client)

	text, err := service.Generate(context.Background(), "sys", "usr")
	require.NoError(t, err)

	assert.Equal(t, "hello", text)
	assert.Equal(t, []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "usr"}}, client.messages)
}

// TestGenerateWithoutClient проверяет ошибку при отсутствии провайдера.
func TestGenerateWithoutClient(t *testing.T) {
	_, err := NewService(nil).Generate(context.Background(), "sys", "usr")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

// TestFinancialInsightsHindiPrompt проверяет языковую инструкцию и данные в подсказке.
func TestFinancialInsightsHindiPrompt(t *testing.T) {
	client := &fakeClient{reply: "insights"}
	service := NewService(client)

	text, exchange, err := service.FinancialInsights(context.Background(), InsightsInput{
		Company:  CompanyProfile{Name: "Acme Traders", Industry: "retail"},
		Ratios:   analysis.RatioSet{Liquidity: analysis.LiquidityRatios{CurrentRatio: 2}},
		Language: LanguageHindi,
	})
	require.NoError(t, err)

	assert.Equal(t, "insights", text)
	assert.Equal(t, []byte(`{"ok":true}`), exchange.Raw)
	assert.True(t, strings.HasPrefix(exchange.Prompt, "Respond in Hindi (Devanagari script)."))
	assert.Contains(t, exchange.Prompt, "Acme Traders in the retail industry")
	assert.Contains(t, exchange.Prompt, `"current_ratio": 2`)
	assert.Contains(t, exchange.Prompt, "No transaction data available")
	assert.Contains(t, client.messages[0].Content, "Output language: Hindi")
}

// TestFinancialInsightsPropagatesErrors проверяет проброс ошибки провайдера вместе с сырым ответом.
func TestFinancialInsightsPropagatesErrors(t *testing.T) {
	service := NewService(&fakeClient{err: errors.New("quota exceeded")})

	_, exchange, err := service.FinancialInsights(context.Background(), InsightsInput{})
	require.Error(t, err)
	assert.Equal(t, []byte(`{"error":"boom"}`), exchange.Raw)
	assert.Contains(t, exchange.Prompt, "the company")
}

// TestCostOptimizationParsesFencedJSON проверяет разбор массива внутри блока ```json.
func TestCostOptimizationParsesFencedJSON(t *testing.T) {
	reply := "Here you go:\n```json\n[{\"category\": \"Rent\", \"suggestion\": \"Renegotiate lease\", \"potential_impact\": \"5%\", \"priority\": \"high\"}]\n```"
	service := NewService(&fakeClient{reply: reply})

	suggestions, _, err := service.CostOptimization(context.Background(), CostOptimizationInput{
		Expenses: map[string]float64{"rent": 120000},
	})
	require.NoError(t, err)

	assert.Equal(t, []CostSuggestion{{
		Category:        "Rent",
		Suggestion:      "Renegotiate lease",
		PotentialImpact: "5%",
		Priority:        "high",
	}}, suggestions)
}

// TestCostOptimizationRepairsTrailingComma проверяет починку слегка испорченного JSON.
func TestCostOptimizationRepairsTrailingComma(t *testing.T) {
	reply := `[{"category": "Payroll", "suggestion": "Automate invoicing", "potential_impact": "2 hours a week", "priority": "medium",}]`
	service := NewService(&fakeClient{reply: reply})

	suggestions, _, err := service.CostOptimization(context.Background(), CostOptimizationInput{})
	require.NoError(t, err)

	require.Len(t, suggestions, 1)
	assert.Equal(t, "Payroll", suggestions[0].Category)
}

// TestCostOptimizationFallback проверяет единственное предложение General для прозы.
func TestCostOptimizationFallback(t *testing.T) {
	reply := strings.Repeat("Reduce discretionary spending. ", 20)
	service := NewService(&fakeClient{reply: reply})

	suggestions, _, err := service.CostOptimization(context.Background(), CostOptimizationInput{})
	require.NoError(t, err)

	require.Len(t, suggestions, 1)
	assert.Equal(t, "General", suggestions[0].Category)
	assert.Equal(t, "To be determined", suggestions[0].PotentialImpact)
	assert.Equal(t, "medium", suggestions[0].Priority)
	assert.Len(t, []rune(suggestions[0].Suggestion), 200)
}

// TestProductRecommendationsEmptyOnGarbage проверяет пустой список при неразбираемом ответе.
func TestProductRecommendationsEmptyOnGarbage(t *testing.T) {
	service := NewService(&fakeClient{reply: "I cannot recommend products right now."})

	products, _, err := service.ProductRecommendations(context.Background(), ProductInput{CreditScore: 720})
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

// TestProductRecommendationsParsed проверяет разбор рекомендаций и данные подсказки.
func TestProductRecommendationsParsed(t *testing.T) {
	reply := `[{"product_type":"loan","product_name":"MSME Term Loan","provider":"SBI","key_features":["low rate"],"eligibility":"2 years","why_suitable":"growth"}]`
	revenue := 2_500_000.0
	service := NewService(&fakeClient{reply: reply})

	products, exchange, err := service.ProductRecommendations(context.Background(), ProductInput{
		Company:        CompanyProfile{Industry: "manufacturing", AnnualRevenue: &revenue},
		CreditScore:    720,
		FinancialNeeds: []string{"working capital", "equipment"},
	})
	require.NoError(t, err)

	require.Len(t, products, 1)
	assert.Equal(t, []string{"low rate"}, products[0].KeyFeatures)
	assert.Contains(t, exchange.Prompt, "Credit Score: 720/900")
	assert.Contains(t, exchange.Prompt, "₹2500000")
	assert.Contains(t, exchange.Prompt, "working capital, equipment")
}

// TestInvestorReportRendersHTML проверяет markdown и HTML отчета.
func TestInvestorReportRendersHTML(t *testing.T) {
	reply := "```markdown\n# Executive Summary\n\nStrong **margins**.\n```"
	service := NewService(&fakeClient{reply: reply})

	report, _, err := service.InvestorReport(context.Background(), InvestorReportInput{
		Company:     CompanyProfile{Name: "Acme"},
		HealthScore: analysis.HealthScoreResult{TotalScore: 82, Grade: "A", MaxScore: 100},
	})
	require.NoError(t, err)

	assert.Equal(t, "# Executive Summary\n\nStrong **margins**.", report.Markdown)
	assert.Contains(t, report.HTML, "<h1")
	assert.Contains(t, report.HTML, "<strong>margins</strong>")
}

// TestTranslateEnglishIsNoop проверяет, что перевод на английский не вызывает модель.
func TestTranslateEnglishIsNoop(t *testing.T) {
	client := &fakeClient{reply: "translated"}
	service := NewService(client)

	text, err := service.Translate(context.Background(), "Healthy", LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, "Healthy", text)
	assert.Nil(t, client.messages)

	text, err = service.Translate(context.Background(), "Healthy", LanguageHindi)
	require.NoError(t, err)
	assert.Equal(t, "translated", text)
}

// TestParseLanguage проверяет допустимые языки.
func TestParseLanguage(t *testing.T) {
	lang, err := ParseLanguage("")
	require.NoError(t, err)
	assert.Equal(t, LanguageEnglish, lang)

	lang, err = ParseLanguage(" HI ")
	require.NoError(t, err)
	assert.Equal(t, LanguageHindi, lang)

	_, err = ParseLanguage("fr")
	assert.Error(t, err)
}

// TestSplitSystem проверяет разделение системных сообщений и диалога.
func TestSplitSystem(t *testing.T) {
	system, dialog := splitSystem([]Message{
		{Role: "system", Content: "a"},
		{Role: "SYSTEM", Content: "b"},
		{Role: "model", Content: "prev"},
		{Role: "user", Content: "  "},
		{Role: "", Content: "question"},
	})

	assert.Equal(t, "a\n\nb", system)
	assert.Equal(t, []Message{{Role: RoleAssistant, Content: "prev"}, {Role: RoleUser, Content: "question"}}, dialog)
}

// TestProvidersRequireAPIKey проверяет отказ провайдеров без ключа.
func TestProvidersRequireAPIKey(t *testing.T) {
	messages := []Message{{Role: RoleUser, Content: "hi"}}
	gemini, err := NewGeminiClient(context.Background(), "", "gemini-2.0-flash", 0, 0)
	require.NoError(t, err)

	clients := map[string]Client{
		"groq":   NewGroqClient("", "https://example.invalid", "model", 0, 0),
		"claude": NewClaudeClient("", "model", 0, 0),
		"gemini": gemini,
	}

	for name, client := range clients {
		_, _, err := client.Chat(context.Background(), messages)
		assert.ErrorIs(t, err, ErrMissingAPIKey, name)
	}
}
