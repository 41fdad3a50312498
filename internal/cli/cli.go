package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"example.com/sme-finhealth/backend/internal/analysis"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"

	defaultWindowMonths = 6
)

type options struct {
	sources sources
	now     string
	window  int
	output  string
}

// NewRootCommand собирает CLI оценки финансового здоровья без базы и HTTP.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "assess",
		Short:         "Score SME financial health from statements and transactions",
		Long:          `Runs the ratio, cash flow, credit and health scoring pipeline on a YAML/JSON document or CSV exports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.sources.input, "input", "i", "", "Assessment document in YAML or JSON (- for stdin)")
	flags.StringVar(&opts.sources.balanceSheet, "balance-sheet", "", "Balance sheet CSV (item,amount)")
	flags.StringVar(&opts.sources.profitLoss, "profit-loss", "", "Profit and loss CSV (item,amount)")
	flags.StringVar(&opts.sources.transactions, "transactions", "", "Bank statement CSV")
	flags.StringVar(&opts.now, "now", "", "Evaluation date YYYY-MM-DD (default today)")
	flags.IntVar(&opts.window, "window", defaultWindowMonths, "Cash flow window in months")
	flags.StringVarP(&opts.output, "output", "o", outputJSON, "Output format: json or yaml")

	root.AddCommand(
		newStageCommand(opts, "run", "Run the full assessment", runAssessment),
		newStageCommand(opts, "ratios", "Compute financial ratios", runRatios),
		newStageCommand(opts, "cash-flow", "Analyze cash flow over the window", runCashFlow),
		newStageCommand(opts, "credit", "Compute the 300-900 credit score", runCredit),
		newStageCommand(opts, "health", "Compute the 0-100 health score", runHealth),
	)

	return root
}

type stageFunc func(input analysis.AssessmentInput, now time.Time) (any, error)

func newStageCommand(opts *options, use, short string, stage stageFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutput(opts.output)
			if err != nil {
				return err
			}

			now, err := parseNow(opts.now)
			if err != nil {
				return err
			}

			input, err := loadInput(opts.sources, cmd.InOrStdin(), opts.window)
			if err != nil {
				return err
			}

			slog.Debug("assessment input loaded",
				slog.String("stage", use),
				slog.Int("transactions", len(input.Transactions)),
				slog.Int("window_months", input.WindowMonths),
				slog.Bool("company", input.Company != nil),
			)

			result, err := stage(input, now)
			if err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}

			return writeResult(cmd.OutOrStdout(), format, result)
		},
	}
}

func runAssessment(input analysis.AssessmentInput, now time.Time) (any, error) {
	return analysis.Assess(input, now)
}

func runRatios(input analysis.AssessmentInput, _ time.Time) (any, error) {
	return analysis.ComputeRatios(input.BalanceSheet, input.ProfitLoss), nil
}

func runCashFlow(input analysis.AssessmentInput, now time.Time) (any, error) {
	return analysis.AnalyzeCashFlow(input.Transactions, input.WindowMonths, now)
}

func runCredit(input analysis.AssessmentInput, now time.Time) (any, error) {
	ratios := analysis.ComputeRatios(input.BalanceSheet, input.ProfitLoss)
	return analysis.ComputeCreditScore(input.Company, ratios, input.Transactions, now)
}

func runHealth(input analysis.AssessmentInput, now time.Time) (any, error) {
	assessment, err := analysis.Assess(input, now)
	if err != nil {
		return nil, err
	}
	return assessment.HealthScore, nil
}

func parseOutput(raw string) (string, error) {
	switch format := strings.ToLower(strings.TrimSpace(raw)); format {
	case outputJSON, outputYAML:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output %q: use json or yaml", raw)
	}
}

func parseNow(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Now().UTC(), nil
	}

	now, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: expected YYYY-MM-DD", raw)
	}
	return now, nil
}

// writeResult печатает результат; YAML строится из JSON-представления, чтобы ключи совпадали с API.
func writeResult(w io.Writer, format string, result any) error {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	if format == outputJSON {
		_, err = fmt.Fprintf(w, "%s\n", payload)
		return err
	}

	var generic any
	if err := json.Unmarshal(payload, &generic); err != nil {
		return err
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(generic); err != nil {
		return err
	}
	return encoder.Close()
}
