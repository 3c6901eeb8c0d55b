package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"clausecheck-backend/analysis"
	"clausecheck-backend/catalog"
	"clausecheck-backend/config"
	"clausecheck-backend/extract"
	"clausecheck-backend/llm"
	"clausecheck-backend/models"

	"github.com/fatih/color"
	"github.com/google/generative-ai-go/genai"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "contractctl",
		Short: "Contract clause compliance analyzer",
		Long: `contractctl checks contracts against regulatory requirement checklists.

It extracts the contract text, splits it into clauses, classifies each clause,
judges every requirement of the selected regulations and scores the risk.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var regulationsFile string
	rootCmd.PersistentFlags().StringVar(&regulationsFile, "regulations-file", "", "YAML regulation catalog (default: built-in)")

	rootCmd.AddCommand(regulationsCmd(&regulationsFile))
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(analyzeCmd(&regulationsFile))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		stop()
		os.Exit(1)
	}
}

func regulationsCmd(regulationsFile *string) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "regulations",
		Short: "List the supported regulations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(*regulationsFile)
			if err != nil {
				return err
			}
			for _, reg := range cat.Regulations() {
				fmt.Printf("%s  %s (%d requirements)\n", color.CyanString("%-8s", reg.Code), reg.Name, len(reg.Requirements))
				if !verbose {
					continue
				}
				for _, req := range reg.Requirements {
					fmt.Printf("    %s %s\n        %s\n", severityColor(req.Severity)("[%s]", req.Severity.Title()), req.ID, req.Description)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list every requirement")
	return cmd
}

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the normalized text of a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readContract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			normalized, err := analysis.Normalize(text, 1)
			if err != nil {
				return err
			}
			fmt.Println(normalized)
			return nil
		},
	}
}

func analyzeCmd(regulationsFile *string) *cobra.Command {
	var (
		regulations []string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a contract against regulations",
		Long: `Analyze a contract (PDF, DOCX or TXT) against one or more regulations.

Example:
  contractctl analyze dpa.pdf -r GDPR -r CCPA
  contractctl analyze msa.docx -r hipaa,sox --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if *regulationsFile == "" {
				*regulationsFile = cfg.RegulationsFile
			}
			cat, err := catalog.Load(*regulationsFile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
			if err != nil {
				return fmt.Errorf("failed to create Gemini client: %w", err)
			}
			defer client.Close()

			analyzer := analysis.NewAnalyzer(
				llm.NewGeminiService(client,
					llm.GeminiWithModel(cfg.GeminiModel),
					llm.GeminiWithRateLimit(cfg.GeminiRPS, int(cfg.GeminiRPS)+1),
				),
				cat,
				analysis.WithMaxConcurrency(cfg.MaxConcurrency),
				analysis.WithCallTimeout(cfg.CallTimeout),
				analysis.WithMinClauseCount(cfg.MinClauseCount),
				analysis.WithKeyIssueLimit(cfg.KeyIssueLimit),
			)
			if _, err := analyzer.ResolveRegulations(regulations); err != nil {
				return err
			}

			text, err := readContract(ctx, args[0])
			if err != nil {
				return err
			}
			report, err := analyzer.Analyze(ctx, analysis.Input{
				FileName:    filepath.Base(args[0]),
				Text:        text,
				Regulations: regulations,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(report)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&regulations, "regulation", "r", nil, "regulation code (repeatable or comma-separated)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	cmd.MarkFlagRequired("regulation")
	return cmd
}

func readContract(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return extract.NewDocumentExtractor().Extract(ctx, filepath.Base(path), data)
}

func printReport(report *models.AnalysisReport) {
	summary := report.Summary
	bold := color.New(color.Bold)

	bold.Printf("\n%s\n", report.Document.FileName)
	fmt.Printf("  Clauses: %d   Analyzed: %s\n", summary.TotalClauses, report.AnalysisTimestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  Risk:    %s\n", riskColor(summary.RiskAssessment.Category)("%.1f (%s)", summary.RiskAssessment.Score, summary.RiskAssessment.Category))

	bold.Println("\nCompliance")
	for _, code := range report.Regulations {
		m := summary.ComplianceMetrics[code]
		fmt.Printf("  %-8s %s satisfied, %s partial, %s missing  (%.0f%%)\n", code,
			color.GreenString("%d", m.Satisfied),
			color.YellowString("%d", m.Partial),
			color.RedString("%d", m.Missing),
			m.SatisfiedFraction*100)
	}

	bold.Println("\nClause categories")
	categories := make([]string, 0, len(summary.CategoryDistribution))
	for category := range summary.CategoryDistribution {
		categories = append(categories, string(category))
	}
	sort.Strings(categories)
	for _, category := range categories {
		fmt.Printf("  %-22s %d\n", category, summary.CategoryDistribution[models.ClauseCategory(category)])
	}

	if len(summary.KeyIssues) > 0 {
		bold.Println("\nKey issues")
		for i, issue := range summary.KeyIssues {
			fmt.Printf("  %d. %s\n", i+1, issue)
		}
		bold.Println("\nRecommendations")
		for _, rec := range summary.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	}

	if len(summary.DegradedSections) > 0 {
		color.Yellow("\nDegraded (service failures): %s", strings.Join(summary.DegradedSections, "; "))
	}
	fmt.Println()
}

func severityColor(s models.Severity) func(format string, a ...interface{}) string {
	switch s {
	case models.SeverityCritical:
		return color.New(color.FgRed, color.Bold).SprintfFunc()
	case models.SeverityHigh:
		return color.RedString
	case models.SeverityMedium:
		return color.YellowString
	default:
		return color.WhiteString
	}
}

func riskColor(level models.RiskLevel) func(format string, a ...interface{}) string {
	switch level {
	case models.RiskHigh:
		return color.RedString
	case models.RiskMedium:
		return color.YellowString
	default:
		return color.GreenString
	}
}
