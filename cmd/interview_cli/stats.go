package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"preview-api/internal/config"
	"preview-api/internal/domain"
	"preview-api/internal/service"
)

func newStatsCmd() *cobra.Command {
	var (
		period string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print member statistics (use --store postgres for persisted history)",
		RunE: func(cmd *cobra.Command, args []string) error {
			trend, err := service.ParseTrendPeriod(period)
			if err != nil {
				return err
			}
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger := zap.NewExample()
			defer logger.Sync()

			a, err := newApp(cmd.Context(), cfg, viper.GetString("store"), logger)
			if err != nil {
				return err
			}
			defer a.Close()

			member := viper.GetString("member-id")
			out := cmd.OutOrStdout()
			if err := printStats(cmd.Context(), a, member, trend, out, viper.GetBool("json")); err != nil {
				return err
			}
			return printRecent(cmd.Context(), a, member, limit, out, viper.GetBool("json"))
		},
	}
	cmd.Flags().StringVar(&period, "period", string(domain.TrendMonthly), "trend period: weekly | monthly")
	cmd.Flags().IntVar(&limit, "limit", service.DefaultRecentLimit, "recent interviews to show")
	return cmd
}

type statsReport struct {
	Dashboard domain.Dashboard          `json:"dashboard"`
	Phases    []domain.PhasePerformance `json:"phases"`
	Trend     []domain.TrendPoint       `json:"trend"`
}

func printStats(ctx context.Context, a *app, memberID string, period domain.TrendPeriod, out io.Writer, asJSON bool) error {
	var (
		report statsReport
		err    error
	)
	if report.Dashboard, err = a.stats.Dashboard(ctx, memberID); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	if report.Phases, err = a.stats.PhasePerformance(ctx, memberID); err != nil {
		return fmt.Errorf("phase performance: %w", err)
	}
	if report.Trend, err = a.stats.ScoreTrend(ctx, memberID, period); err != nil {
		return fmt.Errorf("score trend: %w", err)
	}
	if asJSON {
		return printJSON(out, report)
	}

	d := report.Dashboard
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetTitle("Dashboard")
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"Total interviews", d.TotalInterviews},
		{"Completed", d.CompletedInterviews},
		{"In progress", d.InProgressInterviews},
		{"Average score", formatScore(d.AverageScore)},
		{"Technical average", formatScore(d.TechnicalAverageScore)},
		{"Personality average", formatScore(d.PersonalityAverageScore)},
	})
	tw.Render()

	pw := table.NewWriter()
	pw.SetOutputMirror(out)
	pw.SetTitle("Phases")
	pw.AppendHeader(table.Row{"Phase", "Average", "Answers"})
	for _, p := range report.Phases {
		pw.AppendRow(table.Row{p.Phase, fmt.Sprintf("%.1f", p.AverageScore), p.AnswerCount})
	}
	pw.Render()

	trw := table.NewWriter()
	trw.SetOutputMirror(out)
	trw.SetTitle("Trend (" + string(period) + ")")
	trw.AppendHeader(table.Row{"Period", "Average", "Interviews"})
	for _, p := range report.Trend {
		trw.AppendRow(table.Row{p.Label, formatScore(p.AverageScore), p.InterviewCount})
	}
	trw.Render()
	return nil
}

func printRecent(ctx context.Context, a *app, memberID string, limit int, out io.Writer, asJSON bool) error {
	recent, err := a.stats.Recent(ctx, memberID, limit)
	if err != nil {
		return fmt.Errorf("recent interviews: %w", err)
	}
	if asJSON {
		return printJSON(out, recent)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetTitle("Recent interviews")
	tw.AppendHeader(table.Row{"ID", "Title", "Type", "Status", "Average", "Created"})
	for _, r := range recent {
		tw.AppendRow(table.Row{r.ID, r.Title, r.Type, r.Status, formatScore(r.AverageScore), r.CreatedAt.Format("2006-01-02 15:04")})
	}
	tw.Render()
	return nil
}

func formatScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
