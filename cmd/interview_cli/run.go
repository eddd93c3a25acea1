package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"preview-api/internal/config"
	"preview-api/internal/domain"
	"preview-api/internal/service"
)

const quitCommand = "/salir"

var errSessionAborted = errors.New("session aborted")

func newRunCmd() *cobra.Command {
	var (
		title      string
		kind       string
		position   string
		level      string
		stacks     []string
		resumePath string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play a mock interview in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			input := service.CreateInterviewInput{
				MemberID:   viper.GetString("member-id"),
				Title:      title,
				Type:       kind,
				Position:   position,
				Level:      level,
				TechStacks: stacks,
			}
			if resumePath != "" {
				data, err := os.ReadFile(resumePath)
				if err != nil {
					return fmt.Errorf("read resume: %w", err)
				}
				input.ResumeText = string(data)
			}

			out := cmd.OutOrStdout()
			interview, err := playSession(cmd.Context(), a, input, cmd.InOrStdin(), out)
			if errors.Is(err, errSessionAborted) {
				fmt.Fprintln(out, "Entrevista interrumpida. Puedes retomarla desde la API.")
				return nil
			}
			if err != nil {
				return err
			}
			if err := printResult(cmd.Context(), a, interview, out); err != nil {
				return err
			}
			return printStats(cmd.Context(), a, interview.MemberID, domain.TrendMonthly, out, viper.GetBool("json"))
		},
	}
	cmd.Flags().StringVar(&title, "title", "CLI mock interview", "interview title")
	cmd.Flags().StringVar(&kind, "type", string(domain.InterviewTypeFull), "FULL | TECHNICAL | PERSONALITY")
	cmd.Flags().StringVar(&position, "position", string(domain.PositionBackend), "candidate position")
	cmd.Flags().StringVar(&level, "level", string(domain.LevelJunior), "NEWCOMER | JUNIOR | MID | SENIOR")
	cmd.Flags().StringSliceVar(&stacks, "stack", nil, "tech stack (repeatable)")
	cmd.Flags().StringVar(&resumePath, "resume", "", "path to a plain-text resume")
	return cmd
}

// playSession crea la entrevista y la responde linea a linea hasta completarla.
// Una linea vacia se ignora; quitCommand corta la sesion.
func playSession(ctx context.Context, a *app, input service.CreateInterviewInput, in io.Reader, out io.Writer) (domain.Interview, error) {
	interview, question, err := a.interviews.Create(ctx, input)
	if err != nil {
		return domain.Interview{}, fmt.Errorf("create interview: %w", err)
	}
	fmt.Fprintf(out, "===== %s (%s) =====\n", interview.Title, interview.Type)
	fmt.Fprintf(out, "Escribe tu respuesta y pulsa Enter. %s para terminar.\n", quitCommand)

	reader := bufio.NewReader(in)
	current := &question
	for current != nil {
		printQuestion(out, *current)
		answer, err := readAnswer(reader, out)
		if err != nil {
			return interview, err
		}

		res, err := a.submissions.SubmitAnswer(ctx, input.MemberID, interview.ID, current.ID, answer)
		if err != nil {
			return interview, fmt.Errorf("submit answer: %w", err)
		}
		fmt.Fprintf(out, "  puntaje %d/10 | %s\n", res.Answer.Score, res.Answer.Feedback)
		if res.Answer.ImprovementSuggestion != "" {
			fmt.Fprintf(out, "  sugerencia: %s\n", res.Answer.ImprovementSuggestion)
		}
		interview.Status = res.Status
		interview.CurrentPhase = res.CurrentPhase
		current = res.NextQuestion
	}
	fmt.Fprintln(out, "Entrevista completada.")
	return interview, nil
}

func printQuestion(out io.Writer, q domain.Question) {
	marker := ""
	if q.IsFollowUp {
		marker = " (follow-up)"
	}
	fmt.Fprintf(out, "\n[%d] %s%s\n%s\n", q.Sequence, q.Phase, marker, q.Content)
}

func readAnswer(reader *bufio.Reader, out io.Writer) (string, error) {
	for {
		fmt.Fprint(out, "Tu > ")
		line, err := reader.ReadString('\n')
		text := strings.TrimSpace(line)
		if strings.EqualFold(text, quitCommand) {
			return "", errSessionAborted
		}
		if text != "" {
			return text, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", errSessionAborted
			}
			return "", fmt.Errorf("leer input: %w", err)
		}
	}
}

func printResult(ctx context.Context, a *app, interview domain.Interview, out io.Writer) error {
	res, err := a.interviews.Result(ctx, interview.MemberID, interview.ID)
	if err != nil {
		return fmt.Errorf("interview result: %w", err)
	}
	fmt.Fprintln(out, "\n===== Reporte =====")
	fmt.Fprintln(out, res.Report.Summary)
	for _, s := range res.Report.Strengths {
		fmt.Fprintf(out, "  + %s\n", s)
	}
	for _, s := range res.Report.Improvements {
		fmt.Fprintf(out, "  - %s\n", s)
	}
	if len(res.Report.RecommendedTopics) > 0 {
		fmt.Fprintf(out, "Temas recomendados: %s\n", strings.Join(res.Report.RecommendedTopics, ", "))
	}
	return nil
}
