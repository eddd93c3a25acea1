package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"preview-api/internal/domain"
	"preview-api/internal/repository"
)

const (
	DefaultRecentLimit = 5
	MaxRecentLimit     = 50

	monthlyTrendWindow = 6
	weeklyTrendWindow  = 12
)

var ErrUnknownTrendPeriod = fmt.Errorf("unknown trend period: %w", domain.ErrValidationFailed)

// StatisticsService agrega entrevistas y respuestas de un miembro. Solo lectura.
type StatisticsService struct {
	interviews repository.InterviewRepository
	answers    repository.AnswerRepository
	cache      DashboardCache
	logger     *zap.Logger
	now        func() time.Time
}

func NewStatisticsService(interviews repository.InterviewRepository, answers repository.AnswerRepository, cache DashboardCache, logger *zap.Logger) *StatisticsService {
	return &StatisticsService{
		interviews: interviews,
		answers:    answers,
		cache:      cache,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type memberSnapshot struct {
	interviews []domain.Interview
	scored     []domain.ScoredAnswer
}

// snapshot lee entrevistas y respuestas puntuadas en paralelo.
func (s *StatisticsService) snapshot(ctx context.Context, memberID string) (memberSnapshot, error) {
	var snap memberSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.interviews.ListByMember(gctx, memberID)
		if err != nil {
			return fmt.Errorf("list interviews: %w", err)
		}
		snap.interviews = list
		return nil
	})
	g.Go(func() error {
		scored, err := s.answers.ListScoredByMember(gctx, memberID)
		if err != nil {
			return fmt.Errorf("list scored answers: %w", err)
		}
		snap.scored = scored
		return nil
	})
	if err := g.Wait(); err != nil {
		return memberSnapshot{}, err
	}
	return snap, nil
}

func (s *StatisticsService) Dashboard(ctx context.Context, memberID string) (domain.Dashboard, error) {
	var (
		gen      int64
		storable bool
	)
	if s.cache != nil {
		if d, ok := s.cache.Get(ctx, memberID); ok {
			return d, nil
		}
		// la generacion se lee antes del snapshot
		gen, storable = s.cache.Generation(ctx, memberID)
	}

	snap, err := s.snapshot(ctx, memberID)
	if err != nil {
		return domain.Dashboard{}, err
	}

	d := domain.Dashboard{TotalInterviews: len(snap.interviews)}
	for _, i := range snap.interviews {
		switch i.Status {
		case domain.InterviewStatusCompleted:
			d.CompletedInterviews++
		case domain.InterviewStatusInProgress:
			d.InProgressInterviews++
		}
	}

	var all, technical, personality scoreAcc
	for _, a := range snap.scored {
		all.add(float64(a.Score))
		switch a.Phase {
		case domain.PhaseTechnical:
			technical.add(float64(a.Score))
		case domain.PhasePersonality:
			personality.add(float64(a.Score))
		}
	}
	d.AverageScore = all.avg()
	d.TechnicalAverageScore = technical.avg()
	d.PersonalityAverageScore = personality.avg()

	if storable {
		s.cache.Set(ctx, memberID, gen, d)
	}
	return d, nil
}

// PhasePerformance devuelve, en orden canonico, las fases con al menos una respuesta puntuada.
func (s *StatisticsService) PhasePerformance(ctx context.Context, memberID string) ([]domain.PhasePerformance, error) {
	scored, err := s.answers.ListScoredByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("list scored answers: %w", err)
	}

	byPhase := make(map[domain.Phase]*scoreAcc)
	for _, a := range scored {
		acc, ok := byPhase[a.Phase]
		if !ok {
			acc = &scoreAcc{}
			byPhase[a.Phase] = acc
		}
		acc.add(float64(a.Score))
	}

	out := make([]domain.PhasePerformance, 0, len(byPhase))
	for _, phase := range domain.AllPhases() {
		acc, ok := byPhase[phase]
		if !ok || acc.n == 0 {
			continue
		}
		out = append(out, domain.PhasePerformance{
			Phase:        phase,
			AverageScore: *acc.avg(),
			AnswerCount:  acc.n,
		})
	}
	return out, nil
}

func ParseTrendPeriod(raw string) (domain.TrendPeriod, error) {
	switch p := domain.TrendPeriod(strings.ToLower(strings.TrimSpace(raw))); p {
	case domain.TrendMonthly, domain.TrendWeekly:
		return p, nil
	case "":
		return domain.TrendMonthly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTrendPeriod, raw)
	}
}

// ScoreTrend agrupa entrevistas completadas por mes o por semana (lunes).
// El promedio de cada bucket es el promedio de los promedios por entrevista.
func (s *StatisticsService) ScoreTrend(ctx context.Context, memberID string, period domain.TrendPeriod) ([]domain.TrendPoint, error) {
	var (
		since  time.Time
		bucket func(time.Time) (time.Time, string)
	)
	now := s.now()
	switch period {
	case domain.TrendMonthly:
		since = now.AddDate(0, -monthlyTrendWindow, 0)
		bucket = monthBucket
	case domain.TrendWeekly:
		since = now.AddDate(0, 0, -7*weeklyTrendWindow)
		bucket = weekBucket
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTrendPeriod, period)
	}

	snap, err := s.snapshot(ctx, memberID)
	if err != nil {
		return nil, err
	}
	perInterview := interviewAverages(snap.scored)

	type group struct {
		label string
		count int
		acc   scoreAcc
	}
	groups := make(map[time.Time]*group)
	for _, i := range snap.interviews {
		if i.Status != domain.InterviewStatusCompleted || i.CreatedAt.Before(since) {
			continue
		}
		key, label := bucket(i.CreatedAt.UTC())
		g, ok := groups[key]
		if !ok {
			g = &group{label: label}
			groups[key] = g
		}
		g.count++
		if avg, ok := perInterview[i.ID]; ok {
			g.acc.add(avg)
		}
	}

	out := make([]domain.TrendPoint, 0, len(groups))
	for key, g := range groups {
		out = append(out, domain.TrendPoint{
			Date:           key,
			Label:          g.label,
			AverageScore:   g.acc.avg(),
			InterviewCount: g.count,
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Date.Before(out[b].Date) })
	return out, nil
}

// Recent devuelve las limit entrevistas mas recientes; limit 0 usa el valor por defecto.
func (s *StatisticsService) Recent(ctx context.Context, memberID string, limit int) ([]domain.RecentInterview, error) {
	if limit == 0 {
		limit = DefaultRecentLimit
	}
	if limit < 1 || limit > MaxRecentLimit {
		return nil, fmt.Errorf("limit %d out of range [1,%d]: %w", limit, MaxRecentLimit, domain.ErrValidationFailed)
	}

	snap, err := s.snapshot(ctx, memberID)
	if err != nil {
		return nil, err
	}
	perInterview := interviewAverages(snap.scored)

	list := append([]domain.Interview(nil), snap.interviews...)
	sort.SliceStable(list, func(a, b int) bool { return list[a].CreatedAt.After(list[b].CreatedAt) })
	if len(list) > limit {
		list = list[:limit]
	}

	out := make([]domain.RecentInterview, 0, len(list))
	for _, i := range list {
		r := domain.RecentInterview{
			ID:        i.ID,
			Title:     i.Title,
			Type:      i.Type,
			Position:  i.Position,
			Status:    i.Status,
			CreatedAt: i.CreatedAt,
		}
		if avg, ok := perInterview[i.ID]; ok {
			r.AverageScore = roundScore(avg)
		}
		out = append(out, r)
	}
	return out, nil
}

// interviewAverages calcula el promedio sin redondear de cada entrevista con respuestas.
func interviewAverages(scored []domain.ScoredAnswer) map[string]float64 {
	accs := make(map[string]*scoreAcc)
	for _, a := range scored {
		acc, ok := accs[a.InterviewID]
		if !ok {
			acc = &scoreAcc{}
			accs[a.InterviewID] = acc
		}
		acc.add(float64(a.Score))
	}
	out := make(map[string]float64, len(accs))
	for id, acc := range accs {
		out[id] = acc.sum / float64(acc.n)
	}
	return out
}

func monthBucket(t time.Time) (time.Time, string) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.Format("2006-01")
}

func weekBucket(t time.Time) (time.Time, string) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	// time.Weekday empieza en domingo; las semanas empiezan en lunes.
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 6)
	return start, start.Format("2006-01-02") + " ~ " + end.Format("2006-01-02")
}

type scoreAcc struct {
	sum float64
	n   int
}

func (a *scoreAcc) add(v float64) {
	a.sum += v
	a.n++
}

// avg devuelve nil si no hubo valores.
func (a *scoreAcc) avg() *float64 {
	if a.n == 0 {
		return nil
	}
	return roundScore(a.sum / float64(a.n))
}

func roundScore(v float64) *float64 {
	r := math.Round(v*10) / 10
	return &r
}
