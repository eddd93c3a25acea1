package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"preview-api/internal/domain"
	"preview-api/internal/repository"
)

type statsFixture struct {
	store *repository.MemoryStore
	seq   int
}

func newStatsFixture() *statsFixture {
	return &statsFixture{store: repository.NewMemoryStore()}
}

// interview crea una entrevista con una respuesta por fase/puntaje indicados.
func (f *statsFixture) interview(t *testing.T, memberID string, status domain.InterviewStatus, createdAt time.Time, scores map[domain.Phase][]int) string {
	t.Helper()
	ctx := context.Background()
	f.seq++
	id := fmt.Sprintf("i%d", f.seq)
	if err := f.store.Interviews().Create(ctx, domain.Interview{
		ID:        id,
		MemberID:  memberID,
		Title:     "interview " + id,
		Type:      domain.InterviewTypeFull,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}); err != nil {
		t.Fatalf("create interview: %v", err)
	}
	n := 0
	for _, phase := range domain.AllPhases() {
		for _, score := range scores[phase] {
			n++
			qid := fmt.Sprintf("%s-q%d", id, n)
			if err := f.store.Questions().Create(ctx, domain.Question{ID: qid, InterviewID: id, Phase: phase, Sequence: n, IsAnswered: true}); err != nil {
				t.Fatalf("create question: %v", err)
			}
			if err := f.store.Answers().Create(ctx, domain.Answer{ID: qid + "-a", QuestionID: qid, Content: "a", Score: score}); err != nil {
				t.Fatalf("create answer: %v", err)
			}
		}
	}
	return id
}

func (f *statsFixture) service(cache DashboardCache, now time.Time) *StatisticsService {
	s := NewStatisticsService(f.store.Interviews(), f.store.Answers(), cache, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func TestDashboardAverages(t *testing.T) {
	f := newStatsFixture()
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	f.interview(t, "m1", domain.InterviewStatusCompleted, now, map[domain.Phase][]int{
		domain.PhaseTechnical:   {8, 6},
		domain.PhasePersonality: {10},
	})
	f.interview(t, "m1", domain.InterviewStatusInProgress, now, nil)
	f.interview(t, "m2", domain.InterviewStatusCompleted, now, map[domain.Phase][]int{domain.PhaseTechnical: {1}})

	d, err := f.service(nil, now).Dashboard(context.Background(), "m1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.TotalInterviews != 2 || d.CompletedInterviews != 1 || d.InProgressInterviews != 1 {
		t.Fatalf("unexpected counts: %+v", d)
	}
	if d.AverageScore == nil || *d.AverageScore != 8.0 {
		t.Fatalf("expected overall 8.0, got %v", d.AverageScore)
	}
	if d.TechnicalAverageScore == nil || *d.TechnicalAverageScore != 7.0 {
		t.Fatalf("expected technical 7.0, got %v", d.TechnicalAverageScore)
	}
	if d.PersonalityAverageScore == nil || *d.PersonalityAverageScore != 10.0 {
		t.Fatalf("expected personality 10.0, got %v", d.PersonalityAverageScore)
	}
}

func TestDashboardWithoutAnswersHasNullAverages(t *testing.T) {
	f := newStatsFixture()
	now := time.Now().UTC()
	f.interview(t, "m1", domain.InterviewStatusInProgress, now, nil)

	d, err := f.service(nil, now).Dashboard(context.Background(), "m1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.AverageScore != nil || d.TechnicalAverageScore != nil || d.PersonalityAverageScore != nil {
		t.Fatalf("expected nil averages, got %+v", d)
	}
	if d.TotalInterviews != 1 {
		t.Fatalf("expected 1 interview, got %d", d.TotalInterviews)
	}
}

func TestDashboardRoundsToOneDecimal(t *testing.T) {
	f := newStatsFixture()
	now := time.Now().UTC()
	f.interview(t, "m1", domain.InterviewStatusCompleted, now, map[domain.Phase][]int{domain.PhaseTechnical: {7, 8, 8}})

	d, err := f.service(nil, now).Dashboard(context.Background(), "m1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.AverageScore == nil || *d.AverageScore != 7.7 {
		t.Fatalf("expected 7.7, got %v", d.AverageScore)
	}
}

func TestDashboardUsesCache(t *testing.T) {
	f := newStatsFixture()
	now := time.Now().UTC()
	cache := newRecordingCache()
	svc := f.service(cache, now)

	first, err := svc.Dashboard(context.Background(), "m1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if first.TotalInterviews != 0 {
		t.Fatalf("expected empty dashboard, got %+v", first)
	}
	f.interview(t, "m1", domain.InterviewStatusInProgress, now, nil)

	cached, err := svc.Dashboard(context.Background(), "m1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if cached.TotalInterviews != 0 {
		t.Fatalf("expected cached dashboard, got %+v", cached)
	}

	cache.Invalidate(context.Background(), "m1")
	fresh, err := svc.Dashboard(context.Background(), "m1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if fresh.TotalInterviews != 1 {
		t.Fatalf("expected fresh dashboard after invalidate, got %+v", fresh)
	}
}

// invalidatingCache simula un submit que invalida justo despues de leer la generacion.
type invalidatingCache struct {
	*recordingCache
}

func (c invalidatingCache) Generation(ctx context.Context, memberID string) (int64, bool) {
	gen, ok := c.recordingCache.Generation(ctx, memberID)
	c.recordingCache.Invalidate(ctx, memberID)
	return gen, ok
}

func TestDashboardSkipsCacheWriteAfterConcurrentInvalidate(t *testing.T) {
	f := newStatsFixture()
	now := time.Now().UTC()
	cache := invalidatingCache{newRecordingCache()}
	svc := f.service(cache, now)

	if _, err := svc.Dashboard(context.Background(), "m1"); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if _, ok := cache.Get(context.Background(), "m1"); ok {
		t.Fatalf("expected no cached dashboard after invalidate during computation")
	}
}

func TestPhasePerformanceCanonicalOrder(t *testing.T) {
	f := newStatsFixture()
	now := time.Now().UTC()
	f.interview(t, "m1", domain.InterviewStatusCompleted, now, map[domain.Phase][]int{
		domain.PhaseClosing:     {6},
		domain.PhasePersonality: {9, 7},
		domain.PhaseOpening:     {5},
	})

	got, err := f.service(nil, now).PhasePerformance(context.Background(), "m1")
	if err != nil {
		t.Fatalf("phase performance: %v", err)
	}
	want := []domain.PhasePerformance{
		{Phase: domain.PhaseOpening, AverageScore: 5, AnswerCount: 1},
		{Phase: domain.PhasePersonality, AverageScore: 8, AnswerCount: 2},
		{Phase: domain.PhaseClosing, AverageScore: 6, AnswerCount: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d phases, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("phase %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestScoreTrendMonthly(t *testing.T) {
	f := newStatsFixture()
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	f.interview(t, "m1", domain.InterviewStatusCompleted, time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC), map[domain.Phase][]int{domain.PhaseTechnical: {6}})
	f.interview(t, "m1", domain.InterviewStatusCompleted, time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC), map[domain.Phase][]int{domain.PhaseTechnical: {8, 10}})
	f.interview(t, "m1", domain.InterviewStatusCompleted, time.Date(2026, 9, 25, 0, 0, 0, 0, time.UTC), nil)
	f.interview(t, "m1", domain.InterviewStatusCompleted, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), map[domain.Phase][]int{domain.PhaseTechnical: {7}})
	f.interview(t, "m1", domain.InterviewStatusInProgress, time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC), map[domain.Phase][]int{domain.PhaseTechnical: {1}})
	f.interview(t, "m1", domain.InterviewStatusCompleted, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), map[domain.Phase][]int{domain.PhaseTechnical: {3}})

	got, err := f.service(nil, now).ScoreTrend(context.Background(), "m1", domain.TrendMonthly)
	if err != nil {
		t.Fatalf("score trend: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 buckets, got %+v", got)
	}
	if got[0].Label != "2026-09" || !got[0].Date.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected first bucket: %+v", got[0])
	}
	if got[0].InterviewCount != 3 || got[0].AverageScore == nil || *got[0].AverageScore != 7.5 {
		t.Fatalf("expected 3 interviews averaging 7.5, got %+v", got[0])
	}
	if got[1].Label != "2026-10" || got[1].InterviewCount != 1 || *got[1].AverageScore != 7.0 {
		t.Fatalf("unexpected second bucket: %+v", got[1])
	}
}

func TestScoreTrendWeekly(t *testing.T) {
	f := newStatsFixture()
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	// 2026-10-11 es domingo: pertenece a la semana que empieza el lunes 2026-10-05.
	f.interview(t, "m1", domain.InterviewStatusCompleted, time.Date(2026, 10, 11, 23, 0, 0, 0, time.UTC), map[domain.Phase][]int{domain.PhaseTechnical: {4}})
	f.interview(t, "m1", domain.InterviewStatusCompleted, time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC), nil)

	got, err := f.service(nil, now).ScoreTrend(context.Background(), "m1", domain.TrendWeekly)
	if err != nil {
		t.Fatalf("score trend: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 buckets, got %+v", got)
	}
	if got[0].Label != "2026-10-05 ~ 2026-10-11" || *got[0].AverageScore != 4.0 {
		t.Fatalf("unexpected first bucket: %+v", got[0])
	}
	if got[1].Label != "2026-10-12 ~ 2026-10-18" || got[1].AverageScore != nil || got[1].InterviewCount != 1 {
		t.Fatalf("expected unscored bucket with nil average, got %+v", got[1])
	}
}

func TestScoreTrendRejectsUnknownPeriod(t *testing.T) {
	f := newStatsFixture()
	if _, err := f.service(nil, time.Now()).ScoreTrend(context.Background(), "m1", "daily"); !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	if _, err := ParseTrendPeriod("yearly"); !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	if p, err := ParseTrendPeriod(""); err != nil || p != domain.TrendMonthly {
		t.Fatalf("expected monthly default, got %q %v", p, err)
	}
}

func TestRecentInterviews(t *testing.T) {
	f := newStatsFixture()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 7; i++ {
		ids = append(ids, f.interview(t, "m1", domain.InterviewStatusCompleted, base.AddDate(0, 0, i), map[domain.Phase][]int{domain.PhaseTechnical: {i + 1, i + 2}}))
	}
	svc := f.service(nil, base)

	got, err := svc.Recent(context.Background(), "m1", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != DefaultRecentLimit {
		t.Fatalf("expected %d interviews, got %d", DefaultRecentLimit, len(got))
	}
	if got[0].ID != ids[6] {
		t.Fatalf("expected most recent first, got %s", got[0].ID)
	}
	if got[0].AverageScore == nil || *got[0].AverageScore != 7.5 {
		t.Fatalf("expected average 7.5, got %v", got[0].AverageScore)
	}

	for _, limit := range []int{-1, 51} {
		if _, err := svc.Recent(context.Background(), "m1", limit); !errors.Is(err, domain.ErrValidationFailed) {
			t.Fatalf("limit %d: expected ErrValidationFailed, got %v", limit, err)
		}
	}
}
