// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/momentum-app/momentum-core/internal/domain/leaderboard"
	"github.com/momentum-app/momentum-core/internal/domain/shared"
	"github.com/momentum-app/momentum-core/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Получает топ-N пользователей по XP или уровню, за всё время или
// в скользящем окне последних N дней.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса лидерборда.
type GetLeaderboardQuery struct {
	// Metric - показатель ранжирования: "xp" или "level" (по умолчанию "xp").
	Metric string

	// Limit - количество записей (по умолчанию 20, максимум 100).
	Limit int

	// WindowDays - скользящее окно в днях; 0 = за всё время.
	// Оконное ранжирование поддерживается только для метрики "xp".
	WindowDays int
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Metric != "" && !leaderboard.Metric(q.Metric).IsValid() {
		return shared.ErrInvalidMetric
	}
	if q.Limit < 0 {
		return shared.ErrInvalidLimit
	}
	if q.WindowDays < 0 {
		return shared.ValidationError("leaderboard", "GetLeaderboard", "windowDays", "cannot be negative")
	}
	if q.WindowDays > 0 && leaderboard.Metric(q.Metric) == leaderboard.MetricLevel {
		return shared.ValidationError("leaderboard", "GetLeaderboard", "windowDays", "windowed ranking is only supported for the xp metric")
	}
	return nil
}

// EntryDTO - DTO для записи лидерборда (Data Transfer Object).
type EntryDTO struct {
	// Rank - позиция в рейтинге (начиная с 1). При равных значениях
	// метрики место общее, следующее место пропускается.
	Rank int `json:"rank"`

	// UserID - идентификатор пользователя.
	UserID string `json:"user_id"`

	// Value - значение метрики ранжирования.
	Value int `json:"value"`

	// TotalXP - накопленный XP за всё время.
	TotalXP int `json:"total_xp"`

	// Level - текущий уровень.
	Level int `json:"level"`
}

// GetLeaderboardResult содержит результат запроса лидерборда.
type GetLeaderboardResult struct {
	// Entries - записи лидерборда в порядке рангов.
	Entries []EntryDTO `json:"entries"`

	// Metric - показатель, по которому ранжировали.
	Metric string `json:"metric"`

	// WindowDays - окно запроса (0 = за всё время).
	WindowDays int `json:"window_days"`

	// TotalCount - общее количество пользователей с прогрессом.
	TotalCount int `json:"total_count"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLeaderboardHandler обрабатывает запросы на получение лидерборда.
type GetLeaderboardHandler struct {
	repo    leaderboard.Repository
	cache   leaderboard.Cache
	breaker *circuitbreaker.CircuitBreaker
}

// NewGetLeaderboardHandler создаёт новый обработчик запроса лидерборда.
// cache может быть nil - тогда каждый запрос идёт в репозиторий.
// Обращения к кешу идут через circuit breaker: деградировавший Redis
// не должен тормозить каждый запрос рейтинга.
func NewGetLeaderboardHandler(repo leaderboard.Repository, cache leaderboard.Cache) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		repo:    repo,
		cache:   cache,
		breaker: circuitbreaker.CacheBreaker(nil),
	}
}

// Handle выполняет запрос на получение лидерборда.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	q := leaderboard.Query{
		Metric:     leaderboard.Metric(query.Metric),
		Limit:      query.Limit,
		WindowDays: query.WindowDays,
	}.Normalize()

	// Кеш хранит только lifetime-рейтинг: оконные запросы всегда
	// считаются из журнала начислений.
	if q.WindowDays == 0 {
		if cached, err := h.tryGetFromCache(ctx, q); err == nil && len(cached) > 0 {
			return h.buildResult(ctx, cached, q), nil
		}
	}

	candidates, err := h.repo.ListRanked(ctx, q)
	if err != nil {
		return nil, shared.WrapError("leaderboard", "GetLeaderboard", shared.ErrStoreUnavailable, "failed to list ranked entries", err)
	}

	ranking := leaderboard.NewRanking()
	for _, e := range candidates {
		if addErr := ranking.Add(e); addErr != nil {
			return nil, shared.WrapError("leaderboard", "GetLeaderboard", shared.ErrInvalidEntity, "duplicate or invalid entry", addErr)
		}
	}
	ranking.Sort()

	return h.buildResult(ctx, ranking.Top(q.Limit), q), nil
}

// tryGetFromCache пытается получить отранжированный топ из кеша.
func (h *GetLeaderboardHandler) tryGetFromCache(ctx context.Context, q leaderboard.Query) ([]*leaderboard.Entry, error) {
	if h.cache == nil {
		return nil, errors.New("cache not available")
	}

	var entries []*leaderboard.Entry
	err := h.breaker.Execute(ctx, func(ctx context.Context) error {
		var cacheErr error
		entries, cacheErr = h.cache.GetCachedTop(ctx, q.Metric, q.Limit)
		return cacheErr
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// buildResult формирует итоговый результат.
func (h *GetLeaderboardHandler) buildResult(
	ctx context.Context,
	entries []*leaderboard.Entry,
	q leaderboard.Query,
) *GetLeaderboardResult {
	totalCount, err := h.repo.CountUsers(ctx)
	if err != nil {
		totalCount = len(entries)
	}

	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = EntryDTO{
			Rank:    int(e.Rank),
			UserID:  e.UserID,
			Value:   e.Value,
			TotalXP: e.TotalXP,
			Level:   e.Level,
		}
	}

	return &GetLeaderboardResult{
		Entries:     dtos,
		Metric:      q.Metric.String(),
		WindowDays:  q.WindowDays,
		TotalCount:  totalCount,
		GeneratedAt: time.Now().UTC(),
	}
}
