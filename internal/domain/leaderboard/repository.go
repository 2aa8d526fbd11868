// Package leaderboard содержит доменную модель лидерборда Momentum.
package leaderboard

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Query описывает запрос на построение лидерборда.
type Query struct {
	// Metric - по какому показателю ранжировать.
	Metric Metric

	// Limit - максимальное количество записей в ответе.
	Limit int

	// WindowDays - скользящее окно в днях; 0 означает "за всё время".
	// Для оконного запроса значение метрики - сумма начислений XP
	// за окно, а не накопленный итог.
	WindowDays int
}

// DefaultLimit - размер лидерборда по умолчанию.
const DefaultLimit = 20

// MaxLimit - максимальный размер лидерборда.
const MaxLimit = 100

// Normalize приводит запрос к допустимым значениям.
func (q Query) Normalize() Query {
	if q.Metric == "" {
		q.Metric = MetricXP
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.WindowDays < 0 {
		q.WindowDays = 0
	}
	return q
}

// Repository определяет контракт чтения лидерборда.
// Реализация находится в infrastructure слое (PostgreSQL).
//
// Репозиторий возвращает записи-кандидаты с уже вычисленным значением
// метрики; присвоение рангов и tie-break выполняет доменный Ranking.
type Repository interface {
	// ListRanked возвращает записи-кандидаты для запроса.
	ListRanked(ctx context.Context, q Query) ([]*Entry, error)

	// GetUserEntry возвращает запись конкретного пользователя.
	// Возвращает nil, если у пользователя нет прогресса.
	GetUserEntry(ctx context.Context, userID string, q Query) (*Entry, error)

	// CountUsers возвращает количество пользователей с прогрессом.
	CountUsers(ctx context.Context) (int, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Cache определяет контракт для кеширования лидерборда.
// Отделён от основного репозитория для гибкости (Redis, in-memory).
// Оконные запросы не кешируются - кеш хранит lifetime-рейтинг по метрике.
type Cache interface {
	// GetCachedTop возвращает закешированный топ-N.
	// Возвращает nil без ошибки, если кеш пуст или устарел.
	GetCachedTop(ctx context.Context, metric Metric, limit int) ([]*Entry, error)

	// SetCachedTop сохраняет отсортированный топ-N в кеш с TTL.
	SetCachedTop(ctx context.Context, metric Metric, entries []*Entry, ttl time.Duration) error

	// GetCachedRank возвращает закешированную запись пользователя.
	GetCachedRank(ctx context.Context, userID string, metric Metric) (*Entry, error)

	// InvalidateCache сбрасывает кеш метрики.
	InvalidateCache(ctx context.Context, metric Metric) error

	// InvalidateAll сбрасывает весь кеш лидерборда.
	InvalidateAll(ctx context.Context) error
}
