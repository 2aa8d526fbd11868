package schedule

import (
	"context"
	"time"

	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над паттернами и вхождениями.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// Patterns
	// ─────────────────────────────────────────────────────────────────────────

	// CreatePattern сохраняет новый паттерн.
	CreatePattern(ctx context.Context, pattern *RecurringPattern) error

	// GetPattern возвращает паттерн по ID.
	// Возвращает ErrPatternNotFound, если паттерн не найден.
	GetPattern(ctx context.Context, id string) (*RecurringPattern, error)

	// ListPatternsByUser возвращает паттерны пользователя.
	ListPatternsByUser(ctx context.Context, userID shared.UserID) ([]*RecurringPattern, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Occurrences
	// ─────────────────────────────────────────────────────────────────────────

	// CreateOccurrence сохраняет одно вхождение. Каждая дата независима:
	// провал одной не влияет на остальные.
	// Возвращает ErrOccurrenceExists для дубликата (patternID, date).
	CreateOccurrence(ctx context.Context, occ *Occurrence) error

	// ListOccurrences возвращает вхождения паттерна в диапазоне дат.
	ListOccurrences(ctx context.Context, patternID string, from, to time.Time) ([]*Occurrence, error)

	// ListOccurrencesByUser возвращает вхождения пользователя в диапазоне дат.
	ListOccurrencesByUser(ctx context.Context, userID shared.UserID, from, to time.Time) ([]*Occurrence, error)
}
