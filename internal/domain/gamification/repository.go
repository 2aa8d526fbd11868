package gamification

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

// ProgressUpdate - параметры атомарного обновления профиля.
type ProgressUpdate struct {
	// XPDelta - на сколько увеличить TotalXP (неотрицательное).
	XPDelta int

	// StreakCount - новая длина серии.
	StreakCount int

	// LastActivityAt - новое время последней активности.
	LastActivityAt time.Time
}

// ProfileRepository определяет операции над игровыми профилями.
type ProfileRepository interface {
	// GetOrCreate возвращает профиль пользователя, создавая профиль
	// с нулевым прогрессом при первом обращении.
	GetOrCreate(ctx context.Context, userID shared.UserID) (*UserProfile, error)

	// ApplyProgress атомарно применяет обновление прогресса:
	// инкремент XP выполняется на стороне хранилища (total_xp = total_xp + delta),
	// а не через чтение-изменение-запись всего профиля.
	// Возвращает обновлённый профиль.
	ApplyProgress(ctx context.Context, userID shared.UserID, update ProgressUpdate) (*UserProfile, error)
}

// TransactionRepository определяет операции над журналом начислений XP.
type TransactionRepository interface {
	// Append добавляет запись в append-only журнал.
	Append(ctx context.Context, tx XPTransaction) error

	// ListByUser возвращает последние записи пользователя.
	ListByUser(ctx context.Context, userID shared.UserID, limit int) ([]XPTransaction, error)
}

// AchievementRepository определяет операции над каталогом достижений
// и фактами разблокировки.
type AchievementRepository interface {
	// ListDefinitions возвращает каталог достижений.
	ListDefinitions(ctx context.Context) ([]Achievement, error)

	// ListUnlockedIDs возвращает ID достижений, уже разблокированных пользователем.
	ListUnlockedIDs(ctx context.Context, userID shared.UserID) (map[string]bool, error)

	// CreateUnlockIfAbsent фиксирует разблокировку, если её ещё нет.
	// Возвращает created=false, если пара (userID, achievementID)
	// уже существует - в том числе при проигрыше гонки.
	CreateUnlockIfAbsent(ctx context.Context, unlock Unlock) (created bool, err error)

	// ListUnlocks возвращает разблокировки пользователя.
	ListUnlocks(ctx context.Context, userID shared.UserID) ([]Unlock, error)
}

// StatsRepository предоставляет снимок статистики пользователя
// для проверки условий достижений.
type StatsRepository interface {
	// Snapshot возвращает согласованный снимок статистики.
	Snapshot(ctx context.Context, userID shared.UserID) (StatsSnapshot, error)
}
