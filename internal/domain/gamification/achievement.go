package gamification

import (
	"time"

	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS (Достижения)
// ══════════════════════════════════════════════════════════════════════════════

// ConditionKind представляет вид условия разблокировки.
type ConditionKind string

const (
	// ConditionGoalsCreated - создано N целей.
	ConditionGoalsCreated ConditionKind = "goals_created"
	// ConditionGoalsCompleted - завершено N целей.
	ConditionGoalsCompleted ConditionKind = "goals_completed"
	// ConditionStreak - текущая серия достигла N дней.
	ConditionStreak ConditionKind = "streak"
	// ConditionModuleGoalsCompleted - завершено N целей в конкретном модуле.
	ConditionModuleGoalsCompleted ConditionKind = "module_goals_completed"
)

// StatsSnapshot - снимок статистики пользователя для проверки условий.
type StatsSnapshot struct {
	// TotalGoals - всего создано целей.
	TotalGoals int

	// CompletedGoals - всего завершено целей.
	CompletedGoals int

	// StreakCount - текущая серия активных дней.
	// Проверяется только текущая серия: достижение за серию,
	// сорванную до проверки, не засчитывается.
	StreakCount int

	// CompletedGoalsByModule - завершено целей по модулям.
	CompletedGoalsByModule map[shared.ModuleID]int
}

// Condition - закрытое множество условий разблокировки достижения.
// Неизвестный вид условия невозможно сконструировать вне пакета:
// реализация помечена неэкспортируемым методом.
type Condition interface {
	// Kind возвращает вид условия.
	Kind() ConditionKind

	// Met проверяет, выполнено ли условие для снимка статистики.
	Met(stats StatsSnapshot) bool

	sealed()
}

// GoalsCreatedCondition - создано не менее Threshold целей.
type GoalsCreatedCondition struct {
	Threshold int
}

func (c GoalsCreatedCondition) Kind() ConditionKind { return ConditionGoalsCreated }

func (c GoalsCreatedCondition) Met(stats StatsSnapshot) bool {
	return stats.TotalGoals >= c.Threshold
}

func (GoalsCreatedCondition) sealed() {}

// GoalsCompletedCondition - завершено не менее Threshold целей.
type GoalsCompletedCondition struct {
	Threshold int
}

func (c GoalsCompletedCondition) Kind() ConditionKind { return ConditionGoalsCompleted }

func (c GoalsCompletedCondition) Met(stats StatsSnapshot) bool {
	return stats.CompletedGoals >= c.Threshold
}

func (GoalsCompletedCondition) sealed() {}

// StreakCondition - текущая серия не короче Threshold дней.
type StreakCondition struct {
	Threshold int
}

func (c StreakCondition) Kind() ConditionKind { return ConditionStreak }

func (c StreakCondition) Met(stats StatsSnapshot) bool {
	return stats.StreakCount >= c.Threshold
}

func (StreakCondition) sealed() {}

// ModuleGoalsCompletedCondition - завершено не менее Threshold целей в модуле.
type ModuleGoalsCompletedCondition struct {
	ModuleID  shared.ModuleID
	Threshold int
}

func (c ModuleGoalsCompletedCondition) Kind() ConditionKind { return ConditionModuleGoalsCompleted }

func (c ModuleGoalsCompletedCondition) Met(stats StatsSnapshot) bool {
	return stats.CompletedGoalsByModule[c.ModuleID] >= c.Threshold
}

func (ModuleGoalsCompletedCondition) sealed() {}

// ParseCondition восстанавливает условие из персистентного представления.
// Возвращает ошибку для неизвестного вида - хранилище с неподдержанным
// условием не должно тихо превращаться в never-unlockable достижение.
func ParseCondition(kind ConditionKind, threshold int, moduleID shared.ModuleID) (Condition, error) {
	if threshold < 1 {
		return nil, shared.ValidationError("gamification", "ParseCondition", "threshold", "must be at least 1")
	}
	switch kind {
	case ConditionGoalsCreated:
		return GoalsCreatedCondition{Threshold: threshold}, nil
	case ConditionGoalsCompleted:
		return GoalsCompletedCondition{Threshold: threshold}, nil
	case ConditionStreak:
		return StreakCondition{Threshold: threshold}, nil
	case ConditionModuleGoalsCompleted:
		if moduleID.IsEmpty() {
			return nil, shared.ValidationError("gamification", "ParseCondition", "moduleId", "required for module_goals_completed")
		}
		return ModuleGoalsCompletedCondition{ModuleID: moduleID, Threshold: threshold}, nil
	default:
		return nil, shared.NewDomainError("gamification", "ParseCondition", shared.ErrInvalidInput, "unknown condition kind: "+string(kind))
	}
}

// Achievement - определение достижения (каталог администрируется извне).
type Achievement struct {
	// ID - идентификатор достижения.
	ID string

	// Name - отображаемое название.
	Name string

	// ModuleID - модуль, к которому относится достижение (опционально).
	ModuleID shared.ModuleID

	// Condition - условие разблокировки.
	Condition Condition

	// XPReward - бонусный XP при разблокировке.
	XPReward int
}

// Unlock - факт разблокировки достижения пользователем.
// Уникальность пары (UserID, AchievementID) гарантирует хранилище.
type Unlock struct {
	UserID        shared.UserID
	AchievementID string
	UnlockedAt    time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT EVALUATOR
// ══════════════════════════════════════════════════════════════════════════════

// AchievementEvaluator проверяет условия разблокировки достижений.
// Чистая функция от каталога, множества уже разблокированных и снимка
// статистики - без побочных эффектов.
type AchievementEvaluator struct{}

// NewAchievementEvaluator создаёт проверщик достижений.
func NewAchievementEvaluator() *AchievementEvaluator {
	return &AchievementEvaluator{}
}

// Evaluate возвращает достижения, условия которых выполнены и которые
// ещё не разблокированы. Порядок соответствует порядку каталога.
func (e *AchievementEvaluator) Evaluate(
	catalog []Achievement,
	unlockedIDs map[string]bool,
	stats StatsSnapshot,
) []Achievement {
	var unlockable []Achievement
	for _, a := range catalog {
		if a.Condition == nil || unlockedIDs[a.ID] {
			continue
		}
		if a.Condition.Met(stats) {
			unlockable = append(unlockable, a)
		}
	}
	return unlockable
}
