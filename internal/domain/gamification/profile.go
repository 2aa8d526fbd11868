package gamification

import (
	"math"
	"time"

	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTION TYPES & DIFFICULTY
// ══════════════════════════════════════════════════════════════════════════════

// ActionType представляет тип действия пользователя, за которое начисляется XP.
type ActionType string

const (
	// ActionGoalCreated - пользователь создал новую цель.
	ActionGoalCreated ActionType = "goal_created"
	// ActionGoalProgress - пользователь отметил прогресс по цели.
	ActionGoalProgress ActionType = "goal_progress"
	// ActionGoalCompleted - пользователь завершил цель.
	ActionGoalCompleted ActionType = "goal_completed"
	// ActionWorkoutCompleted - пользователь завершил тренировку.
	ActionWorkoutCompleted ActionType = "workout_completed"
	// ActionHabitChecked - пользователь отметил привычку за день.
	ActionHabitChecked ActionType = "habit_checked"

	// ActionAchievementBonus - системное начисление бонуса за
	// разблокировку достижения. Не принимается как входное действие:
	// IsValid для него возвращает false.
	ActionAchievementBonus ActionType = "achievement_bonus"
)

// baseXPTable - базовые значения XP для каждого типа действия.
var baseXPTable = map[ActionType]int{
	ActionGoalCreated:      10,
	ActionGoalProgress:     5,
	ActionGoalCompleted:    50,
	ActionWorkoutCompleted: 40,
	ActionHabitChecked:     15,
}

// IsValid проверяет, что тип действия известен.
func (a ActionType) IsValid() bool {
	_, ok := baseXPTable[a]
	return ok
}

// String возвращает строковое представление.
func (a ActionType) String() string {
	return string(a)
}

// BaseXP возвращает базовое значение XP для действия.
func (a ActionType) BaseXP() int {
	return baseXPTable[a]
}

// Difficulty представляет сложность выполненного действия.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// difficultyMultipliers - множители XP по сложности.
var difficultyMultipliers = map[Difficulty]float64{
	DifficultyEasy:   1.0,
	DifficultyMedium: 1.5,
	DifficultyHard:   2.0,
	DifficultyExpert: 3.0,
}

// IsValid проверяет, что сложность известна.
func (d Difficulty) IsValid() bool {
	_, ok := difficultyMultipliers[d]
	return ok
}

// String возвращает строковое представление.
func (d Difficulty) String() string {
	return string(d)
}

// Multiplier возвращает множитель XP для сложности.
func (d Difficulty) Multiplier() float64 {
	return difficultyMultipliers[d]
}

// CalculateXP вычисляет XP за действие: floor(base * multiplier), минимум 1.
// Возвращает ошибку для неизвестного типа действия или сложности.
func CalculateXP(action ActionType, difficulty Difficulty) (int, error) {
	if !action.IsValid() {
		return 0, shared.ErrInvalidActionType
	}
	if !difficulty.IsValid() {
		return 0, shared.ErrInvalidDifficulty
	}

	amount := int(math.Floor(float64(action.BaseXP()) * difficulty.Multiplier()))
	if amount < 1 {
		amount = 1
	}
	return amount, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// USER PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// UserProfile представляет игровой профиль пользователя.
// Профиль агрегирует накопленный XP, уровень и серию активных дней.
type UserProfile struct {
	// UserID - идентификатор пользователя.
	UserID shared.UserID

	// TotalXP - накопленный XP (монотонно растёт).
	TotalXP shared.XP

	// CurrentLevel - текущий уровень (всегда производная от TotalXP).
	CurrentLevel shared.Level

	// StreakCount - текущая серия активных дней.
	StreakCount int

	// LastActivityAt - время последнего засчитанного действия.
	// nil для профиля без активности.
	LastActivityAt *time.Time

	// Timezone - IANA-таймзона пользователя для границ календарного дня.
	Timezone string

	// CreatedAt - время создания профиля.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewUserProfile создаёт профиль с нулевым прогрессом.
func NewUserProfile(userID shared.UserID, timezone string) (*UserProfile, error) {
	if !userID.IsValid() {
		return nil, shared.NewDomainError("gamification", "NewUserProfile", shared.ErrInvalidID, "invalid user ID")
	}
	if timezone == "" {
		timezone = "UTC"
	}
	now := time.Now().UTC()
	return &UserProfile{
		UserID:       userID,
		TotalXP:      0,
		CurrentLevel: 1,
		StreakCount:  0,
		Timezone:     timezone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Location возвращает таймзону профиля; при ошибке парсинга - UTC.
func (p *UserProfile) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LevelInfo возвращает уровень и прогресс к следующему уровню.
func (p *UserProfile) LevelInfo() shared.LevelInfo {
	info, _ := shared.LevelFor(p.TotalXP.Int())
	return info
}

// ══════════════════════════════════════════════════════════════════════════════
// XP TRANSACTION (append-only журнал начислений)
// ══════════════════════════════════════════════════════════════════════════════

// XPTransaction - одна запись начисления XP.
// Журнал транзакций append-only и служит источником для оконных лидербордов.
type XPTransaction struct {
	// ID - уникальный идентификатор транзакции (UUID).
	ID string

	// UserID - кому начислено.
	UserID shared.UserID

	// ActionType - за какое действие.
	ActionType ActionType

	// ModuleID - модуль цели (опционально).
	ModuleID shared.ModuleID

	// Difficulty - сложность действия.
	Difficulty Difficulty

	// XPAwarded - начислено XP.
	XPAwarded int

	// OccurredAt - когда произошло действие.
	OccurredAt time.Time
}
