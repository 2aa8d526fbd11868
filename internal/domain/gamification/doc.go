// Package gamification содержит доменную модель игровой механики Momentum.
//
// Это ядро бизнес-логики системы "Momentum". Пакет определяет:
//
//   - Сущности (Entities): UserProfile, XPTransaction, Achievement
//   - Value Objects: ActionType, Difficulty, StatsSnapshot
//   - Чистые вычисления: начисление XP, продвижение серии, проверка достижений
//   - Интерфейсы репозиториев: ProfileRepository, AchievementRepository и др.
//
// # Архитектурные принципы
//
// Пакет следует принципам Clean Architecture и DDD:
//
//  1. Нулевые внешние зависимости - только стандартная библиотека Go
//  2. Dependency Inversion - определяет интерфейсы, которые реализуются в infrastructure
//  3. Rich Domain Model - бизнес-логика инкапсулирована в сущностях
//
// # Основные операции
//
// Начисление XP за действие:
//
//	amount, err := CalculateXP(ActionGoalCompleted, DifficultyHard)
//
// Продвижение серии активных дней:
//
//	adv := AdvanceStreak(profile.StreakCount, profile.LastActivityAt, now, profile.Location())
//	if adv.Broken {
//	    event := shared.NewStreakBrokenEvent(userID, adv.PreviousStreak)
//	}
//
// Проверка достижений:
//
//	evaluator := NewAchievementEvaluator()
//	unlockable := evaluator.Evaluate(definitions, unlockedIDs, stats)
//
// Оркестрация (чтение профиля, атомарное обновление, публикация событий)
// находится в application/command - доменный слой только вычисляет.
package gamification
