// Package leaderboard содержит доменную модель лидерборда Momentum.
// Лидерборд ранжирует пользователей по накопленному XP или уровню,
// за всё время или в скользящем окне последних N дней.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Metric определяет, по какому показателю строится лидерборд.
type Metric string

const (
	// MetricXP - ранжирование по накопленному XP.
	MetricXP Metric = "xp"
	// MetricLevel - ранжирование по уровню.
	MetricLevel Metric = "level"
)

// IsValid проверяет, что метрика известна.
func (m Metric) IsValid() bool {
	return m == MetricXP || m == MetricLevel
}

// String возвращает строковое представление метрики.
func (m Metric) String() string {
	return string(m)
}

// Rank представляет позицию пользователя в лидерборде.
// Rank начинается с 1 (первое место).
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsTop возвращает true, если позиция в топ-N.
func (r Rank) IsTop(n int) bool {
	return r >= 1 && int(r) <= n
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry представляет одну запись в лидерборде.
type Entry struct {
	// Rank - текущая позиция в рейтинге.
	Rank Rank

	// UserID - идентификатор пользователя.
	UserID string

	// Value - значение метрики, по которой шло ранжирование
	// (XP за окно или уровень).
	Value int

	// TotalXP - накопленный XP за всё время.
	TotalXP int

	// Level - текущий уровень.
	Level int

	// UpdatedAt - время последнего обновления прогресса.
	UpdatedAt time.Time
}

// NewEntry создаёт запись лидерборда с валидацией.
func NewEntry(userID string, value, totalXP, level int) (*Entry, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if value < 0 {
		return nil, ErrInvalidValue
	}

	return &Entry{
		UserID:    userID,
		Value:     value,
		TotalXP:   totalXP,
		Level:     level,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Clone создаёт копию записи.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// String возвращает строковое представление для логирования.
func (e *Entry) String() string {
	return fmt.Sprintf("Entry{Rank: %d, UserID: %s, Value: %d}", e.Rank, e.UserID, e.Value)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING (Ranked List)
// ══════════════════════════════════════════════════════════════════════════════

// Ranking представляет полный отсортированный список пользователей.
// Это вспомогательная структура для построения лидерборда.
type Ranking struct {
	entries []*Entry
	byID    map[string]*Entry
}

// NewRanking создаёт пустой Ranking.
func NewRanking() *Ranking {
	return &Ranking{
		entries: make([]*Entry, 0),
		byID:    make(map[string]*Entry),
	}
}

// Add добавляет запись в рейтинг (без автоматической сортировки).
func (r *Ranking) Add(entry *Entry) error {
	if entry == nil {
		return ErrNilEntry
	}
	if _, exists := r.byID[entry.UserID]; exists {
		return ErrDuplicateUser
	}

	r.entries = append(r.entries, entry)
	r.byID[entry.UserID] = entry
	return nil
}

// Sort сортирует записи по Value (по убыванию) и присваивает ранги.
//
// При равном Value порядок детерминирован: userID по возрастанию.
// Ранг при этом общий ("competition ranking"): два пользователя с
// одинаковым значением делят место, следующее место пропускается
// (1, 1, 3).
func (r *Ranking) Sort() {
	sort.Slice(r.entries, func(i, j int) bool {
		if r.entries[i].Value != r.entries[j].Value {
			return r.entries[i].Value > r.entries[j].Value
		}
		return r.entries[i].UserID < r.entries[j].UserID
	})

	currentRank := Rank(1)
	for i, entry := range r.entries {
		if i > 0 && entry.Value == r.entries[i-1].Value {
			entry.Rank = r.entries[i-1].Rank
		} else {
			entry.Rank = currentRank
		}
		currentRank = Rank(i + 2)
	}
}

// GetByID возвращает запись по ID пользователя.
func (r *Ranking) GetByID(userID string) *Entry {
	return r.byID[userID]
}

// Top возвращает топ-N записей.
func (r *Ranking) Top(n int) []*Entry {
	if n <= 0 {
		return nil
	}
	if n > len(r.entries) {
		n = len(r.entries)
	}
	result := make([]*Entry, n)
	copy(result, r.entries[:n])
	return result
}

// Slice возвращает срез записей [from:to).
func (r *Ranking) Slice(from, to int) []*Entry {
	if from < 0 {
		from = 0
	}
	if to > len(r.entries) {
		to = len(r.entries)
	}
	if from >= to {
		return nil
	}
	result := make([]*Entry, to-from)
	copy(result, r.entries[from:to])
	return result
}

// Neighbors возвращает соседей пользователя по рангу (±rangeSize).
// Включает самого пользователя в центре.
func (r *Ranking) Neighbors(userID string, rangeSize int) []*Entry {
	entry := r.GetByID(userID)
	if entry == nil {
		return nil
	}

	var idx int
	for i, e := range r.entries {
		if e.UserID == userID {
			idx = i
			break
		}
	}

	from := idx - rangeSize
	to := idx + rangeSize + 1

	if from < 0 {
		from = 0
	}
	if to > len(r.entries) {
		to = len(r.entries)
	}

	return r.Slice(from, to)
}

// Count возвращает общее количество записей.
func (r *Ranking) Count() int {
	return len(r.entries)
}

// All возвращает все записи.
func (r *Ranking) All() []*Entry {
	result := make([]*Entry, len(r.entries))
	copy(result, r.entries)
	return result
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidUserID - невалидный ID пользователя.
	ErrInvalidUserID = errors.New("invalid user id: cannot be empty")

	// ErrInvalidValue - невалидное значение метрики.
	ErrInvalidValue = errors.New("invalid metric value: must be non-negative")

	// ErrNilEntry - попытка добавить nil запись.
	ErrNilEntry = errors.New("cannot add nil entry")

	// ErrDuplicateUser - пользователь уже есть в рейтинге.
	ErrDuplicateUser = errors.New("user already exists in ranking")

	// ErrEmptyLeaderboard - лидерборд пуст.
	ErrEmptyLeaderboard = errors.New("leaderboard is empty")
)
