// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/momentum-app/momentum-core/internal/domain/leaderboard"
	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON XP AWARDED HANDLER
// Обрабатывает событие начисления XP.
//
// Закешированный лидерборд после начисления устаревает: порядок или
// значения в топе могли измениться. Обработчик сбрасывает кеш, чтобы
// следующее чтение (или фоновая пересборка) увидело свежие данные.
// ═══════════════════════════════════════════════════════════════════════════

// OnXPAwardedHandler обрабатывает событие начисления XP.
type OnXPAwardedHandler struct {
	cache  leaderboard.Cache
	logger *slog.Logger
	config XPAwardedConfig
}

// XPAwardedConfig содержит конфигурацию обработчика.
type XPAwardedConfig struct {
	// InvalidateLeaderboard — сбрасывать ли кеш лидерборда при начислении.
	InvalidateLeaderboard bool

	// InvalidateTimeout — таймаут операции сброса кеша.
	InvalidateTimeout time.Duration
}

// DefaultXPAwardedConfig возвращает конфигурацию по умолчанию.
func DefaultXPAwardedConfig() XPAwardedConfig {
	return XPAwardedConfig{
		InvalidateLeaderboard: true,
		InvalidateTimeout:     5 * time.Second,
	}
}

// NewOnXPAwardedHandler создаёт новый обработчик события начисления XP.
func NewOnXPAwardedHandler(
	cache leaderboard.Cache,
	logger *slog.Logger,
	config XPAwardedConfig,
) *OnXPAwardedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnXPAwardedHandler{
		cache:  cache,
		logger: logger.With("handler", "on_xp_awarded"),
		config: config,
	}
}

// Handle обрабатывает событие начисления XP.
// Реализует интерфейс shared.EventHandler.
func (h *OnXPAwardedHandler) Handle(event shared.Event) error {
	xpEvent, ok := event.(shared.XPAwardedEvent)
	if !ok {
		h.logger.Warn("received non-XPAwardedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	h.logger.Debug("processing xp awarded event",
		"user_id", xpEvent.UserID,
		"amount", xpEvent.Amount,
		"action_type", xpEvent.ActionType,
	)

	if !h.config.InvalidateLeaderboard || h.cache == nil {
		return nil
	}

	ctx := context.Background()
	if h.config.InvalidateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.InvalidateTimeout)
		defer cancel()
	}

	// Сброс кеша не должен ронять обработку события: при ошибке кеш
	// просто доживёт до своего TTL или до фоновой пересборки.
	if err := h.cache.InvalidateAll(ctx); err != nil {
		h.logger.Warn("failed to invalidate leaderboard cache",
			"user_id", xpEvent.UserID,
			"error", err,
		)
	}

	return nil
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnXPAwardedHandler) EventType() shared.EventType {
	return shared.EventXPAwarded
}
