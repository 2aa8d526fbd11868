package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and A/B testing.
// Supports gradual rollout, per-user overrides, and time-based activation.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time

	// A/B test variant (for experiments)
	Variants []string
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID  string // User UUID
	IsAdmin bool   // Is admin user
}

// Predefined feature flag names.
const (
	// === Gamification Features ===
	FeatureGamificationStreaks      = "gamification.streaks"          // Daily activity streaks
	FeatureGamificationAchievements = "gamification.achievements"     // Badges/achievements
	FeatureGamificationBonusXP      = "gamification.achievement_bonus" // Bonus XP on unlock
	FeatureGamificationStreakFreeze = "gamification.streak_freeze"    // One-day grace period

	// === Leaderboard Features ===
	FeatureLeaderboardGlobal   = "leaderboard.global"   // All-time rankings
	FeatureLeaderboardWindowed = "leaderboard.windowed" // 7/30-day windows
	FeatureLeaderboardCache    = "leaderboard.cache"    // Redis-cached top N
	FeatureLeaderboardByLevel  = "leaderboard.by_level" // Rank by level metric

	// === Schedule Features ===
	FeatureSchedulePatterns  = "schedule.patterns"         // Recurring workout patterns
	FeatureScheduleCustom    = "schedule.custom_frequency" // N times per week
	FeatureScheduleAutoMater = "schedule.auto_materialize" // Materialize on create

	// === Experimental Features ===
	FeatureExperimentalLevelCurve = "experimental.level_curve" // Alternative XP curves
	FeatureExperimentalWebhooks   = "experimental.webhooks"    // Real-time webhooks
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Gamification features - core loop, enabled by default
	ff.features[FeatureGamificationStreaks] = &Feature{
		Name:           FeatureGamificationStreaks,
		Description:    "Track daily activity streaks",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationAchievements] = &Feature{
		Name:           FeatureGamificationAchievements,
		Description:    "Evaluate and unlock achievements",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationBonusXP] = &Feature{
		Name:           FeatureGamificationBonusXP,
		Description:    "Award bonus XP when an achievement unlocks",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationStreakFreeze] = &Feature{
		Name:           FeatureGamificationStreakFreeze,
		Description:    "Keep a streak alive after a single missed day",
		Enabled:        false, // Phase 2
		RolloutPercent: 0,
	}

	// Leaderboard features
	ff.features[FeatureLeaderboardGlobal] = &Feature{
		Name:           FeatureLeaderboardGlobal,
		Description:    "All-time XP rankings",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardWindowed] = &Feature{
		Name:           FeatureLeaderboardWindowed,
		Description:    "Rankings over a sliding 7/30-day window",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardCache] = &Feature{
		Name:           FeatureLeaderboardCache,
		Description:    "Cache top rankings in Redis",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardByLevel] = &Feature{
		Name:           FeatureLeaderboardByLevel,
		Description:    "Rank users by level instead of XP",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Schedule features
	ff.features[FeatureSchedulePatterns] = &Feature{
		Name:           FeatureSchedulePatterns,
		Description:    "Recurring workout schedule patterns",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureScheduleCustom] = &Feature{
		Name:           FeatureScheduleCustom,
		Description:    "Custom N-times-per-week frequency",
		Enabled:        true,
		RolloutPercent: 50, // Gradual rollout
	}

	ff.features[FeatureScheduleAutoMater] = &Feature{
		Name:           FeatureScheduleAutoMater,
		Description:    "Materialize occurrences when a pattern is created",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalLevelCurve] = &Feature{
		Name:           FeatureExperimentalLevelCurve,
		Description:    "Alternative level progression curves",
		Enabled:        false,
		RolloutPercent: 0,
		Variants:       []string{"quadratic", "exponential"},
	}

	ff.features[FeatureExperimentalWebhooks] = &Feature{
		Name:           FeatureExperimentalWebhooks,
		Description:    "Real-time webhook updates",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_LEADERBOARD_WINDOWED=true
// Example: FEATURE_SCHEDULE_CUSTOM_FREQUENCY=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "leaderboard.windowed" -> "FEATURE_LEADERBOARD_WINDOWED"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check user overrides first
	if ctx != nil && ctx.UserID != "" {
		if userOverrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return ff.isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func (ff *FeatureFlags) isInRollout(userID string, featureName string, percent int) bool {
	// Create a consistent hash for this user+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// GetVariant returns the A/B test variant for a user.
// Returns empty string if no variants defined or feature disabled.
func (ff *FeatureFlags) GetVariant(featureName string, ctx *FeatureContext) string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	if !ok || !ff.isEnabledLocked(featureName, ctx) {
		return ""
	}

	if len(feature.Variants) == 0 || ctx == nil || ctx.UserID == "" {
		return ""
	}

	// Use consistent hashing to assign variant
	h := fnv.New32a()
	h.Write([]byte(featureName + "_variant"))
	h.Write([]byte(ctx.UserID))
	hash := h.Sum32()

	variantIndex := int(hash % uint32(len(feature.Variants)))
	return feature.Variants[variantIndex]
}

// isEnabledLocked mirrors IsEnabled without taking the lock.
// Caller must hold at least a read lock.
func (ff *FeatureFlags) isEnabledLocked(featureName string, ctx *FeatureContext) bool {
	if ctx != nil && ctx.UserID != "" {
		if userOverrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	if ctx != nil && ctx.IsAdmin {
		return true
	}

	if !feature.Enabled {
		return false
	}

	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return ff.isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(userID string, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		// Return a copy
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// GamificationEnabled checks if the core gamification loop is active.
func (ff *FeatureFlags) GamificationEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureGamificationStreaks, ctx) ||
		ff.IsEnabled(FeatureGamificationAchievements, ctx)
}

// LeaderboardEnabled checks if any leaderboard surface is active.
func (ff *FeatureFlags) LeaderboardEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureLeaderboardGlobal, ctx) ||
		ff.IsEnabled(FeatureLeaderboardWindowed, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
