// Package postgres implements the PostgreSQL persistence layer for Momentum.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE GAMIFICATION
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create gamification tables
-- Version: 001
-- Purpose: user progress profiles, the append-only XP journal and achievements

-- Gamification profile: one row per user, authoritative progress state.
CREATE TABLE IF NOT EXISTS user_profiles (
    user_id UUID PRIMARY KEY,
    total_xp INTEGER NOT NULL DEFAULT 0,
    current_level INTEGER NOT NULL DEFAULT 1,
    streak_count INTEGER NOT NULL DEFAULT 0,
    last_activity_at TIMESTAMP WITH TIME ZONE,
    timezone VARCHAR(64) NOT NULL DEFAULT 'UTC',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Constraints for data integrity
    CONSTRAINT valid_total_xp CHECK (total_xp >= 0),
    CONSTRAINT valid_level CHECK (current_level >= 1),
    CONSTRAINT valid_streak CHECK (streak_count >= 0)
);

-- Leaderboard queries by lifetime XP and level
CREATE INDEX IF NOT EXISTS idx_user_profiles_total_xp ON user_profiles(total_xp DESC, user_id);
CREATE INDEX IF NOT EXISTS idx_user_profiles_level ON user_profiles(current_level DESC, user_id);

-- Append-only XP journal. Never updated, never deleted; source of truth
-- for windowed leaderboards and achievement statistics.
CREATE TABLE IF NOT EXISTS xp_transactions (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES user_profiles(user_id) ON DELETE CASCADE,
    action_type VARCHAR(30) NOT NULL,
    module_id VARCHAR(50) NOT NULL DEFAULT '',
    difficulty VARCHAR(10) NOT NULL DEFAULT 'easy',
    xp_awarded INTEGER NOT NULL,
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_action_type CHECK (action_type IN (
        'goal_created', 'goal_progress', 'goal_completed',
        'workout_completed', 'habit_checked', 'achievement_bonus'
    )),
    CONSTRAINT valid_difficulty CHECK (difficulty IN ('easy', 'medium', 'hard', 'expert')),
    CONSTRAINT valid_xp_awarded CHECK (xp_awarded >= 0)
);

CREATE INDEX IF NOT EXISTS idx_xp_transactions_user ON xp_transactions(user_id, occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_xp_transactions_window ON xp_transactions(occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_xp_transactions_user_action ON xp_transactions(user_id, action_type);

-- Achievement catalog (administered, read-mostly)
CREATE TABLE IF NOT EXISTS achievements (
    id VARCHAR(50) PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    module_id VARCHAR(50) NOT NULL DEFAULT '',
    condition_kind VARCHAR(30) NOT NULL,
    condition_threshold INTEGER NOT NULL,
    xp_reward INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_condition_kind CHECK (condition_kind IN (
        'goals_created', 'goals_completed', 'streak', 'module_goals_completed'
    )),
    CONSTRAINT valid_threshold CHECK (condition_threshold >= 1),
    CONSTRAINT valid_xp_reward CHECK (xp_reward >= 0)
);

-- Unlock facts. The primary key makes unlocks idempotent: a concurrent
-- second unlock loses on INSERT ... ON CONFLICT DO NOTHING.
CREATE TABLE IF NOT EXISTS user_achievements (
    user_id UUID NOT NULL REFERENCES user_profiles(user_id) ON DELETE CASCADE,
    achievement_id VARCHAR(50) NOT NULL REFERENCES achievements(id) ON DELETE CASCADE,
    unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, achievement_id)
);

CREATE INDEX IF NOT EXISTS idx_user_achievements_user ON user_achievements(user_id, unlocked_at DESC);

-- Updated_at trigger function for automatic timestamp updates
CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = NOW();
    RETURN NEW;
END;
$$ language 'plpgsql';

DROP TRIGGER IF EXISTS update_user_profiles_updated_at ON user_profiles;
CREATE TRIGGER update_user_profiles_updated_at
    BEFORE UPDATE ON user_profiles
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();

-- Starter catalog. ON CONFLICT keeps re-runs idempotent and lets
-- operators override rows without fighting the migration.
INSERT INTO achievements (id, name, module_id, condition_kind, condition_threshold, xp_reward) VALUES
    ('first-goal',      'First Step',        '',        'goals_created',          1,   25),
    ('goal-getter',     'Goal Getter',       '',        'goals_completed',        10,  100),
    ('finisher-50',     'Finisher',          '',        'goals_completed',        50,  300),
    ('week-streak',     'One Week Strong',   '',        'streak',                 7,   75),
    ('month-streak',    'Unstoppable',       '',        'streak',                 30,  250),
    ('fitness-five',    'Gym Regular',       'fitness', 'module_goals_completed', 5,   50)
ON CONFLICT (id) DO NOTHING;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create schedule tables
-- Version: 002
-- Purpose: recurring workout patterns and their materialized occurrences

CREATE TABLE IF NOT EXISTS recurring_patterns (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    workout_template_id VARCHAR(100) NOT NULL,
    frequency VARCHAR(10) NOT NULL,
    days_of_week INTEGER[] NOT NULL DEFAULT '{}',
    times_per_week INTEGER NOT NULL DEFAULT 0,
    start_date DATE NOT NULL,
    end_date DATE,
    duration_weeks INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_frequency CHECK (frequency IN ('daily', 'weekly', 'custom')),
    CONSTRAINT valid_times_per_week CHECK (times_per_week >= 0 AND times_per_week <= 7),
    CONSTRAINT valid_date_range CHECK (end_date IS NULL OR end_date >= start_date)
);

CREATE INDEX IF NOT EXISTS idx_recurring_patterns_user ON recurring_patterns(user_id, created_at DESC);

-- One occurrence per pattern per calendar date. The unique constraint is
-- what makes materialization re-runs idempotent.
CREATE TABLE IF NOT EXISTS scheduled_occurrences (
    id UUID PRIMARY KEY,
    pattern_id UUID NOT NULL REFERENCES recurring_patterns(id) ON DELETE CASCADE,
    user_id UUID NOT NULL,
    scheduled_for DATE NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(pattern_id, scheduled_for),
    CONSTRAINT valid_occurrence_status CHECK (status IN ('scheduled', 'completed', 'skipped'))
);

CREATE INDEX IF NOT EXISTS idx_scheduled_occurrences_pattern ON scheduled_occurrences(pattern_id, scheduled_for);
CREATE INDEX IF NOT EXISTS idx_scheduled_occurrences_user ON scheduled_occurrences(user_id, scheduled_for);
`
