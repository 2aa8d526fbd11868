package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERVAL SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

// IntervalSchedule fires at a fixed interval after the previous run.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a new IntervalSchedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}

// ══════════════════════════════════════════════════════════════════════════════
// CRON SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

// CronSchedule fires on a five-field cron expression
// (minute hour day-of-month month day-of-week). Each field accepts
// "*", single values, ranges (9-17), steps (*/10, 2-10/2) and lists
// (1,15). Day-of-week runs Sunday=0..Saturday=6; 7 also means Sunday.
//
// Like classic cron, when both day-of-month and day-of-week are
// restricted a date matching either one fires.
type CronSchedule struct {
	expr string

	// Bitmasks: bit N set means value N matches.
	minute  uint64
	hour    uint64
	day     uint64
	month   uint64
	weekday uint64

	dayStar     bool
	weekdayStar bool
}

// cronPresets are the descriptor shorthands accepted by ParseSchedule.
var cronPresets = map[string]string{
	"@hourly":   "0 * * * *",
	"@daily":    "0 0 * * *",
	"@midnight": "0 0 * * *",
	"@weekly":   "0 0 * * 0",
	"@monthly":  "0 0 1 * *",
}

// ParseSchedule builds a Schedule from a spec string: either
// "@every <duration>" for a fixed interval, a preset such as "@daily",
// or a five-field cron expression.
func ParseSchedule(spec string) (Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("scheduler: empty schedule spec")
	}

	if after, ok := strings.CutPrefix(spec, "@every "); ok {
		interval, err := time.ParseDuration(strings.TrimSpace(after))
		if err != nil || interval <= 0 {
			return nil, fmt.Errorf("scheduler: invalid interval spec %q", spec)
		}
		return NewIntervalSchedule(interval), nil
	}

	if expr, ok := cronPresets[spec]; ok {
		spec = expr
	}
	return ParseCron(spec)
}

// ParseCron parses a five-field cron expression.
func ParseCron(expr string) (*CronSchedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("scheduler: cron expression %q must have 5 fields, got %d", expr, len(fields))
	}

	s := &CronSchedule{
		expr:        expr,
		dayStar:     isWildcard(fields[2]),
		weekdayStar: isWildcard(fields[4]),
	}

	var err error
	if s.minute, err = parseCronField(fields[0], 0, 59); err != nil {
		return nil, fmt.Errorf("scheduler: cron minute field: %w", err)
	}
	if s.hour, err = parseCronField(fields[1], 0, 23); err != nil {
		return nil, fmt.Errorf("scheduler: cron hour field: %w", err)
	}
	if s.day, err = parseCronField(fields[2], 1, 31); err != nil {
		return nil, fmt.Errorf("scheduler: cron day field: %w", err)
	}
	if s.month, err = parseCronField(fields[3], 1, 12); err != nil {
		return nil, fmt.Errorf("scheduler: cron month field: %w", err)
	}
	if s.weekday, err = parseCronField(fields[4], 0, 7); err != nil {
		return nil, fmt.Errorf("scheduler: cron weekday field: %w", err)
	}
	// Fold 7 (alternate Sunday) onto 0.
	if s.weekday&(1<<7) != 0 {
		s.weekday |= 1
		s.weekday &^= 1 << 7
	}

	return s, nil
}

// MustParseCron is ParseCron that panics on error, for fixed
// expressions known at compile time.
func MustParseCron(expr string) *CronSchedule {
	s, err := ParseCron(expr)
	if err != nil {
		panic(err)
	}
	return s
}

// Next returns the first matching time strictly after t, at minute
// granularity, in t's location. It returns the zero time if nothing
// matches within four years (an impossible date such as Feb 30).
func (s *CronSchedule) Next(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location()).Add(time.Minute)
	limit := t.AddDate(4, 0, 0)

	for t.Before(limit) {
		switch {
		case s.month&bit(int(t.Month())) == 0:
			t = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
		case !s.dayMatches(t):
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
		case s.hour&bit(t.Hour()) == 0:
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location()).Add(time.Hour)
		case s.minute&bit(t.Minute()) == 0:
			t = t.Add(time.Minute)
		default:
			return t
		}
	}
	return time.Time{}
}

// String returns the original expression.
func (s *CronSchedule) String() string {
	return s.expr
}

func (s *CronSchedule) dayMatches(t time.Time) bool {
	dom := s.day&bit(t.Day()) != 0
	dow := s.weekday&bit(int(t.Weekday())) != 0
	if !s.dayStar && !s.weekdayStar {
		return dom || dow
	}
	return dom && dow
}

func bit(v int) uint64 {
	return 1 << uint(v)
}

func isWildcard(field string) bool {
	return field == "*" || strings.HasPrefix(field, "*/")
}

// parseCronField parses one cron field into a bitmask over [min, max].
func parseCronField(field string, min, max int) (uint64, error) {
	var mask uint64

	for _, part := range strings.Split(field, ",") {
		if part == "" {
			return 0, fmt.Errorf("empty element in %q", field)
		}

		body, step := part, 1
		if i := strings.IndexByte(part, '/'); i >= 0 {
			n, err := strconv.Atoi(part[i+1:])
			if err != nil || n <= 0 {
				return 0, fmt.Errorf("invalid step in %q", part)
			}
			body, step = part[:i], n
		}

		lo, hi := min, max
		switch {
		case body == "*":
			// full range
		case strings.Contains(body, "-"):
			bounds := strings.SplitN(body, "-", 2)
			var err error
			if lo, err = strconv.Atoi(bounds[0]); err != nil {
				return 0, fmt.Errorf("invalid range start in %q", part)
			}
			if hi, err = strconv.Atoi(bounds[1]); err != nil {
				return 0, fmt.Errorf("invalid range end in %q", part)
			}
		default:
			n, err := strconv.Atoi(body)
			if err != nil {
				return 0, fmt.Errorf("invalid value %q", part)
			}
			lo = n
			if step == 1 {
				hi = n
			}
			// "n/step" means every step-th value from n to max.
		}

		if lo < min || hi > max || lo > hi {
			return 0, fmt.Errorf("value out of range [%d, %d] in %q", min, max, part)
		}
		for v := lo; v <= hi; v += step {
			mask |= bit(v)
		}
	}

	return mask, nil
}
