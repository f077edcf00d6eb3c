package rule

import (
	"fmt"
	"time"
)

// MaxLastAccessedDays bounds LastAccessedRule so the threshold stays a valid
// calendar date.
const MaxLastAccessedDays int64 = 1_000_000

// LastAccessedRule matches files that have not been accessed for more than
// the configured number of days. The threshold is computed at match time.
type LastAccessedRule struct {
	days int64
}

type lastAccessedRecord struct {
	Type Type  `json:"type"`
	Days int64 `json:"days"`
}

func NewLastAccessedRule(days int64) (LastAccessedRule, error) {
	if days < 0 {
		return LastAccessedRule{}, fmt.Errorf("%w: number of days cannot be negative", ErrInvalidRule)
	}
	if days > MaxLastAccessedDays {
		return LastAccessedRule{}, fmt.Errorf("%w: number of days cannot exceed %d", ErrInvalidRule, MaxLastAccessedDays)
	}
	return LastAccessedRule{days: days}, nil
}

func (r LastAccessedRule) Days() int64 {
	return r.days
}

func (r LastAccessedRule) Type() Type {
	return TypeLastAccessed
}

func (r LastAccessedRule) Key() string {
	return fmt.Sprintf("%s/days=%d", TypeLastAccessed, r.days)
}

func (r LastAccessedRule) Match(env *Env, path string) (bool, error) {
	accessed, err := env.accessTime(path)
	if err != nil {
		return false, fmt.Errorf("failed to read access time of '%s': %w", path, err)
	}

	threshold := env.now().AddDate(0, 0, -int(r.days))
	return accessed.Before(threshold), nil
}

func (r LastAccessedRule) String() string {
	return fmt.Sprintf("Older than %d days", r.days)
}

func (r LastAccessedRule) record() any {
	return lastAccessedRecord{Type: TypeLastAccessed, Days: r.days}
}

// AccessedAfterRule matches files accessed after a fixed point in time.
//
// Deprecated: kept to load group documents written with an absolute
// timestamp. New groups use LastAccessedRule.
type AccessedAfterRule struct {
	millis int64
}

type accessedAfterRecord struct {
	Type Type  `json:"type"`
	Time int64 `json:"Time"`
}

func NewAccessedAfterRule(t time.Time) AccessedAfterRule {
	return AccessedAfterRule{millis: t.UnixMilli()}
}

func (r AccessedAfterRule) Time() time.Time {
	return time.UnixMilli(r.millis)
}

func (r AccessedAfterRule) Type() Type {
	return TypeLastAccessed
}

func (r AccessedAfterRule) Key() string {
	return fmt.Sprintf("%s/time=%d", TypeLastAccessed, r.millis)
}

func (r AccessedAfterRule) Match(env *Env, path string) (bool, error) {
	accessed, err := env.accessTime(path)
	if err != nil {
		return false, fmt.Errorf("failed to read access time of '%s': %w", path, err)
	}
	return accessed.UnixMilli() > r.millis, nil
}

func (r AccessedAfterRule) String() string {
	return "Accessed after " + r.Time().Format(time.RFC3339)
}

func (r AccessedAfterRule) record() any {
	return accessedAfterRecord{Type: TypeLastAccessed, Time: r.millis}
}
