package period

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Period identifies one calendar year-month billing cycle. It is stored
// as a "YYYY-MM" string, which is also the wire form used in job
// parameters.
type Period struct {
	Year  int
	Month time.Month
}

var ErrInvalidPeriod = errors.New("invalid_period")

const layout = "2006-01"

func Parse(value string) (Period, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, value)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// Of returns the period containing t.
func Of(t time.Time) Period {
	t = t.UTC()
	return Period{Year: t.Year(), Month: t.Month()}
}

// Previous returns the period immediately before p.
func (p Period) Previous() Period {
	start := p.Start().AddDate(0, -1, 0)
	return Of(start)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Start returns the first instant of the period in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last instant of the period in UTC. Both bounds are
// inclusive when matching completion timestamps.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0).Add(-time.Nanosecond)
}

func (p Period) Before(other Period) bool {
	return p.Start().Before(other.Start())
}

func (p Period) After(other Period) bool {
	return p.Start().After(other.Start())
}

func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start()) && !t.After(p.End())
}

// MarshalJSON renders the period as a "YYYY-MM" string.
func (p Period) MarshalJSON() ([]byte, error) {
	if p.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + p.String() + `"`), nil
}

func (p *Period) UnmarshalJSON(data []byte) error {
	value := strings.Trim(string(data), `"`)
	if value == "" || value == "null" {
		*p = Period{}
		return nil
	}
	parsed, err := Parse(value)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Value implements driver.Valuer so Period columns persist as "YYYY-MM".
func (p Period) Value() (driver.Value, error) {
	if p.IsZero() {
		return nil, nil
	}
	return p.String(), nil
}

// Scan implements sql.Scanner.
func (p *Period) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = Period{}
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	case []byte:
		return p.Scan(string(v))
	default:
		return fmt.Errorf("%w: unsupported source %T", ErrInvalidPeriod, src)
	}
}
