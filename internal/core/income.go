package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type IncomeType string

const (
	IncomeSingle  IncomeType = "unica"
	IncomeMonthly IncomeType = "mensal"
	IncomeRanged  IncomeType = "intervalo"
)

const maxDescriptionLen = 200

// Schedule decides when an income counts. Each income type is one
// implementation; there is no field-presence dispatch.
type Schedule interface {
	Type() IncomeType
	// Anchor is the date the income is recorded under.
	Anchor() Date
	// Matches reports whether the income contributes to the closed window.
	Matches(w Window) bool
	// Occurrences lists the months of year the income lands in.
	Occurrences(year int) []Occurrence
	schedule()
}

// Occurrence is one projected landing of an income inside a year.
type Occurrence struct {
	Date  Date
	Month int
	// Suffix is appended to the income description, empty when the
	// description is used as is.
	Suffix string
}

// Single happens once.
type Single struct {
	On Date
}

// Monthly repeats on the same day every month from Start onward.
type Monthly struct {
	Start Date
}

// Ranged repeats monthly from Start through End inclusive.
type Ranged struct {
	Start Date
	End   Date
}

func (Single) schedule()  {}
func (Monthly) schedule() {}
func (Ranged) schedule()  {}

func (Single) Type() IncomeType  { return IncomeSingle }
func (Monthly) Type() IncomeType { return IncomeMonthly }
func (Ranged) Type() IncomeType  { return IncomeRanged }

func (s Single) Anchor() Date  { return s.On }
func (s Monthly) Anchor() Date { return s.Start }
func (s Ranged) Anchor() Date  { return s.Start }

func (s Single) Matches(w Window) bool {
	return w.Contains(s.On)
}

// Matches holds once the income has started on or before the window end.
// There is no upper bound.
func (s Monthly) Matches(w Window) bool {
	return !s.Start.After(w.End)
}

func (s Ranged) Matches(w Window) bool {
	return !s.Start.After(w.End) && !s.End.Before(w.Start)
}

func (s Single) Occurrences(year int) []Occurrence {
	if s.On.Year() != year {
		return nil
	}
	return []Occurrence{{Date: s.On, Month: int(s.On.Month())}}
}

func (s Monthly) Occurrences(year int) []Occurrence {
	if s.Start.Year() > year {
		return nil
	}
	from := 1
	if s.Start.Year() == year {
		from = int(s.Start.Month())
	}
	out := make([]Occurrence, 0, 12-from+1)
	for m := from; m <= 12; m++ {
		out = append(out, Occurrence{
			Date:  DateInMonth(year, time.Month(m), s.Start.Day()),
			Month: m,
		})
	}
	return out
}

// Occurrences is month granular: every month touched by [Start, End] gets an
// event dated on Start's day of month, clamped.
func (s Ranged) Occurrences(year int) []Occurrence {
	if s.Start.Year() > year || s.End.Year() < year {
		return nil
	}
	from, to := 1, 12
	if s.Start.Year() == year {
		from = int(s.Start.Month())
	}
	if s.End.Year() == year {
		to = int(s.End.Month())
	}
	var out []Occurrence
	for m := from; m <= to; m++ {
		out = append(out, Occurrence{
			Date:   DateInMonth(year, time.Month(m), s.Start.Day()),
			Month:  m,
			Suffix: fmt.Sprintf(" (Mês %d)", m),
		})
	}
	return out
}

// NewSchedule builds the variant named by t. For ranged incomes start falls
// back to date when empty.
func NewSchedule(t IncomeType, date, start, end Date) (Schedule, error) {
	v := &ValidationError{}
	switch t {
	case IncomeSingle, IncomeMonthly:
		if date.IsZero() {
			v.Add("date", "is required")
			return nil, v
		}
		if t == IncomeSingle {
			return Single{On: date}, nil
		}
		return Monthly{Start: date}, nil
	case IncomeRanged:
		if start.IsZero() {
			start = date
		}
		if start.IsZero() {
			v.Add("date", "is required")
		}
		if end.IsZero() {
			v.Add("endDate", "is required for intervalo incomes")
		}
		if err := v.OrNil(); err != nil {
			return nil, err
		}
		if end.Before(start) {
			return nil, NewValidationError("endDate", "must be on or after the start date")
		}
		return Ranged{Start: start, End: end}, nil
	case "":
		return nil, NewValidationError("type", "is required")
	default:
		return nil, NewValidationError("type", fmt.Sprintf("unknown income type %q", t))
	}
}

// Income is a persisted income record.
type Income struct {
	ID          string
	UserID      string
	Description string
	Amount      decimal.Decimal
	Schedule    Schedule
	CreatedAt   time.Time
}

// IncomeRecord is the flat shape incomes are stored, exchanged and
// submitted in.
type IncomeRecord struct {
	ID          string          `json:"id,omitempty"`
	UserID      string          `json:"userId,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        Date            `json:"date"`
	Type        IncomeType      `json:"type"`
	StartDate   *Date           `json:"startDate,omitempty"`
	EndDate     *Date           `json:"endDate,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Income validates the record and builds the typed income.
func (r IncomeRecord) Income() (Income, error) {
	v := &ValidationError{}
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		v.Add("description", "is required")
	} else if len(desc) > maxDescriptionLen {
		v.Add("description", "too long (max 200 characters)")
	}
	if !r.Amount.IsPositive() {
		v.Add("amount", "must be greater than zero")
	}
	var start, end Date
	if r.StartDate != nil {
		start = *r.StartDate
	}
	if r.EndDate != nil {
		end = *r.EndDate
	}
	sched, err := NewSchedule(r.Type, r.Date, start, end)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			v.Merge("", ve)
		}
	}
	if err := v.OrNil(); err != nil {
		return Income{}, err
	}
	return Income{
		ID:          r.ID,
		UserID:      r.UserID,
		Description: desc,
		Amount:      r.Amount,
		Schedule:    sched,
		CreatedAt:   r.CreatedAt,
	}, nil
}

// Record flattens the income.
func (i Income) Record() IncomeRecord {
	rec := IncomeRecord{
		ID:          i.ID,
		UserID:      i.UserID,
		Description: i.Description,
		Amount:      i.Amount,
		CreatedAt:   i.CreatedAt,
	}
	if i.Schedule == nil {
		return rec
	}
	rec.Type = i.Schedule.Type()
	rec.Date = i.Schedule.Anchor()
	if r, ok := i.Schedule.(Ranged); ok {
		start, end := r.Start, r.End
		rec.StartDate = &start
		rec.EndDate = &end
	}
	return rec
}

// Type returns the schedule type.
func (i Income) Type() IncomeType {
	if i.Schedule == nil {
		return ""
	}
	return i.Schedule.Type()
}

// Date returns the anchor date of the schedule.
func (i Income) Date() Date {
	if i.Schedule == nil {
		return Date{}
	}
	return i.Schedule.Anchor()
}

func (i Income) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.Record())
}
