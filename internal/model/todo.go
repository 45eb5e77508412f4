package model

import (
	"fmt"
	"time"
)

// Date is a calendar day in YYYY-MM-DD form, the format the todo API uses.
type Date string

const dateLayout = "2006-01-02"

// ParseDate validates s and returns it as a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Date(t.Format(dateLayout)), nil
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date { return Date(t.Format(dateLayout)) }

// Today is the current local day.
func Today() Date { return DateOf(time.Now()) }

// Time returns midnight UTC of d. Invalid dates yield the zero time.
func (d Date) Time() time.Time {
	t, _ := time.Parse(dateLayout, string(d))
	return t
}

// AddDays moves d by n days.
func (d Date) AddDays(n int) Date { return DateOf(d.Time().AddDate(0, 0, n)) }

func (d Date) String() string { return string(d) }

// RepeatType is how an alarm repeats.
type RepeatType string

const (
	RepeatNone    RepeatType = "none"
	RepeatDaily   RepeatType = "daily"
	RepeatWeekly  RepeatType = "weekly"
	RepeatMonthly RepeatType = "monthly"
)

// ParseRepeat maps user input to a RepeatType; empty means none.
func ParseRepeat(s string) (RepeatType, error) {
	switch RepeatType(s) {
	case "", RepeatNone:
		return RepeatNone, nil
	case RepeatDaily, RepeatWeekly, RepeatMonthly:
		return RepeatType(s), nil
	}
	return "", fmt.Errorf("unknown repeat type %q", s)
}

// Todo is one entry on a calendar day.
type Todo struct {
	ID              int         `json:"id" yaml:"id"`
	Title           string      `json:"title" yaml:"title"`
	Completed       bool        `json:"completed" yaml:"completed"`
	Categories      []Category  `json:"categories" yaml:"categories"`
	Date            Date        `json:"date" yaml:"date"`
	AlarmTime       *string     `json:"alarm_time,omitempty" yaml:"alarm_time,omitempty"` // HH:MM
	AlarmRepeatType *RepeatType `json:"alarm_repeat_type,omitempty" yaml:"alarm_repeat_type,omitempty"`
}

// CategoryIDs returns the ids of the todo's categories.
func (t Todo) CategoryIDs() []int {
	ids := make([]int, 0, len(t.Categories))
	for _, c := range t.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// Clone copies the todo including its category slice and alarm pointers.
func (t Todo) Clone() Todo {
	out := t
	if t.Categories != nil {
		out.Categories = make([]Category, len(t.Categories))
		copy(out.Categories, t.Categories)
	}
	if t.AlarmTime != nil {
		v := *t.AlarmTime
		out.AlarmTime = &v
	}
	if t.AlarmRepeatType != nil {
		v := *t.AlarmRepeatType
		out.AlarmRepeatType = &v
	}
	return out
}

// ParseAlarmTime validates an HH:MM alarm time.
func ParseAlarmTime(s string) (string, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return "", fmt.Errorf("invalid alarm time %q: want HH:MM", s)
	}
	return t.Format("15:04"), nil
}
