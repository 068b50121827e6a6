package applib

import (
	"cmp"
	"fmt"
	"time"
)

// LocalDate is a calendar date without a time zone.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// LocalTime is a wall-clock time without a date or time zone.
type LocalTime struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// LocalDateTime is a date and wall-clock time without a time zone.
type LocalDateTime struct {
	Date LocalDate
	Time LocalTime
}

// LocalDateOf returns the date in which t occurs, in t's location.
func LocalDateOf(t time.Time) LocalDate {
	y, m, d := t.Date()
	return LocalDate{Year: y, Month: m, Day: d}
}

// LocalTimeOf returns the wall-clock time of t, in t's location.
func LocalTimeOf(t time.Time) LocalTime {
	return LocalTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}
}

// LocalDateTimeOf returns the date and wall-clock time of t, in t's location.
func LocalDateTimeOf(t time.Time) LocalDateTime {
	return LocalDateTime{Date: LocalDateOf(t), Time: LocalTimeOf(t)}
}

// In returns the instant at midnight of d in loc.
func (d LocalDate) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// IsValid reports whether d names an existing calendar day.
func (d LocalDate) IsValid() bool {
	return LocalDateOf(d.In(time.UTC)) == d
}

// Compare orders dates chronologically.
func (d LocalDate) Compare(other LocalDate) int {
	if c := cmp.Compare(d.Year, other.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(d.Month, other.Month); c != 0 {
		return c
	}
	return cmp.Compare(d.Day, other.Day)
}

// String returns the ISO-8601 form, e.g. 2024-03-01.
func (d LocalDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// In returns the instant of t on the zero date in loc.
func (t LocalTime) In(loc *time.Location) time.Time {
	return time.Date(0, time.January, 1, t.Hour, t.Minute, t.Second, t.Nanosecond, loc)
}

// IsValid reports whether every field is within range.
func (t LocalTime) IsValid() bool {
	return t.Hour >= 0 && t.Hour < 24 &&
		t.Minute >= 0 && t.Minute < 60 &&
		t.Second >= 0 && t.Second < 60 &&
		t.Nanosecond >= 0 && t.Nanosecond < int(time.Second)
}

// Compare orders times of day.
func (t LocalTime) Compare(other LocalTime) int {
	return cmp.Compare(t.nanos(), other.nanos())
}

func (t LocalTime) nanos() int64 {
	return int64(t.Hour)*int64(time.Hour) +
		int64(t.Minute)*int64(time.Minute) +
		int64(t.Second)*int64(time.Second) +
		int64(t.Nanosecond)
}

// String returns the ISO-8601 form, e.g. 09:30:00.
func (t LocalTime) String() string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Nanosecond != 0 {
		s += fmt.Sprintf(".%09d", t.Nanosecond)
	}
	return s
}

// In returns the instant of dt in loc.
func (dt LocalDateTime) In(loc *time.Location) time.Time {
	return time.Date(dt.Date.Year, dt.Date.Month, dt.Date.Day,
		dt.Time.Hour, dt.Time.Minute, dt.Time.Second, dt.Time.Nanosecond, loc)
}

// IsValid reports whether both parts are valid.
func (dt LocalDateTime) IsValid() bool {
	return dt.Date.IsValid() && dt.Time.IsValid()
}

// Compare orders date-times chronologically.
func (dt LocalDateTime) Compare(other LocalDateTime) int {
	if c := dt.Date.Compare(other.Date); c != 0 {
		return c
	}
	return dt.Time.Compare(other.Time)
}

// String returns the ISO-8601 form, e.g. 2024-03-01T09:30:00.
func (dt LocalDateTime) String() string {
	return dt.Date.String() + "T" + dt.Time.String()
}
