package services

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

// Time window policies. Both windows are half-open clock intervals
// [start, end) in local wall-clock time. Office hours apply Mon-Fri and feed
// work-time arithmetic; the launch window applies every day and constrains
// only when a new print job may start. Jobs already printing may finish
// outside either window.

// ClockTime is a wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

func (c ClockTime) minutes() int {
	return c.Hour*60 + c.Minute
}

// ParseClockTime parses an "HH:MM" string.
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return ClockTime{}, fmt.Errorf("invalid hour in clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return ClockTime{}, fmt.Errorf("invalid minute in clock time %q", s)
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

// OfficeHours is the Mon-Fri working window used for work-time arithmetic.
type OfficeHours struct {
	Start ClockTime
	End   ClockTime
}

// DefaultOfficeHours returns the standard 09:30-19:00 office window.
func DefaultOfficeHours() OfficeHours {
	return OfficeHours{
		Start: ClockTime{Hour: 9, Minute: 30},
		End:   ClockTime{Hour: 19, Minute: 0},
	}
}

// OfficeHoursFromStrings builds an OfficeHours from "HH:MM" strings, falling
// back to the default window when either fails to parse or the end does not
// come after the start. Work-time arithmetic requires a non-empty window.
func OfficeHoursFromStrings(start, end string) OfficeHours {
	s, errS := ParseClockTime(start)
	e, errE := ParseClockTime(end)
	if errS != nil || errE != nil || e.minutes() <= s.minutes() {
		log.Printf("Invalid office hours %q-%q, using defaults", start, end)
		return DefaultOfficeHours()
	}
	return OfficeHours{Start: s, End: e}
}

// WorkDayMinutes is the amount of work time available in one office day.
func (o OfficeHours) WorkDayMinutes() int {
	return o.End.minutes() - o.Start.minutes()
}

// Contains reports whether t falls inside office hours (Mon-Fri, [start, end)).
func (o OfficeHours) Contains(t time.Time) bool {
	day := t.Weekday()
	if day == time.Saturday || day == time.Sunday {
		return false
	}
	mins := t.Hour()*60 + t.Minute()
	return mins >= o.Start.minutes() && mins < o.End.minutes()
}

// NextStart returns t unchanged if it is inside office hours, otherwise the
// next moment the office opens (skipping weekends).
func (o OfficeHours) NextStart(t time.Time) time.Time {
	if o.Contains(t) {
		return t
	}

	mins := t.Hour()*60 + t.Minute()
	day := t.Weekday()

	if day != time.Saturday && day != time.Sunday && mins < o.Start.minutes() {
		return atClockTime(t, o.Start)
	}

	next := atClockTime(t.AddDate(0, 0, 1), o.Start)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// AddWorkMinutes advances start by `minutes` of work time, skipping nights
// and weekends. Work that does not fit in the current office day carries over
// to the next office day's start.
func (o OfficeHours) AddWorkMinutes(start time.Time, minutes int) time.Time {
	if minutes <= 0 {
		return start
	}

	cursor := o.NextStart(start)
	remaining := minutes

	for remaining > 0 {
		cursorMins := cursor.Hour()*60 + cursor.Minute()
		availableToday := o.End.minutes() - cursorMins

		if remaining <= availableToday {
			cursor = cursor.Add(time.Duration(remaining) * time.Minute)
			remaining = 0
		} else {
			remaining -= availableToday
			cursor = atClockTime(cursor.AddDate(0, 0, 1), o.Start)
			for cursor.Weekday() == time.Saturday || cursor.Weekday() == time.Sunday {
				cursor = cursor.AddDate(0, 0, 1)
			}
		}
	}

	return cursor
}

// LaunchWindow is the daily interval during which new print jobs may start.
// Unlike office hours it includes weekends.
type LaunchWindow struct {
	Start ClockTime
	End   ClockTime
}

// DefaultLaunchWindow returns the standard 09:30-19:30 launch window.
func DefaultLaunchWindow() LaunchWindow {
	return LaunchWindow{
		Start: ClockTime{Hour: 9, Minute: 30},
		End:   ClockTime{Hour: 19, Minute: 30},
	}
}

// LaunchWindowFromStrings builds a LaunchWindow from "HH:MM" strings, falling
// back to the default window when either fails to parse or the end does not
// come after the start.
func LaunchWindowFromStrings(start, end string) LaunchWindow {
	s, errS := ParseClockTime(start)
	e, errE := ParseClockTime(end)
	if errS != nil || errE != nil || e.minutes() <= s.minutes() {
		log.Printf("Invalid launch window %q-%q, using defaults", start, end)
		return DefaultLaunchWindow()
	}
	return LaunchWindow{Start: s, End: e}
}

// Contains reports whether t falls inside the launch window.
func (w LaunchWindow) Contains(t time.Time) bool {
	mins := t.Hour()*60 + t.Minute()
	return mins >= w.Start.minutes() && mins < w.End.minutes()
}

// NextStart returns t unchanged if it is inside the window, the same day's
// start if t precedes it, or the next day's start if t is past the end.
func (w LaunchWindow) NextStart(t time.Time) time.Time {
	if w.Contains(t) {
		return t
	}

	mins := t.Hour()*60 + t.Minute()
	if mins < w.Start.minutes() {
		return atClockTime(t, w.Start)
	}
	return atClockTime(t.AddDate(0, 0, 1), w.Start)
}

// WallClockMinutes is the real-time minutes between two instants.
func WallClockMinutes(start, end time.Time) float64 {
	return end.Sub(start).Minutes()
}

// AddRealMinutes advances start by wall-clock minutes, ignoring any window.
func AddRealMinutes(start time.Time, minutes int) time.Time {
	return start.Add(time.Duration(minutes) * time.Minute)
}

func atClockTime(t time.Time, c ClockTime) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, 0, 0, t.Location())
}
