package scheduler

import "time"

// Schedule decides when a job runs next.
type Schedule interface {
	// Next returns the first run time strictly after the given instant.
	Next(after time.Time) time.Time
}

// IntervalSchedule runs a job at a fixed interval.
type IntervalSchedule struct {
	interval time.Duration
}

// Every creates an IntervalSchedule.
func Every(interval time.Duration) IntervalSchedule {
	if interval <= 0 {
		interval = time.Minute
	}
	return IntervalSchedule{interval: interval}
}

// Next returns after + interval.
func (s IntervalSchedule) Next(after time.Time) time.Time {
	return after.Add(s.interval)
}

// DailySchedule runs a job once a day at a fixed local time. The location
// should be the platform time zone so runs line up with snapshot days.
type DailySchedule struct {
	hour   int
	minute int
	loc    *time.Location
}

// DailyAt creates a DailySchedule.
func DailyAt(hour, minute int, loc *time.Location) DailySchedule {
	if loc == nil {
		loc = time.UTC
	}
	return DailySchedule{hour: hour, minute: minute, loc: loc}
}

// Next returns the next occurrence of the configured wall-clock time.
func (s DailySchedule) Next(after time.Time) time.Time {
	local := after.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// WeeklySchedule runs a job once a week on a fixed weekday and local time.
type WeeklySchedule struct {
	weekday time.Weekday
	hour    int
	minute  int
	loc     *time.Location
}

// WeeklyAt creates a WeeklySchedule.
func WeeklyAt(weekday time.Weekday, hour, minute int, loc *time.Location) WeeklySchedule {
	if loc == nil {
		loc = time.UTC
	}
	return WeeklySchedule{weekday: weekday, hour: hour, minute: minute, loc: loc}
}

// Next returns the next occurrence of the configured weekday and time.
func (s WeeklySchedule) Next(after time.Time) time.Time {
	local := after.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)

	days := (int(s.weekday) - int(next.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if !next.After(after) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}
