package engine

import (
	"math"
	"sort"
	"time"
)

// MonthlySummary is a user's personal statistics for one calendar month.
// Only persisted records count: days with no record contribute to nothing,
// including the absent counter.
type MonthlySummary struct {
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	PresentDays int     `json:"present_days"`
	AbsentDays  int     `json:"absent_days"`
	LateDays    int     `json:"late_days"`
	TotalHours  float64 `json:"total_hours"`
}

// Summarize aggregates a user's records for one month. Records outside the
// month are the caller's filtering mistake and are skipped rather than
// miscounted. Half-day records contribute hours but none of the day counters.
func Summarize(records []*Record, year int, month time.Month) MonthlySummary {
	summary := MonthlySummary{Year: year, Month: int(month)}

	for _, rec := range records {
		if rec.Date.Year() != year || rec.Date.Month() != month {
			continue
		}

		switch rec.Status {
		case StatusPresent:
			summary.PresentDays++
		case StatusLate:
			summary.LateDays++
		case StatusAbsent:
			summary.AbsentDays++
		}

		if rec.TotalHours != nil {
			summary.TotalHours += *rec.TotalHours
		}
	}

	summary.TotalHours = math.Round(summary.TotalHours*100) / 100
	return summary
}

// DailyRollup is the organization-wide picture for a single day: counts over
// the roster, the attendance rate, and the roster entries with no record.
type DailyRollup struct {
	Date           time.Time  `json:"date"`
	TotalEmployees int        `json:"total_employees"`
	Present        int        `json:"present"`
	Late           int        `json:"late"`
	Absent         int        `json:"absent"`
	AttendanceRate float64    `json:"attendance_rate"`
	NotCheckedIn   []Employee `json:"not_checked_in"`
}

// RollupDay computes the daily rollup from the employee roster and that
// day's records. Absence is by subtraction: a roster entry with no record is
// absent for this view even though nothing was persisted. Records belonging
// to users outside the roster (managers, deactivated accounts) are ignored.
// An empty roster yields all zeros, never a division by zero.
func RollupDay(date time.Time, roster []Employee, records []*Record) DailyRollup {
	rollup := DailyRollup{
		Date:           DateOf(date),
		TotalEmployees: len(roster),
		NotCheckedIn:   []Employee{},
	}

	onRoster := make(map[string]bool, len(roster))
	for _, emp := range roster {
		onRoster[emp.UserID] = true
	}

	byUser := make(map[string]Status, len(records))
	for _, rec := range records {
		if onRoster[rec.UserID] {
			byUser[rec.UserID] = rec.Status
		}
	}

	for _, emp := range roster {
		status, ok := byUser[emp.UserID]
		if !ok {
			rollup.Absent++
			rollup.NotCheckedIn = append(rollup.NotCheckedIn, emp)
			continue
		}
		switch status {
		case StatusPresent:
			rollup.Present++
		case StatusLate:
			rollup.Late++
		default:
			// Absent and half-day records both land in the absent bucket.
			rollup.Absent++
		}
	}

	if rollup.TotalEmployees > 0 {
		rate := float64(rollup.Present+rollup.Late) / float64(rollup.TotalEmployees) * 100
		rollup.AttendanceRate = math.Round(rate*100) / 100
	}
	return rollup
}

// TrendDay is one entry of the weekly trend.
type TrendDay struct {
	Date    time.Time `json:"date"`
	Present int       `json:"present"`
	Absent  int       `json:"absent"`
}

// TrailingDays returns the n calendar dates ending at the given day,
// oldest first.
func TrailingDays(end time.Time, n int) []time.Time {
	days := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		days = append(days, DateOf(end.AddDate(0, 0, -i)))
	}
	return days
}

// Trend buckets records into the given days, oldest first, and returns one
// entry per day even when no records fall on it. Present counts records
// whose status counts as presence; everything else persisted counts as
// absent. Days with no records at all read as zero activity, not as
// roster-wide absence.
func Trend(days []time.Time, records []*Record) []TrendDay {
	trend := make([]TrendDay, len(days))
	index := make(map[string]int, len(days))
	for i, day := range days {
		trend[i] = TrendDay{Date: day}
		index[day.Format("2006-01-02")] = i
	}

	for _, rec := range records {
		i, ok := index[rec.Date.Format("2006-01-02")]
		if !ok {
			continue
		}
		if rec.Status.CountsAsPresent() {
			trend[i].Present++
		} else {
			trend[i].Absent++
		}
	}
	return trend
}

// DepartmentPresence is one department's presence for a day.
type DepartmentPresence struct {
	Department string `json:"department"`
	Total      int    `json:"total"`
	Present    int    `json:"present"`
}

// ByDepartment groups the roster by department and counts how many members
// have a presence-counting record for the day. Departments come back sorted
// by name so the view is deterministic.
func ByDepartment(roster []Employee, records []*Record) []DepartmentPresence {
	present := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.Status.CountsAsPresent() {
			present[rec.UserID] = true
		}
	}

	byName := make(map[string]*DepartmentPresence)
	for _, emp := range roster {
		dept, ok := byName[emp.Department]
		if !ok {
			dept = &DepartmentPresence{Department: emp.Department}
			byName[emp.Department] = dept
		}
		dept.Total++
		if present[emp.UserID] {
			dept.Present++
		}
	}

	out := make([]DepartmentPresence, 0, len(byName))
	for _, dept := range byName {
		out = append(out, *dept)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Department < out[j].Department })
	return out
}
