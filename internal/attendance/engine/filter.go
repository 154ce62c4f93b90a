package engine

import "time"

// JoinedRecord is a record joined with its owner's profile fields, the shape
// the manager browse and export views work with.
type JoinedRecord struct {
	Record
	EmployeeID   string `db:"employee_id" json:"employee_id"`
	EmployeeName string `db:"employee_name" json:"employee_name"`
	Department   string `db:"department" json:"department"`
}

// RecordFilter narrows a record listing. Zero-valued criteria are inactive;
// active criteria combine conjunctively.
type RecordFilter struct {
	UserID string
	Date   *time.Time
	Status Status
}

// Matches reports whether the record satisfies every active criterion.
// A filter with no active criteria matches everything.
func (f RecordFilter) Matches(rec *JoinedRecord) bool {
	if f.UserID != "" && rec.UserID != f.UserID {
		return false
	}
	if f.Date != nil && !SameDate(rec.Date, *f.Date) {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	return true
}

// Apply filters a listing in order, preserving the input ordering.
func (f RecordFilter) Apply(records []*JoinedRecord) []*JoinedRecord {
	out := make([]*JoinedRecord, 0, len(records))
	for _, rec := range records {
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}
