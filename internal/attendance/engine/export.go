package engine

import (
	"encoding/csv"
	"io"
	"strconv"
)

// csvHeader is the fixed export header. Column order is part of the format.
var csvHeader = []string{"Date", "Employee ID", "Employee Name", "Department", "Check In", "Check Out", "Hours", "Status"}

const (
	csvDateLayout = "2006-01-02"
	csvTimeLayout = "15:04:05"
	csvEmpty      = "-"
)

// WriteCSV streams the records as CSV in input order: a header row followed
// by one row per record. Records still open render "-" for check-out and
// hours. Quoting and escaping are the csv writer's problem, so names and
// departments containing commas or quotes survive a round trip.
func WriteCSV(w io.Writer, records []*JoinedRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, rec := range records {
		checkOut := csvEmpty
		hours := csvEmpty
		if rec.CheckOut != nil {
			checkOut = rec.CheckOut.Format(csvTimeLayout)
		}
		if rec.TotalHours != nil {
			hours = strconv.FormatFloat(*rec.TotalHours, 'f', 2, 64)
		}

		row := []string{
			rec.Date.Format(csvDateLayout),
			rec.EmployeeID,
			rec.EmployeeName,
			rec.Department,
			rec.CheckIn.Format(csvTimeLayout),
			checkOut,
			hours,
			string(rec.Status),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
