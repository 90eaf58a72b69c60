package attendance

import "time"

// Statuses
const (
	StatusPresent Status = "P"
	StatusAbsent  Status = "A"
	StatusLate    Status = "L"
)

var StatusChoices = []StatusChoice{
	{Key: StatusPresent, Label: "Present"},
	{Key: StatusAbsent, Label: "Absent"},
	{Key: StatusLate, Label: "Late"},
}

type Status string

func (s Status) Valid() bool {
	for _, choice := range StatusChoices {
		if s == choice.Key {
			return true
		}
	}
	return false
}

type StatusChoice struct {
	Key   Status `json:"key"`
	Label string `json:"label"`
}

// Record is the attendance of one student on one day.
type Record struct {
	ID        int64
	BatchID   int64
	StudentID int64
	Date      time.Time // UTC midnight
	Status    Status
	Note      string
}

type RosterRow struct {
	StudentID   int64   `json:"student_id"`
	StudentName string  `json:"student_name"`
	Status      *Status `json:"status"`
	Note        string  `json:"note"`
}

// Roster is the attendance sheet of a batch for a given date.
type Roster struct {
	BatchID int64       `json:"batch_id"`
	Date    time.Time   `json:"-"`
	Rows    []RosterRow `json:"students"`
}

// Entry is one submitted record.
type Entry struct {
	StudentID int64  `json:"student_id" validate:"required"`
	Status    Status `json:"status" validate:"required,oneof=P A L"`
	Note      string `json:"note" validate:"max=255"`
}

// Skip reasons
const (
	SkipMalformed  = "malformed"
	SkipInvalid    = "invalid"
	SkipNotInBatch = "not_in_batch"
)

type Skip struct {
	Index     int
	StudentID int64
	Reason    string
}

// Outcome is the result of a submission: how many records were saved and why the others were not.
type Outcome struct {
	Saved   int
	Skipped []Skip
}

func (o *Outcome) skip(idx int, studentID int64, reason string) {
	o.Skipped = append(o.Skipped, Skip{Index: idx, StudentID: studentID, Reason: reason})
}
