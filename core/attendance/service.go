package attendance

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/academics"
	"github.com/trezcool/kalvi/core/access"
)

type (
	Repository interface {
		// QueryRecords returns the records taken for the batch on date.
		QueryRecords(ctx context.Context, batchID int64, date time.Time) ([]Record, error)
		// UpsertRecord creates or overwrites the (student, date) record.
		UpsertRecord(ctx context.Context, rec Record) error
	}

	// Batches is the part of academics.Service attendance depends on.
	Batches interface {
		AuthorizeBatch(ctx context.Context, scope access.Scope, batchID int64) (academics.Batch, error)
		ActiveRoster(ctx context.Context, batchID int64) ([]academics.Student, error)
		MemberIDs(ctx context.Context, batchID int64) (map[int64]bool, error)
	}

	Service struct {
		repo     Repository
		batches  Batches
		validate *validator.Validate
	}
)

var _ Batches = (*academics.Service)(nil)

func NewService(repo Repository, batches Batches, validate *validator.Validate) *Service {
	return &Service{repo: repo, batches: batches, validate: validate}
}

// Roster returns the active students of the batch with their stored status for date.
func (svc *Service) Roster(ctx context.Context, scope access.Scope, batchID int64, date time.Time) (Roster, error) {
	batch, err := svc.batches.AuthorizeBatch(ctx, scope, batchID)
	if err != nil {
		return Roster{}, err
	}

	students, err := svc.batches.ActiveRoster(ctx, batch.ID)
	if err != nil {
		return Roster{}, errors.Wrap(err, "querying roster")
	}

	recs, err := svc.repo.QueryRecords(ctx, batch.ID, date)
	if err != nil {
		return Roster{}, errors.Wrap(err, "querying attendance")
	}
	existing := make(map[int64]Record, len(recs))
	for _, rec := range recs {
		existing[rec.StudentID] = rec
	}

	roster := Roster{BatchID: batch.ID, Date: date, Rows: make([]RosterRow, len(students))}
	for i, std := range students {
		row := RosterRow{StudentID: std.ID, StudentName: std.FullName}
		if rec, ok := existing[std.ID]; ok {
			status := rec.Status
			row.Status = &status
			row.Note = rec.Note
		}
		roster.Rows[i] = row
	}
	return roster, nil
}

// Submit upserts the valid records for the given batch and date.
// Invalid records are skipped; a storage error aborts the submission, earlier records stay written.
func (svc *Service) Submit(ctx context.Context, scope access.Scope, batchID int64, date time.Time, records json.RawMessage) (Outcome, error) {
	batch, err := svc.batches.AuthorizeBatch(ctx, scope, batchID)
	if err != nil {
		return Outcome{}, err
	}

	items, err := core.DecodeList(records, "records")
	if err != nil {
		return Outcome{}, err
	}

	members, err := svc.batches.MemberIDs(ctx, batch.ID)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "querying batch members")
	}

	var out Outcome
	for idx, item := range items {
		var entry Entry
		if err := json.Unmarshal(item, &entry); err != nil {
			out.skip(idx, 0, SkipMalformed)
			continue
		}
		if err := svc.validate.Struct(entry); err != nil {
			out.skip(idx, entry.StudentID, SkipInvalid)
			continue
		}
		if !members[entry.StudentID] {
			out.skip(idx, entry.StudentID, SkipNotInBatch)
			continue
		}

		rec := Record{
			BatchID:   batch.ID,
			StudentID: entry.StudentID,
			Date:      date,
			Status:    entry.Status,
			Note:      entry.Note,
		}
		if err := svc.repo.UpsertRecord(ctx, rec); err != nil {
			return out, errors.Wrapf(err, "upserting attendance of student %d", entry.StudentID)
		}
		out.Saved++
	}
	return out, nil
}
