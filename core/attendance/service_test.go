package attendance_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/academics"
	"github.com/trezcool/kalvi/core/access"
	"github.com/trezcool/kalvi/core/attendance"
	inmemdb "github.com/trezcool/kalvi/storage/database/inmem"
	"github.com/trezcool/kalvi/tests"
)

var errDiskFull = errors.New("disk full")

// flakyRepository fails every upsert after the first `okUpserts`.
type flakyRepository struct {
	attendance.Repository
	okUpserts int
}

func (repo *flakyRepository) UpsertRecord(ctx context.Context, rec attendance.Record) error {
	if repo.okUpserts == 0 {
		return errDiskFull
	}
	repo.okUpserts--
	return repo.Repository.UpsertRecord(ctx, rec)
}

type fixture struct {
	acadRepo academics.Repository
	attRepo  attendance.Repository
	acadSvc  *academics.Service
	batch    academics.Batch
	other    academics.Batch
	arun     academics.Student
	bala     academics.Student
	stranger academics.Student
	day      time.Time
}

func newFixture(t *testing.T) fixture {
	db := inmemdb.Open()
	f := fixture{
		acadRepo: inmemdb.NewAcademicsRepository(db),
		attRepo:  inmemdb.NewAttendanceRepository(db),
	}
	f.acadSvc = academics.NewService(f.acadRepo)

	branch := testutil.CreateBranch(t, f.acadRepo, "Chennai")
	course := testutil.CreateCourse(t, f.acadRepo, "Maths", "")
	f.batch = testutil.CreateBatch(t, f.acadRepo, branch, course, "Grade 5", 2024)
	f.other = testutil.CreateBatch(t, f.acadRepo, branch, course, "Grade 6", 2024)
	f.arun = testutil.CreateStudent(t, f.acadRepo, f.batch, "A1", "Arun", true)
	f.bala = testutil.CreateStudent(t, f.acadRepo, f.batch, "A2", "Bala", true)
	f.stranger = testutil.CreateStudent(t, f.acadRepo, f.other, "B1", "Chitra", true)

	var err error
	if f.day, err = core.ParseDate("2024-06-03"); err != nil {
		t.Fatal(err)
	}
	return f
}

func records(t *testing.T, items ...interface{}) json.RawMessage {
	raw, err := json.Marshal(items)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	validate, _ := testutil.NewValidator()
	svc := attendance.NewService(f.attRepo, f.acadSvc, validate)

	out, err := svc.Submit(ctx, access.Unrestricted(), f.batch.ID, f.day, records(t,
		attendance.Entry{StudentID: f.arun.ID, Status: attendance.StatusPresent},
		attendance.Entry{StudentID: f.bala.ID, Status: "present"},
		attendance.Entry{StudentID: f.stranger.ID, Status: attendance.StatusAbsent},
		[]int{1},
		attendance.Entry{StudentID: f.bala.ID, Status: attendance.StatusLate, Note: "bus"},
	))
	assert.NoError(t, err)
	assert.Equal(t, attendance.Outcome{
		Saved: 2,
		Skipped: []attendance.Skip{
			{Index: 1, StudentID: f.bala.ID, Reason: attendance.SkipInvalid},
			{Index: 2, StudentID: f.stranger.ID, Reason: attendance.SkipNotInBatch},
			{Index: 3, Reason: attendance.SkipMalformed},
		},
	}, out)

	roster, err := svc.Roster(ctx, access.Unrestricted(), f.batch.ID, f.day)
	assert.NoError(t, err)
	late, present := attendance.StatusLate, attendance.StatusPresent
	assert.Equal(t, []attendance.RosterRow{
		{StudentID: f.arun.ID, StudentName: "Arun", Status: &present},
		{StudentID: f.bala.ID, StudentName: "Bala", Status: &late, Note: "bus"},
	}, roster.Rows)

	t.Run("other branch", func(t *testing.T) {
		other := int64(999)
		_, err := svc.Submit(ctx, access.RestrictedTo(&other), f.batch.ID, f.day, records(t))
		assert.Equal(t, access.ErrForbidden, err)
	})

	t.Run("not a list", func(t *testing.T) {
		_, err := svc.Submit(ctx, access.Unrestricted(), f.batch.ID, f.day, json.RawMessage(`{"student_id": 1}`))
		_, ok := err.(*core.ValidationError)
		assert.True(t, ok, "Submit() error = %v", err)
	})
}

func TestService_SubmitStorageError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	validate, _ := testutil.NewValidator()
	svc := attendance.NewService(&flakyRepository{Repository: f.attRepo, okUpserts: 1}, f.acadSvc, validate)

	out, err := svc.Submit(ctx, access.Unrestricted(), f.batch.ID, f.day, records(t,
		attendance.Entry{StudentID: f.arun.ID, Status: attendance.StatusPresent},
		attendance.Entry{StudentID: f.bala.ID, Status: attendance.StatusAbsent},
	))
	if err == nil {
		t.Fatal("Submit() expected an error")
	}
	assert.Equal(t, errDiskFull, errors.Cause(err))
	assert.Equal(t, 1, out.Saved)

	// the first record stays written
	recs, err := f.attRepo.QueryRecords(ctx, f.batch.ID, f.day)
	assert.NoError(t, err)
	if assert.Len(t, recs, 1) {
		assert.Equal(t, f.arun.ID, recs[0].StudentID)
	}
}

func TestService_RosterOfBatchOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	validate, _ := testutil.NewValidator()
	svc := attendance.NewService(f.attRepo, f.acadSvc, validate)

	// taken before arun moved into the batch
	testutil.UpsertAttendance(t, f.attRepo, f.other, f.arun, "2024-06-03", attendance.StatusAbsent, "old batch")
	testutil.UpsertAttendance(t, f.attRepo, f.batch, f.bala, "2024-06-03", attendance.StatusPresent, "")

	roster, err := svc.Roster(ctx, access.Unrestricted(), f.batch.ID, f.day)
	assert.NoError(t, err)
	present := attendance.StatusPresent
	assert.Equal(t, []attendance.RosterRow{
		{StudentID: f.arun.ID, StudentName: "Arun"},
		{StudentID: f.bala.ID, StudentName: "Bala", Status: &present},
	}, roster.Rows)

	// resubmitting under the current batch takes the record over
	_, err = svc.Submit(ctx, access.Unrestricted(), f.batch.ID, f.day, records(t,
		attendance.Entry{StudentID: f.arun.ID, Status: attendance.StatusLate},
	))
	assert.NoError(t, err)
	recs, err := f.attRepo.QueryRecords(ctx, f.other.ID, f.day)
	assert.NoError(t, err)
	assert.Empty(t, recs)
}
