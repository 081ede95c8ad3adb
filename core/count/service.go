package count

import (
	"context"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/coastwrpt/wrpt/core"
	"github.com/coastwrpt/wrpt/core/program"
	"github.com/coastwrpt/wrpt/core/user"
)

// Result messages
const (
	MsgSaved    = "Count saved."
	MsgUpdated  = "Count updated."
	MsgDeleted  = "Count deleted."
	MsgNoAction = "Did you mean to supply a count?"
)

var (
	// errors
	ErrCountExists    = errors.New("count with this program, event date, and classroom already exists")
	errEventDateFound = errors.New("select a valid event date")
	errClassroomFound = errors.New("select a valid classroom")
)

type (
	// Repository persists counts.
	// CreateCount & UpdateCount return core.ErrConflict when (program, event date, classroom) is taken;
	// GetCount, FindCount, UpdateCount & DeleteCount return core.ErrNotFound for missing counts.
	Repository interface {
		CreateCount(ctx context.Context, cnt Count) (Count, error)
		UpdateCount(ctx context.Context, cnt Count) (Count, error)
		DeleteCount(ctx context.Context, id string) error
		GetCount(ctx context.Context, id string) (Count, error)
		FindCount(ctx context.Context, programID, eventDateID, classroomID string) (Count, error)
		QueryProgramCounts(ctx context.Context, programID string) ([]Count, error)
		QueryClassroomCounts(ctx context.Context, classroomID string) ([]Count, error)
		// QueryExportRows returns up to `limit` rows with an ID greater than `afterID`, ordered by ID.
		QueryExportRows(ctx context.Context, afterID string, limit int) ([]ExportRow, error)
	}

	// ProgramReader resolves the entities a count refers to.
	ProgramReader interface {
		GetProgram(ctx context.Context, id string) (program.Program, error)
		GetEventDate(ctx context.Context, id string) (program.EventDate, error)
		GetClassroom(ctx context.Context, id string) (program.Classroom, error)
	}

	Action int

	// Result tells what a count mutation did.
	Result struct {
		Action  Action `json:"-"`
		Count   *Count `json:"count,omitempty"`
		Message string `json:"message"`
	}

	Service struct {
		repo     Repository
		progs    ProgramReader
		audit    AuditRecorder
		logger   core.Logger
		validate *validator.Validate
		today    func() time.Time
	}
)

const (
	NoAction Action = iota
	Created
	Updated
	Deleted
)

func NewService(
	repo Repository,
	progs ProgramReader,
	audit AuditRecorder,
	logger core.Logger,
	validate *validator.Validate,
	today func() time.Time,
) *Service {
	return &Service{
		repo:     repo,
		progs:    progs,
		audit:    audit,
		logger:   logger,
		validate: validate,
		today:    today,
	}
}

// Submit records a participant's count for `classroomID`.
// A submission without any participation value deletes the existing count, if any.
func (svc *Service) Submit(ctx context.Context, usr user.User, classroomID string, sub Submission) (Result, error) {
	room, err := svc.progs.GetClassroom(ctx, classroomID)
	if err != nil {
		return Result{}, errors.Wrap(err, "finding classroom")
	}
	prog, err := svc.progs.GetProgram(ctx, room.ProgramID)
	if err != nil {
		return Result{}, errors.Wrap(err, "finding program")
	}
	if !usr.CanSubmit(prog.SchoolID) {
		return Result{}, core.ErrPermissionDenied
	}

	if err = sub.Validate(svc.validate); err != nil {
		return Result{}, err
	}
	ed, err := svc.resolveEventDate(ctx, sub.EventDateID)
	if err != nil {
		return Result{}, err
	}

	decision, vals, err := Check(Candidate{Program: prog, EventDate: ed, Classroom: room, Values: sub.Values}, Participant, svc.today())
	if err != nil {
		return Result{}, err
	}

	existing, err := svc.repo.FindCount(ctx, prog.ID, ed.ID, room.ID)
	found := err == nil
	if err != nil && errors.Cause(err) != core.ErrNotFound {
		return Result{}, errors.Wrap(err, "finding count")
	}

	if decision == Delete {
		if !found {
			return Result{Action: NoAction, Message: MsgNoAction}, nil
		}
		return svc.delete(ctx, usr, existing)
	}

	cnt := Count{ProgramID: prog.ID, EventDateID: ed.ID, ClassroomID: room.ID}
	if found {
		cnt = existing
	}
	applyValues(&cnt, vals)
	if found {
		return svc.update(ctx, usr, existing, cnt, true)
	}
	return svc.create(ctx, usr, cnt)
}

// Correct applies a staff correction to the count `id`.
// Unlike Submit, corrections are allowed on concluded programs.
func (svc *Service) Correct(ctx context.Context, usr user.User, id string, corr Correction) (Result, error) {
	if !usr.IsStaff {
		return Result{}, core.ErrPermissionDenied
	}
	if err := corr.Validate(svc.validate); err != nil {
		return Result{}, err
	}

	existing, err := svc.repo.GetCount(ctx, id)
	if err != nil {
		return Result{}, errors.Wrap(err, "finding count")
	}
	prog, err := svc.progs.GetProgram(ctx, existing.ProgramID)
	if err != nil {
		return Result{}, errors.Wrap(err, "finding program")
	}
	ed, err := svc.resolveEventDate(ctx, corr.EventDateID)
	if err != nil {
		return Result{}, err
	}
	room, err := svc.progs.GetClassroom(ctx, corr.ClassroomID)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return Result{}, fieldErr("classroom_id", errClassroomFound)
		}
		return Result{}, errors.Wrap(err, "finding classroom")
	}

	decision, vals, err := Check(Candidate{Program: prog, EventDate: ed, Classroom: room, Values: corr.Values}, Admin, svc.today())
	if err != nil {
		return Result{}, err
	}
	if decision == Delete {
		return svc.delete(ctx, usr, existing)
	}

	keyErr := keyConflictErr(existing, ed.ID, room.ID)
	if ed.ID != existing.EventDateID || room.ID != existing.ClassroomID {
		other, err := svc.repo.FindCount(ctx, prog.ID, ed.ID, room.ID)
		if err == nil && other.ID != existing.ID {
			return Result{}, keyErr
		}
		if err != nil && errors.Cause(err) != core.ErrNotFound {
			return Result{}, errors.Wrap(err, "finding count")
		}
	}

	cnt := existing
	cnt.EventDateID = ed.ID
	cnt.ClassroomID = room.ID
	applyValues(&cnt, vals)
	res, err := svc.update(ctx, usr, existing, cnt, false)
	if errors.Cause(err) == core.ErrConflict {
		return Result{}, keyErr
	}
	return res, err
}

// Delete removes the count `id`. Staff only.
func (svc *Service) Delete(ctx context.Context, usr user.User, id string) (Result, error) {
	if !usr.IsStaff {
		return Result{}, core.ErrPermissionDenied
	}
	cnt, err := svc.repo.GetCount(ctx, id)
	if err != nil {
		return Result{}, errors.Wrap(err, "finding count")
	}
	return svc.delete(ctx, usr, cnt)
}

func (svc *Service) GetCount(ctx context.Context, id string) (Count, error) {
	return svc.repo.GetCount(ctx, id)
}

func (svc *Service) QueryProgramCounts(ctx context.Context, programID string) ([]Count, error) {
	return svc.repo.QueryProgramCounts(ctx, programID)
}

func (svc *Service) QueryClassroomCounts(ctx context.Context, classroomID string) ([]Count, error) {
	return svc.repo.QueryClassroomCounts(ctx, classroomID)
}

// Dump writes all counts as CSV to `w`. Staff only.
func (svc *Service) Dump(ctx context.Context, usr user.User, w io.Writer) (int, error) {
	if !usr.IsStaff {
		return 0, core.ErrPermissionDenied
	}
	return Export(ctx, svc.repo, w)
}

// InitialEnrollment returns the enrollment to prefill a classroom's count form with:
// the enrollment of its latest count, else the classroom's nominal enrollment.
func InitialEnrollment(room program.Classroom, dates []program.EventDate, counts []Count) int {
	byDate := make(map[string]Count, len(counts))
	for _, c := range counts {
		byDate[c.EventDateID] = c
	}
	for i := len(dates) - 1; i >= 0; i-- {
		if c, ok := byDate[dates[i].ID]; ok {
			return c.Enrollment
		}
	}
	return room.Enrollment
}

func (svc *Service) resolveEventDate(ctx context.Context, id string) (program.EventDate, error) {
	ed, err := svc.progs.GetEventDate(ctx, id)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return program.EventDate{}, fieldErr("event_date_id", errEventDateFound)
		}
		return program.EventDate{}, errors.Wrap(err, "finding event date")
	}
	return ed, nil
}

func (svc *Service) create(ctx context.Context, usr user.User, cnt Count) (Result, error) {
	cnt.ID = uuid.New().String()
	created, err := svc.repo.CreateCount(ctx, cnt)
	if err != nil {
		if errors.Cause(err) != core.ErrConflict {
			return Result{}, errors.Wrap(err, "creating count")
		}
		// lost the race: update the winner instead
		winner, err := svc.repo.FindCount(ctx, cnt.ProgramID, cnt.EventDateID, cnt.ClassroomID)
		if err != nil {
			return Result{}, errors.Wrap(err, "finding conflicting count")
		}
		cnt.ID = winner.ID
		updated, err := svc.repo.UpdateCount(ctx, cnt)
		if err != nil {
			return Result{}, errors.Wrap(err, "updating conflicting count")
		}
		svc.record(ctx, usr, AuditUpdate, updated, winner.LogFormat()+" -> "+updated.LogFormat())
		return Result{Action: Updated, Count: &updated, Message: MsgUpdated}, nil
	}
	svc.record(ctx, usr, AuditCreate, created, created.LogFormat())
	return Result{Action: Created, Count: &created, Message: MsgSaved}, nil
}

// update stores `cnt` over `before`. With `recreate`, a count deleted in the meantime is created again.
func (svc *Service) update(ctx context.Context, usr user.User, before, cnt Count, recreate bool) (Result, error) {
	updated, err := svc.repo.UpdateCount(ctx, cnt)
	if err != nil {
		if recreate && errors.Cause(err) == core.ErrNotFound {
			// deleted concurrently
			return svc.create(ctx, usr, cnt)
		}
		return Result{}, errors.Wrap(err, "updating count")
	}
	svc.record(ctx, usr, AuditUpdate, updated, before.LogFormat()+" -> "+updated.LogFormat())
	return Result{Action: Updated, Count: &updated, Message: MsgUpdated}, nil
}

func (svc *Service) delete(ctx context.Context, usr user.User, cnt Count) (Result, error) {
	if err := svc.repo.DeleteCount(ctx, cnt.ID); err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return Result{Action: NoAction, Message: MsgNoAction}, nil
		}
		return Result{}, errors.Wrap(err, "deleting count")
	}
	svc.record(ctx, usr, AuditDelete, cnt, cnt.LogFormat())
	return Result{Action: Deleted, Message: MsgDeleted}, nil
}

// record appends to the audit log. Failures are logged, never returned.
func (svc *Service) record(ctx context.Context, usr user.User, action string, cnt Count, msg string) {
	entry := AuditEntry{
		ID:        uuid.New().String(),
		UserID:    usr.ID,
		Action:    action,
		CountID:   cnt.ID,
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	}
	if err := svc.audit.RecordAudit(ctx, entry); err != nil {
		svc.logger.Error("recording count audit entry: "+action+": "+msg, errors.Wrap(err, "recording audit"), usr, cnt)
		return
	}
	svc.logger.Info(action+": "+msg, usr, cnt)
}

func applyValues(cnt *Count, vals Values) {
	cnt.Enrollment = vals.Enrollment
	cnt.Value = vals.Value
	cnt.ActiveValue = vals.ActiveValue
	cnt.InactiveValue = vals.InactiveValue
	cnt.Absentees = vals.Absentees
	cnt.Comments = vals.Comments
}

// keyConflictErr reports the uniqueness violation on whichever key fields changed.
func keyConflictErr(existing Count, eventDateID, classroomID string) error {
	var flds []core.FieldError
	if eventDateID != existing.EventDateID {
		flds = append(flds, core.FieldError{Field: "event_date_id", Error: ErrCountExists.Error()})
	}
	if classroomID != existing.ClassroomID {
		flds = append(flds, core.FieldError{Field: "classroom_id", Error: ErrCountExists.Error()})
	}
	return core.NewValidationError(ErrCountExists, flds...)
}
