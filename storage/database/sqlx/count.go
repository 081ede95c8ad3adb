package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/coastwrpt/wrpt/core/count"
)

type countRepository struct {
	exec Executor
}

var (
	_ count.Repository    = (*countRepository)(nil)
	_ count.AuditRecorder = (*countRepository)(nil)
)

func NewCountRepository(exec Executor) *countRepository {
	return &countRepository{exec: exec}
}

const countColumns = `id, program_id, event_date_id, classroom_id, enrollment, value, active_value, inactive_value, absentees, comments`

func (repo countRepository) CreateCount(ctx context.Context, cnt count.Count) (count.Count, error) {
	q := `
INSERT INTO count (` + countColumns + `)
VALUES (:id, :program_id, :event_date_id, :classroom_id, :enrollment, :value, :active_value, :inactive_value,
        :absentees, :comments)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, cnt); err != nil {
		return count.Count{}, dbError(err, "inserting count")
	}
	return cnt, nil
}

func (repo countRepository) UpdateCount(ctx context.Context, cnt count.Count) (count.Count, error) {
	q := `
UPDATE count
SET program_id = :program_id, event_date_id = :event_date_id, classroom_id = :classroom_id,
    enrollment = :enrollment, value = :value, active_value = :active_value, inactive_value = :inactive_value,
    absentees = :absentees, comments = :comments
WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, cnt)
	if err != nil {
		return count.Count{}, dbError(err, "updating count")
	}
	if err = mustAffect(res, "updating count"); err != nil {
		return count.Count{}, err
	}
	return cnt, nil
}

func (repo countRepository) DeleteCount(ctx context.Context, id string) error {
	res, err := repo.exec.ExecContext(ctx, `DELETE FROM count WHERE id = $1`, id)
	if err != nil {
		return dbError(err, "deleting count")
	}
	return mustAffect(res, "deleting count")
}

func (repo countRepository) GetCount(ctx context.Context, id string) (count.Count, error) {
	var cnt count.Count
	err := repo.exec.GetContext(ctx, &cnt, `SELECT `+countColumns+` FROM count WHERE id = $1`, id)
	return cnt, dbError(err, "selecting count")
}

func (repo countRepository) FindCount(ctx context.Context, programID, eventDateID, classroomID string) (count.Count, error) {
	var cnt count.Count
	q := `SELECT ` + countColumns + ` FROM count WHERE program_id = $1 AND event_date_id = $2 AND classroom_id = $3`
	err := repo.exec.GetContext(ctx, &cnt, q, programID, eventDateID, classroomID)
	return cnt, dbError(err, "selecting count")
}

func (repo countRepository) QueryProgramCounts(ctx context.Context, programID string) ([]count.Count, error) {
	counts := make([]count.Count, 0)
	q := `SELECT ` + countColumns + ` FROM count WHERE program_id = $1 ORDER BY id`
	err := repo.exec.SelectContext(ctx, &counts, q, programID)
	return counts, dbError(err, "selecting program counts")
}

func (repo countRepository) QueryClassroomCounts(ctx context.Context, classroomID string) ([]count.Count, error) {
	counts := make([]count.Count, 0)
	q := `SELECT ` + countColumns + ` FROM count WHERE classroom_id = $1 ORDER BY id`
	err := repo.exec.SelectContext(ctx, &counts, q, classroomID)
	return counts, dbError(err, "selecting classroom counts")
}

func (repo countRepository) QueryExportRows(ctx context.Context, afterID string, limit int) ([]count.ExportRow, error) {
	rows := make([]count.ExportRow, 0, limit)
	q := `
SELECT c.id, p.school_year, s.name AS school_name, ed.date AS event_date, r.name AS classroom_name,
       r.enrollment AS classroom_enrollment, c.value, c.active_value, c.inactive_value, c.absentees, c.comments
FROM count c
JOIN program p ON p.id = c.program_id
JOIN school s ON s.id = p.school_id
JOIN event_date ed ON ed.id = c.event_date_id
JOIN classroom r ON r.id = c.classroom_id
WHERE c.id::text > $1
ORDER BY c.id::text
LIMIT $2`
	err := repo.exec.SelectContext(ctx, &rows, q, afterID, limit)
	return rows, dbError(err, "selecting export rows")
}

func (repo countRepository) RecordAudit(ctx context.Context, entry count.AuditEntry) error {
	q := `
INSERT INTO audit_log (id, user_id, action, count_id, message, created_at)
VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6)`
	_, err := repo.exec.ExecContext(ctx, q,
		entry.ID, entry.UserID, entry.Action, entry.CountID, entry.Message, entry.CreatedAt.UTC())
	return dbError(err, "inserting audit entry")
}
