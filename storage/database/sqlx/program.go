package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/coastwrpt/wrpt/core/program"
)

type programRepository struct {
	exec Executor
}

var _ program.Repository = (*programRepository)(nil) // interface compliance check

func NewProgramRepository(exec Executor) *programRepository {
	return &programRepository{exec: exec}
}

const programSelect = `
SELECT p.id, p.school_id, s.name AS school_name, p.schedule_id, p.school_year, p.split_counts,
       p.participation_goal, (SELECT count(*) FROM classroom c WHERE c.program_id = p.id) AS num_classrooms
FROM program p
JOIN school s ON s.id = p.school_id`

func (repo programRepository) CreateSchool(ctx context.Context, school program.School) (program.School, error) {
	_, err := sqlx.NamedExecContext(ctx, repo.exec, `INSERT INTO school (id, name) VALUES (:id, :name)`, school)
	if err != nil {
		return program.School{}, dbError(err, "inserting school")
	}
	return school, nil
}

func (repo programRepository) GetSchool(ctx context.Context, id string) (program.School, error) {
	var school program.School
	err := repo.exec.GetContext(ctx, &school, `SELECT id, name FROM school WHERE id = $1`, id)
	return school, dbError(err, "selecting school")
}

func (repo programRepository) QuerySchools(ctx context.Context) ([]program.School, error) {
	schools := make([]program.School, 0)
	err := repo.exec.SelectContext(ctx, &schools, `SELECT id, name FROM school ORDER BY name`)
	return schools, dbError(err, "selecting schools")
}

func (repo programRepository) CreateSchedule(ctx context.Context, sched program.Schedule) (program.Schedule, error) {
	_, err := sqlx.NamedExecContext(ctx, repo.exec, `INSERT INTO schedule (id, name) VALUES (:id, :name)`, sched)
	if err != nil {
		return program.Schedule{}, dbError(err, "inserting schedule")
	}
	return sched, nil
}

func (repo programRepository) GetSchedule(ctx context.Context, id string) (program.Schedule, error) {
	var sched program.Schedule
	err := repo.exec.GetContext(ctx, &sched, `SELECT id, name FROM schedule WHERE id = $1`, id)
	return sched, dbError(err, "selecting schedule")
}

func (repo programRepository) CreateEventDate(ctx context.Context, ed program.EventDate) (program.EventDate, error) {
	q := `INSERT INTO event_date (id, schedule_id, date) VALUES (:id, :schedule_id, :date)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, ed); err != nil {
		return program.EventDate{}, dbError(err, "inserting event date")
	}
	return ed, nil
}

func (repo programRepository) GetEventDate(ctx context.Context, id string) (program.EventDate, error) {
	var ed program.EventDate
	err := repo.exec.GetContext(ctx, &ed, `SELECT id, schedule_id, date FROM event_date WHERE id = $1`, id)
	return ed, dbError(err, "selecting event date")
}

func (repo programRepository) QueryEventDates(ctx context.Context, scheduleID string) ([]program.EventDate, error) {
	dates := make([]program.EventDate, 0)
	q := `SELECT id, schedule_id, date FROM event_date WHERE schedule_id = $1 ORDER BY date`
	err := repo.exec.SelectContext(ctx, &dates, q, scheduleID)
	return dates, dbError(err, "selecting event dates")
}

func (repo programRepository) CreateProgram(ctx context.Context, prog program.Program) (program.Program, error) {
	q := `
INSERT INTO program (id, school_id, schedule_id, school_year, split_counts, participation_goal)
VALUES (:id, :school_id, :schedule_id, :school_year, :split_counts, :participation_goal)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, prog); err != nil {
		return program.Program{}, dbError(err, "inserting program")
	}
	return repo.GetProgram(ctx, prog.ID)
}

func (repo programRepository) UpdateProgram(ctx context.Context, prog program.Program) (program.Program, error) {
	q := `
UPDATE program
SET schedule_id = :schedule_id, school_year = :school_year, split_counts = :split_counts,
    participation_goal = :participation_goal
WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, prog)
	if err != nil {
		return program.Program{}, dbError(err, "updating program")
	}
	if err = mustAffect(res, "updating program"); err != nil {
		return program.Program{}, err
	}
	return repo.GetProgram(ctx, prog.ID)
}

func (repo programRepository) GetProgram(ctx context.Context, id string) (program.Program, error) {
	var prog program.Program
	err := repo.exec.GetContext(ctx, &prog, programSelect+` WHERE p.id = $1`, id)
	return prog, dbError(err, "selecting program")
}

func (repo programRepository) QueryPrograms(ctx context.Context) ([]program.Program, error) {
	progs := make([]program.Program, 0)
	err := repo.exec.SelectContext(ctx, &progs, programSelect+` ORDER BY s.name, p.school_year DESC`)
	return progs, dbError(err, "selecting programs")
}

func (repo programRepository) ProgramHasCounts(ctx context.Context, id string) (bool, error) {
	var found bool
	err := repo.exec.GetContext(ctx, &found, `SELECT EXISTS (SELECT 1 FROM count WHERE program_id = $1)`, id)
	return found, dbError(err, "checking program counts")
}

func (repo programRepository) CreateClassroom(ctx context.Context, room program.Classroom) (program.Classroom, error) {
	q := `INSERT INTO classroom (id, program_id, name, enrollment) VALUES (:id, :program_id, :name, :enrollment)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, room); err != nil {
		return program.Classroom{}, dbError(err, "inserting classroom")
	}
	return room, nil
}

func (repo programRepository) GetClassroom(ctx context.Context, id string) (program.Classroom, error) {
	var room program.Classroom
	q := `SELECT id, program_id, name, enrollment FROM classroom WHERE id = $1`
	err := repo.exec.GetContext(ctx, &room, q, id)
	return room, dbError(err, "selecting classroom")
}

func (repo programRepository) QueryClassrooms(ctx context.Context, programID string) ([]program.Classroom, error) {
	rooms := make([]program.Classroom, 0)
	q := `SELECT id, program_id, name, enrollment FROM classroom WHERE program_id = $1 ORDER BY name`
	err := repo.exec.SelectContext(ctx, &rooms, q, programID)
	return rooms, dbError(err, "selecting classrooms")
}
