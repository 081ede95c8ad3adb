package inmemdb

import (
	"context"
	"sort"

	"github.com/coastwrpt/wrpt/core"
	"github.com/coastwrpt/wrpt/core/program"
)

type programRepository struct {
	db *DB
}

var _ program.Repository = (*programRepository)(nil)

func NewProgramRepository(db *DB) *programRepository {
	return &programRepository{db: db}
}

func (repo *programRepository) CreateSchool(_ context.Context, school program.School) (program.School, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, s := range repo.db.schools {
		if s.Name == school.Name {
			return program.School{}, core.ErrConflict
		}
	}
	repo.db.schools[school.ID] = &school
	return school, nil
}

func (repo *programRepository) GetSchool(_ context.Context, id string) (program.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.schools[id]; ok {
		return *s, nil
	}
	return program.School{}, core.ErrNotFound
}

func (repo *programRepository) QuerySchools(_ context.Context) ([]program.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	schools := make([]program.School, 0, len(repo.db.schools))
	for _, s := range repo.db.schools {
		schools = append(schools, *s)
	}
	sort.Slice(schools, func(i, j int) bool { return schools[i].Name < schools[j].Name })
	return schools, nil
}

func (repo *programRepository) CreateSchedule(_ context.Context, sched program.Schedule) (program.Schedule, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, s := range repo.db.schedules {
		if s.Name == sched.Name {
			return program.Schedule{}, core.ErrConflict
		}
	}
	repo.db.schedules[sched.ID] = &sched
	return sched, nil
}

func (repo *programRepository) GetSchedule(_ context.Context, id string) (program.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.schedules[id]; ok {
		return *s, nil
	}
	return program.Schedule{}, core.ErrNotFound
}

func (repo *programRepository) CreateEventDate(_ context.Context, ed program.EventDate) (program.EventDate, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, e := range repo.db.eventDates {
		if e.ScheduleID == ed.ScheduleID && e.Date.Equal(ed.Date) {
			return program.EventDate{}, core.ErrConflict
		}
	}
	repo.db.eventDates[ed.ID] = &ed
	return ed, nil
}

func (repo *programRepository) GetEventDate(_ context.Context, id string) (program.EventDate, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if e, ok := repo.db.eventDates[id]; ok {
		return *e, nil
	}
	return program.EventDate{}, core.ErrNotFound
}

func (repo *programRepository) QueryEventDates(_ context.Context, scheduleID string) ([]program.EventDate, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	dates := make([]program.EventDate, 0)
	for _, e := range repo.db.eventDates {
		if e.ScheduleID == scheduleID {
			dates = append(dates, *e)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Date.Before(dates[j].Date) })
	return dates, nil
}

func (repo *programRepository) CreateProgram(_ context.Context, prog program.Program) (program.Program, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.programTaken(prog) {
		return program.Program{}, core.ErrConflict
	}
	repo.db.programs[prog.ID] = &prog
	return repo.program(prog.ID), nil
}

func (repo *programRepository) UpdateProgram(_ context.Context, prog program.Program) (program.Program, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.programs[prog.ID]
	if !ok {
		return program.Program{}, core.ErrNotFound
	}
	if repo.programTaken(prog) {
		return program.Program{}, core.ErrConflict
	}
	orig.ScheduleID = prog.ScheduleID
	orig.SchoolYear = prog.SchoolYear
	orig.SplitCounts = prog.SplitCounts
	orig.ParticipationGoal = prog.ParticipationGoal
	return repo.program(prog.ID), nil
}

func (repo *programRepository) GetProgram(_ context.Context, id string) (program.Program, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if _, ok := repo.db.programs[id]; ok {
		return repo.program(id), nil
	}
	return program.Program{}, core.ErrNotFound
}

func (repo *programRepository) QueryPrograms(_ context.Context) ([]program.Program, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	progs := make([]program.Program, 0, len(repo.db.programs))
	for id := range repo.db.programs {
		progs = append(progs, repo.program(id))
	}
	return progs, nil
}

func (repo *programRepository) ProgramHasCounts(_ context.Context, id string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, c := range repo.db.counts {
		if c.ProgramID == id {
			return true, nil
		}
	}
	return false, nil
}

func (repo *programRepository) CreateClassroom(_ context.Context, room program.Classroom) (program.Classroom, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, c := range repo.db.classrooms {
		if c.ProgramID == room.ProgramID && c.Name == room.Name {
			return program.Classroom{}, core.ErrConflict
		}
	}
	repo.db.classrooms[room.ID] = &room
	return room, nil
}

func (repo *programRepository) GetClassroom(_ context.Context, id string) (program.Classroom, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.classrooms[id]; ok {
		return *c, nil
	}
	return program.Classroom{}, core.ErrNotFound
}

func (repo *programRepository) QueryClassrooms(_ context.Context, programID string) ([]program.Classroom, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rooms := make([]program.Classroom, 0)
	for _, c := range repo.db.classrooms {
		if c.ProgramID == programID {
			rooms = append(rooms, *c)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}

// program returns a copy of program `id` with its joined fields set. Callers hold the lock.
func (repo *programRepository) program(id string) program.Program {
	prog := *repo.db.programs[id]
	if s, ok := repo.db.schools[prog.SchoolID]; ok {
		prog.SchoolName = s.Name
	}
	prog.NumClassrooms = 0
	for _, c := range repo.db.classrooms {
		if c.ProgramID == id {
			prog.NumClassrooms++
		}
	}
	return prog
}

func (repo *programRepository) programTaken(prog program.Program) bool {
	for _, p := range repo.db.programs {
		if p.ID != prog.ID && p.SchoolID == prog.SchoolID && p.SchoolYear == prog.SchoolYear {
			return true
		}
	}
	return false
}
