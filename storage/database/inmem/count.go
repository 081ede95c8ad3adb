package inmemdb

import (
	"context"
	"sort"

	"github.com/coastwrpt/wrpt/core"
	"github.com/coastwrpt/wrpt/core/count"
)

type countRepository struct {
	db *DB
}

var (
	_ count.Repository    = (*countRepository)(nil)
	_ count.AuditRecorder = (*countRepository)(nil)
)

func NewCountRepository(db *DB) *countRepository {
	return &countRepository{db: db}
}

func (repo *countRepository) taken(cnt count.Count) bool {
	for _, c := range repo.db.counts {
		if c.ID != cnt.ID && c.ProgramID == cnt.ProgramID && c.EventDateID == cnt.EventDateID && c.ClassroomID == cnt.ClassroomID {
			return true
		}
	}
	return false
}

func (repo *countRepository) CreateCount(_ context.Context, cnt count.Count) (count.Count, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.taken(cnt) {
		return count.Count{}, core.ErrConflict
	}
	repo.db.counts[cnt.ID] = &cnt
	return cnt, nil
}

func (repo *countRepository) UpdateCount(_ context.Context, cnt count.Count) (count.Count, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.counts[cnt.ID]; !ok {
		return count.Count{}, core.ErrNotFound
	}
	if repo.taken(cnt) {
		return count.Count{}, core.ErrConflict
	}
	repo.db.counts[cnt.ID] = &cnt
	return cnt, nil
}

func (repo *countRepository) DeleteCount(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.counts[id]; !ok {
		return core.ErrNotFound
	}
	delete(repo.db.counts, id)
	return nil
}

func (repo *countRepository) GetCount(_ context.Context, id string) (count.Count, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.counts[id]; ok {
		return *c, nil
	}
	return count.Count{}, core.ErrNotFound
}

func (repo *countRepository) FindCount(_ context.Context, programID, eventDateID, classroomID string) (count.Count, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, c := range repo.db.counts {
		if c.ProgramID == programID && c.EventDateID == eventDateID && c.ClassroomID == classroomID {
			return *c, nil
		}
	}
	return count.Count{}, core.ErrNotFound
}

func (repo *countRepository) filter(keep func(c *count.Count) bool) []count.Count {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	counts := make([]count.Count, 0)
	for _, c := range repo.db.counts {
		if keep(c) {
			counts = append(counts, *c)
		}
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].ID < counts[j].ID })
	return counts
}

func (repo *countRepository) QueryProgramCounts(_ context.Context, programID string) ([]count.Count, error) {
	return repo.filter(func(c *count.Count) bool { return c.ProgramID == programID }), nil
}

func (repo *countRepository) QueryClassroomCounts(_ context.Context, classroomID string) ([]count.Count, error) {
	return repo.filter(func(c *count.Count) bool { return c.ClassroomID == classroomID }), nil
}

func (repo *countRepository) QueryExportRows(_ context.Context, afterID string, limit int) ([]count.ExportRow, error) {
	counts := repo.filter(func(c *count.Count) bool { return c.ID > afterID })
	if len(counts) > limit {
		counts = counts[:limit]
	}

	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rows := make([]count.ExportRow, 0, len(counts))
	for _, c := range counts {
		row := count.ExportRow{
			ID:            c.ID,
			Value:         c.Value,
			ActiveValue:   c.ActiveValue,
			InactiveValue: c.InactiveValue,
			Absentees:     c.Absentees,
			Comments:      c.Comments,
		}
		if p, ok := repo.db.programs[c.ProgramID]; ok {
			row.SchoolYear = p.SchoolYear
			if s, ok := repo.db.schools[p.SchoolID]; ok {
				row.SchoolName = s.Name
			}
		}
		if ed, ok := repo.db.eventDates[c.EventDateID]; ok {
			row.EventDate = ed.Date
		}
		if room, ok := repo.db.classrooms[c.ClassroomID]; ok {
			row.ClassroomName = room.Name
			row.ClassroomEnrollment = room.Enrollment
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (repo *countRepository) RecordAudit(_ context.Context, entry count.AuditEntry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.audit = append(repo.db.audit, entry)
	return nil
}

// AuditLog returns the recorded audit entries, oldest first.
func (repo *countRepository) AuditLog() []count.AuditEntry {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return append([]count.AuditEntry(nil), repo.db.audit...)
}
