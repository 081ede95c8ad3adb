package inmemdb

import (
	"sync"

	"github.com/coastwrpt/wrpt/core/count"
	"github.com/coastwrpt/wrpt/core/program"
	"github.com/coastwrpt/wrpt/core/user"
)

// DB is an in-memory store with the same uniqueness rules as the SQL schema.
// One lock guards every table so cross-table reads stay consistent.
type DB struct {
	mutex sync.RWMutex

	schools    map[string]*program.School
	schedules  map[string]*program.Schedule
	eventDates map[string]*program.EventDate
	programs   map[string]*program.Program
	classrooms map[string]*program.Classroom
	counts     map[string]*count.Count
	audit      []count.AuditEntry
	users      map[string]*user.User
}

func Open() *DB {
	return &DB{
		schools:    make(map[string]*program.School),
		schedules:  make(map[string]*program.Schedule),
		eventDates: make(map[string]*program.EventDate),
		programs:   make(map[string]*program.Program),
		classrooms: make(map[string]*program.Classroom),
		counts:     make(map[string]*count.Count),
		users:      make(map[string]*user.User),
	}
}
