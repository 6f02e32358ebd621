package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/pkg/metrics"
)

const DefaultActivityMax = 1000

// Store is the single shared mutable state of the system: patients, tasks,
// activity entries and outbox events behind one mutex. Every mutating
// operation runs as a critical section, so each request's effects are
// fully applied before the next request observes the store.
type Store struct {
	mu       sync.RWMutex
	patients map[string]*model.Patient
	tasks    map[string]*model.Task
	activity []*model.ActivityEntry
	outbox   []*model.OutboxEvent
	taskSeq  uint64

	activityMax int
	metrics     *metrics.Metrics
}

type Option func(*Store)

// WithActivityMax caps the activity log; oldest entries are evicted.
func WithActivityMax(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.activityMax = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		patients:    make(map[string]*model.Patient),
		tasks:       make(map[string]*model.Task),
		activityMax: DefaultActivityMax,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) observe(operation, status string) {
	if s.metrics != nil {
		s.metrics.StoreOperations.WithLabelValues(operation, status).Inc()
	}
}

// Snapshot returns a deep copy of the store's persisted form, ordered
// deterministically (patients by creation, tasks by sequence).
func (s *Store) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &model.Snapshot{
		Patients: make([]*model.Patient, 0, len(s.patients)),
		Tasks:    make([]*model.Task, 0, len(s.tasks)),
		Activity: make([]*model.ActivityEntry, 0, len(s.activity)),
		Outbox:   make([]*model.OutboxEvent, 0, len(s.outbox)),
		TaskSeq:  s.taskSeq,
	}
	for _, p := range s.patients {
		snap.Patients = append(snap.Patients, clonePatient(p))
	}
	sort.Slice(snap.Patients, func(i, j int) bool {
		if !snap.Patients[i].CreatedAt.Equal(snap.Patients[j].CreatedAt) {
			return snap.Patients[i].CreatedAt.Before(snap.Patients[j].CreatedAt)
		}
		return snap.Patients[i].ID.String() < snap.Patients[j].ID.String()
	})
	for _, t := range s.tasks {
		snap.Tasks = append(snap.Tasks, cloneTask(t))
	}
	sort.Slice(snap.Tasks, func(i, j int) bool {
		return snap.Tasks[i].Seq < snap.Tasks[j].Seq
	})
	for _, e := range s.activity {
		snap.Activity = append(snap.Activity, cloneActivity(e))
	}
	for _, ev := range s.outbox {
		snap.Outbox = append(snap.Outbox, cloneOutbox(ev))
	}
	return snap, nil
}

// Restore replaces the store's contents with the snapshot's.
func (s *Store) Restore(ctx context.Context, snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.patients = make(map[string]*model.Patient, len(snap.Patients))
	for _, p := range snap.Patients {
		s.patients[p.ID.String()] = clonePatient(p)
	}
	s.tasks = make(map[string]*model.Task, len(snap.Tasks))
	for _, t := range snap.Tasks {
		s.tasks[t.ID.String()] = cloneTask(t)
	}
	s.activity = make([]*model.ActivityEntry, 0, len(snap.Activity))
	for _, e := range snap.Activity {
		s.activity = append(s.activity, cloneActivity(e))
	}
	s.outbox = make([]*model.OutboxEvent, 0, len(snap.Outbox))
	for _, ev := range snap.Outbox {
		s.outbox = append(s.outbox, cloneOutbox(ev))
	}
	s.taskSeq = snap.TaskSeq
	return nil
}

func clonePatient(p *model.Patient) *model.Patient {
	cp := *p
	return &cp
}

func cloneTask(t *model.Task) *model.Task {
	ct := *t
	if t.Result != nil {
		v := *t.Result
		ct.Result = &v
	}
	if t.CompletedBy != nil {
		v := *t.CompletedBy
		ct.CompletedBy = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		ct.CompletedAt = &v
	}
	return &ct
}

func cloneActivity(e *model.ActivityEntry) *model.ActivityEntry {
	ce := *e
	return &ce
}

func cloneOutbox(ev *model.OutboxEvent) *model.OutboxEvent {
	ce := *ev
	if ev.Payload != nil {
		ce.Payload = append([]byte(nil), ev.Payload...)
	}
	if ev.ErrorMessage != nil {
		v := *ev.ErrorMessage
		ce.ErrorMessage = &v
	}
	if ev.ProcessedAt != nil {
		v := *ev.ProcessedAt
		ce.ProcessedAt = &v
	}
	return &ce
}

// appendActivityLocked prepends the entry and evicts beyond the cap.
// Caller must hold the write lock.
func (s *Store) appendActivityLocked(entry *model.ActivityEntry) {
	s.activity = append([]*model.ActivityEntry{cloneActivity(entry)}, s.activity...)
	if len(s.activity) > s.activityMax {
		s.activity = s.activity[:s.activityMax]
	}
}
