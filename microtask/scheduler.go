package microtask

import (
	"time"

	"github.com/umpc/go-sortedmap"
)

// ID identifies a task added to a Scheduler.
type ID uint64

type entry struct {
	runner Runner
	quant  int
	onDone func()
}

// Scheduler resumes its tasks round robin until they are done or the time budget of a run is spent.
// It is not safe for concurrent use, it belongs to the tick loop.
type Scheduler struct {
	entries map[ID]*entry
	// ID -> turn sequence, so Keys() yields the tasks in the order of their next turn
	order   *sortedmap.SortedMap
	nextID  ID
	nextSeq uint64
	now     func() time.Time
}

func NewScheduler() *Scheduler {
	return NewSchedulerWithClock(time.Now)
}

// NewSchedulerWithClock measures the budget of a run with now.
func NewSchedulerWithClock(now func() time.Time) *Scheduler {
	return &Scheduler{
		entries: make(map[ID]*entry),
		order: sortedmap.New(16, func(x, y interface{}) bool {
			return x.(uint64) < y.(uint64)
		}),
		now: now,
	}
}

// Add schedules runner. Each turn resumes it at most quant times.
// onDone, if not nil, is called from Run right after the runner finished.
func (s *Scheduler) Add(runner Runner, quant int, onDone func()) ID {
	if quant < 1 {
		quant = 1
	}
	s.nextID++
	id := s.nextID
	s.entries[id] = &entry{runner: runner, quant: quant, onDone: onDone}
	s.enqueue(id)
	return id
}

// Cancel drops a task without calling its onDone. Unknown IDs are ignored.
func (s *Scheduler) Cancel(id ID) {
	if _, ok := s.entries[id]; !ok {
		return
	}
	delete(s.entries, id)
	s.order.Delete(id)
}

func (s *Scheduler) Len() int {
	return len(s.entries)
}

func (s *Scheduler) enqueue(id ID) {
	s.nextSeq++
	s.order.Delete(id)
	s.order.Insert(id, s.nextSeq)
}

// Run hands out turns until every task is done or budget has elapsed.
// A budget of zero or less means no limit. At least one turn is handed out whenever a task is pending.
// It returns the number of tasks that finished during this run.
func (s *Scheduler) Run(budget time.Duration) int {
	start := s.now()
	finished := 0
	for len(s.entries) > 0 {
		// Keys is a view of the sorted map, enqueue and Cancel below modify it
		keys := append([]interface{}(nil), s.order.Keys()...)
		for _, key := range keys {
			id := key.(ID)
			e, ok := s.entries[id]
			if !ok {
				continue
			}
			for i := 0; i < e.quant && e.runner.Alive(); i++ {
				e.runner.Resume()
			}
			if e.runner.Alive() {
				s.enqueue(id)
			} else {
				s.Cancel(id)
				finished++
				if e.onDone != nil {
					e.onDone()
				}
			}
			if budget > 0 && s.now().Sub(start) >= budget {
				return finished
			}
		}
	}
	return finished
}
