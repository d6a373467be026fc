package microtask

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countdown finishes after n resumes and returns label.
func countdown(n int, label string) Task[string] {
	left := n
	return FromFunc(func() (string, bool) {
		left--
		return label, left <= 0
	})
}

func TestCombinators(t *testing.T) {
	tests := []struct {
		name      string
		task      Task[string]
		wantSteps int
		want      string
	}{
		{
			name:      "constant",
			task:      Constant("c"),
			wantSteps: 0,
			want:      "c",
		},
		{
			name:      "map",
			task:      Map(countdown(3, "a"), func(s string) string { return s + "!" }),
			wantSteps: 3,
			want:      "a!",
		},
		{
			name: "flat map",
			task: FlatMap(countdown(2, "a"), func(s string) Task[string] {
				return countdown(2, s+"b")
			}),
			wantSteps: 5,
			want:      "ab",
		},
		{
			name: "pair",
			task: Map(Pair(countdown(2, "x"), countdown(4, "y")), func(p PairResult[string, string]) string {
				return p.First + p.Second
			}),
			wantSteps: 6,
			want:      "xy",
		},
		{
			name: "pair of constants",
			task: Map(Pair(Constant("x"), Constant("y")), func(p PairResult[string, string]) string {
				return p.First + p.Second
			}),
			wantSteps: 0,
			want:      "xy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantSteps, RunToCompletion(tt.task))
			assert.Equal(t, tt.want, tt.task.Result())
		})
	}
}

func TestSchedulerRunsEverythingWithoutBudget(t *testing.T) {
	s := NewScheduler()
	var done []string
	a := countdown(5, "a")
	b := countdown(1, "b")
	s.Add(a, 2, func() { done = append(done, a.Result()) })
	s.Add(b, 2, func() { done = append(done, b.Result()) })

	assert.Equal(t, 2, s.Run(0))
	assert.Equal(t, []string{"b", "a"}, done)
	assert.Equal(t, 0, s.Len())
}

func TestSchedulerRespectsBudget(t *testing.T) {
	clock := time.Unix(0, 0)
	s := NewSchedulerWithClock(func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	})
	var done []string
	for _, label := range []string{"a", "b", "c"} {
		task := countdown(3, label)
		s.Add(task, 1, func() { done = append(done, task.Result()) })
	}

	// every turn costs a millisecond, so a run of 2ms hands out two turns
	assert.Equal(t, 0, s.Run(2*time.Millisecond))
	assert.Equal(t, 3, s.Len())

	// round robin: each task needs three turns, nine turns in total
	finished := 0
	for i := 0; i < 10 && s.Len() > 0; i++ {
		finished += s.Run(2 * time.Millisecond)
	}
	assert.Equal(t, 3, finished)
	assert.Equal(t, []string{"a", "b", "c"}, done)
}

func TestSchedulerCancel(t *testing.T) {
	s := NewScheduler()
	called := false
	id := s.Add(countdown(10, "x"), 1, func() { called = true })
	s.Cancel(id)
	s.Cancel(id)
	require.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Run(0))
	assert.False(t, called)
}

func TestSchedulerInterleavesTasks(t *testing.T) {
	steppingClock := func() func() time.Time {
		clock := time.Unix(0, 0)
		return func() time.Time {
			clock = clock.Add(time.Millisecond)
			return clock
		}
	}
	tests := []struct {
		name     string
		budget   time.Duration
		cancelD  bool
		wantDone []string
	}{
		{name: "no budget", budget: 0, wantDone: []string{"b", "c", "a", "d"}},
		{name: "two turns per run", budget: 2 * time.Millisecond, wantDone: []string{"b", "c", "a", "d"}},
		{name: "cancel while running", budget: 0, cancelD: true, wantDone: []string{"b", "c", "a"}},
		{name: "cancel while running with budget", budget: 2 * time.Millisecond, cancelD: true, wantDone: []string{"b", "c", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSchedulerWithClock(steppingClock())
			var done []string
			ids := make(map[string]ID)
			for _, task := range []struct {
				label string
				steps int
			}{{"a", 3}, {"b", 1}, {"c", 2}, {"d", 4}} {
				task := task
				countdownTask := countdown(task.steps, task.label)
				ids[task.label] = s.Add(countdownTask, 1, func() {
					done = append(done, countdownTask.Result())
					if tt.cancelD && task.label == "b" {
						s.Cancel(ids["d"])
					}
				})
			}

			finished := 0
			for i := 0; i < 20 && s.Len() > 0; i++ {
				require.NotPanics(t, func() { finished += s.Run(tt.budget) })
			}
			assert.Equal(t, len(tt.wantDone), finished)
			assert.Equal(t, tt.wantDone, done)
			assert.Equal(t, 0, s.Len())
		})
	}
}
