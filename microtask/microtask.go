// Package microtask runs long computations in small steps so a frame never has to wait for them.
//
// A Task is a step function with explicit continuation state:
// Resume does one bounded piece of work, Alive reports whether more work is left,
// and Result is only meaningful once Alive returns false.
package microtask

type Runner interface {
	Resume()
	Alive() bool
}

type Task[T any] interface {
	Runner
	Result() T
}

type constant[T any] struct {
	value T
}

// Constant is a task that is done before it starts.
func Constant[T any](value T) Task[T] {
	return constant[T]{value: value}
}

func (c constant[T]) Resume()     {}
func (c constant[T]) Alive() bool { return false }
func (c constant[T]) Result() T   { return c.value }

type funcTask[T any] struct {
	step   func() (T, bool)
	result T
	done   bool
}

// FromFunc wraps a step function that returns true together with its result once it is finished.
func FromFunc[T any](step func() (T, bool)) Task[T] {
	return &funcTask[T]{step: step}
}

func (f *funcTask[T]) Resume() {
	if f.done {
		return
	}
	f.result, f.done = f.step()
}

func (f *funcTask[T]) Alive() bool { return !f.done }
func (f *funcTask[T]) Result() T   { return f.result }

type mapped[A, B any] struct {
	task     Task[A]
	f        func(A) B
	result   B
	computed bool
}

// Map applies f to the result of task once task is done.
func Map[A, B any](task Task[A], f func(A) B) Task[B] {
	return &mapped[A, B]{task: task, f: f}
}

func (m *mapped[A, B]) Resume()     { m.task.Resume() }
func (m *mapped[A, B]) Alive() bool { return m.task.Alive() }

func (m *mapped[A, B]) Result() B {
	if !m.computed {
		m.result = m.f(m.task.Result())
		m.computed = true
	}
	return m.result
}

type flatMapped[A, B any] struct {
	first  Task[A]
	f      func(A) Task[B]
	second Task[B]
}

// FlatMap continues with the task f builds from the result of first.
// Building the second task takes one Resume of its own.
func FlatMap[A, B any](first Task[A], f func(A) Task[B]) Task[B] {
	return &flatMapped[A, B]{first: first, f: f}
}

func (fm *flatMapped[A, B]) Resume() {
	switch {
	case fm.first.Alive():
		fm.first.Resume()
	case fm.second == nil:
		fm.second = fm.f(fm.first.Result())
	default:
		fm.second.Resume()
	}
}

func (fm *flatMapped[A, B]) Alive() bool {
	return fm.first.Alive() || fm.second == nil || fm.second.Alive()
}

func (fm *flatMapped[A, B]) Result() B {
	return fm.second.Result()
}

// PairResult holds the results of the two tasks of Pair.
type PairResult[A, B any] struct {
	First  A
	Second B
}

type paired[A, B any] struct {
	first  Task[A]
	second Task[B]
}

// Pair runs first to completion, then second.
func Pair[A, B any](first Task[A], second Task[B]) Task[PairResult[A, B]] {
	return &paired[A, B]{first: first, second: second}
}

func (p *paired[A, B]) Resume() {
	if p.first.Alive() {
		p.first.Resume()
		return
	}
	if p.second.Alive() {
		p.second.Resume()
	}
}

func (p *paired[A, B]) Alive() bool {
	return p.first.Alive() || p.second.Alive()
}

func (p *paired[A, B]) Result() PairResult[A, B] {
	return PairResult[A, B]{First: p.first.Result(), Second: p.second.Result()}
}

// RunToCompletion resumes r until it is done and returns the number of steps it took.
func RunToCompletion(r Runner) int {
	steps := 0
	for r.Alive() {
		r.Resume()
		steps++
	}
	return steps
}
