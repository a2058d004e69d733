package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Programador coalesces deferred work per key: scheduling a key replaces any
// task still waiting for that key. A replaced or canceled task never runs.
type Programador struct {
	espera time.Duration

	mu     sync.Mutex
	tareas map[uuid.UUID]*tarea
	wg     sync.WaitGroup
}

type tarea struct {
	timer *time.Timer
	fn    func(ctx context.Context)
}

func NewProgramador(espera time.Duration) *Programador {
	return &Programador{espera: espera, tareas: make(map[uuid.UUID]*tarea)}
}

// Programar schedules fn to run after the window unless another call for the
// same key arrives first.
func (p *Programador) Programar(key uuid.UUID, fn func(ctx context.Context)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.tareas[key]; ok {
		prev.timer.Stop()
		delete(p.tareas, key)
	}
	t := &tarea{fn: fn}
	t.timer = time.AfterFunc(p.espera, func() { p.disparar(key, t) })
	p.tareas[key] = t
}

// disparar runs t if it is still the current task for key. A timer that fired
// while Programar or Cancelar held the lock finds itself replaced and returns.
func (p *Programador) disparar(key uuid.UUID, t *tarea) {
	p.mu.Lock()
	if p.tareas[key] != t {
		p.mu.Unlock()
		return
	}
	delete(p.tareas, key)
	p.wg.Add(1)
	p.mu.Unlock()

	defer p.wg.Done()
	t.fn(context.Background())
}

// Cancelar drops the pending task for key. It reports whether one was pending.
func (p *Programador) Cancelar(key uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tareas[key]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(p.tareas, key)
	return true
}

// Pendiente reports whether key has a task waiting.
func (p *Programador) Pendiente(key uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.tareas[key]
	return ok
}

// Flush runs every waiting task now, in the caller's goroutine, then waits
// for tasks that had already started.
func (p *Programador) Flush(ctx context.Context) {
	p.mu.Lock()
	tareas := make([]*tarea, 0, len(p.tareas))
	for key, t := range p.tareas {
		t.timer.Stop()
		tareas = append(tareas, t)
		delete(p.tareas, key)
	}
	p.wg.Add(len(tareas))
	p.mu.Unlock()

	for _, t := range tareas {
		t.fn(ctx)
		p.wg.Done()
	}
	p.wg.Wait()
}
