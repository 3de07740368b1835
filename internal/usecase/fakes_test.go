package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

type fakeGateway struct {
	mu      sync.Mutex
	leads   []entity.Lead
	listErr error
	noteErr error
	// list, when set, runs on every ListLeads call before it returns.
	list func()
	// update decides the outcome of every UpdateLead call.
	update func(id string, patch entity.LeadPatch) error
	calls  []string
	notes  []entity.NoteInput
}

func (g *fakeGateway) ListLeads(context.Context, ListLeadsParams) ([]entity.Lead, error) {
	g.mu.Lock()
	hook := g.list
	g.mu.Unlock()
	if hook != nil {
		hook()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	out := make([]entity.Lead, len(g.leads))
	for i, l := range g.leads {
		out[i] = l.Clone()
	}
	return out, nil
}

func (g *fakeGateway) UpdateLead(_ context.Context, id string, patch entity.LeadPatch) (*entity.Lead, error) {
	g.mu.Lock()
	status := ""
	if patch.Status != nil {
		status = *patch.Status
	}
	g.calls = append(g.calls, "update:"+id+":"+status)
	fn := g.update
	g.mu.Unlock()
	if fn != nil {
		if err := fn(id, patch); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (g *fakeGateway) AddNote(_ context.Context, id string, note entity.NoteInput) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "note:"+id)
	g.notes = append(g.notes, note)
	return g.noteErr
}

func (g *fakeGateway) DeleteLead(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "delete:"+id)
	return nil
}

func (g *fakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recordingNotifier) Levels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.items))
	for i, n := range r.items {
		out[i] = n.Level
	}
	return out
}

func (r *recordingNotifier) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []StageChangedEvent
}

func (p *recordingPublisher) PublishStageChanged(_ context.Context, e StageChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, false, s.err
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

var (
	t0      = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	fixedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
)

func lead(id, status string, value float64) entity.Lead {
	return entity.Lead{ID: id, Name: "Lead " + id, Status: status, DealValue: value, CreatedAt: t0, UpdatedAt: t0}
}
