package service

import (
	"context"
	"sync"

	"github.com/Strob0t/TripCrew/internal/domain"
	"github.com/Strob0t/TripCrew/internal/domain/run"
	"github.com/Strob0t/TripCrew/internal/domain/trip"
)

func samplePrefs() trip.Preferences {
	return trip.Preferences{
		TravelType: trip.TravelCultural,
		Interests:  []string{"History", "Food"},
		Season:     trip.SeasonSpring,
		Duration:   5,
		Budget:     trip.BudgetMedium,
	}
}

type recordedEvent struct {
	Type    string
	Payload any
}

type fakeHub struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (h *fakeHub) BroadcastEvent(_ context.Context, eventType string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, recordedEvent{Type: eventType, Payload: payload})
}

func (h *fakeHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeStore struct {
	mu   sync.Mutex
	runs map[string]run.Record
	err  error
}

func newFakeStore() *fakeStore { return &fakeStore{runs: map[string]run.Record{}} }

func (s *fakeStore) SaveRun(_ context.Context, rec *run.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.runs[rec.ID]; ok {
		return domain.ErrConflict
	}
	s.runs[rec.ID] = *rec
	return nil
}

func (s *fakeStore) GetRun(_ context.Context, id string) (*run.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (s *fakeStore) ListRuns(_ context.Context, limit int) ([]run.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []run.Record{}
	for _, r := range s.runs {
		if len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

type published struct {
	Subject string
	Data    []byte
}

type fakeQueue struct {
	mu   sync.Mutex
	msgs []published
}

func (q *fakeQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, published{Subject: subject, Data: data})
	return nil
}

func (q *fakeQueue) Close() error      { return nil }
func (q *fakeQueue) IsConnected() bool { return true }

type fakeArtifacts struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (a *fakeArtifacts) Put(_ context.Context, key, _ string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[key] = data
	return nil
}

func (a *fakeArtifacts) Get(_ context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}
