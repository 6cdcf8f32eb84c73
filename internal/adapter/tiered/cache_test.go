package tiered_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/TripCrew/internal/adapter/tiered"
	"github.com/Strob0t/TripCrew/internal/port/cache"
)

type memCache struct {
	data   map[string][]byte
	getErr error
	setErr error
	delErr error
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, key)
	return nil
}

func TestTiered_L1Hit(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, 5*time.Minute)

	l1.data["run:1"] = []byte("local")
	l2.data["run:1"] = []byte("remote")

	val, found, err := c.Get(context.Background(), "run:1")
	if err != nil || !found {
		t.Fatalf("expected L1 hit, err=%v", err)
	}
	if string(val) != "local" {
		t.Fatalf("expected local, got %s", val)
	}
}

func TestTiered_L2HitBackfills(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, 5*time.Minute)

	l2.data["run:2"] = []byte("remote")

	val, found, err := c.Get(context.Background(), "run:2")
	if err != nil || !found {
		t.Fatalf("expected L2 hit, err=%v", err)
	}
	if string(val) != "remote" {
		t.Fatalf("expected remote, got %s", val)
	}
	if string(l1.data["run:2"]) != "remote" {
		t.Fatal("expected L1 backfill")
	}
}

func TestTiered_Miss(t *testing.T) {
	c := tiered.New(newMemCache(), newMemCache(), time.Minute)
	_, found, err := c.Get(context.Background(), "run:missing")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected miss")
	}
}

func TestTiered_SetBoth(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, time.Minute)

	if err := c.Set(context.Background(), "run:3", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok := l1.data["run:3"]; !ok {
		t.Fatal("expected key in L1")
	}
	if _, ok := l2.data["run:3"]; !ok {
		t.Fatal("expected key in L2")
	}
}

func TestTiered_SetToleratesL2Failure(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	l2.setErr = errors.New("kv unavailable")
	c := tiered.New(l1, l2, time.Minute)

	if err := c.Set(context.Background(), "run:4", []byte("v"), time.Minute); err != nil {
		t.Fatalf("expected L2 failure to be tolerated, got %v", err)
	}
	if _, ok := l1.data["run:4"]; !ok {
		t.Fatal("expected key in L1")
	}
}

func TestTiered_DeleteBoth(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, time.Minute)

	l1.data["run:5"] = []byte("v")
	l2.data["run:5"] = []byte("v")

	if err := c.Delete(context.Background(), "run:5"); err != nil {
		t.Fatal(err)
	}
	if _, ok := l1.data["run:5"]; ok {
		t.Fatal("expected deleted from L1")
	}
	if _, ok := l2.data["run:5"]; ok {
		t.Fatal("expected deleted from L2")
	}
}

func TestTiered_L2GetFailureIsAMiss(t *testing.T) {
	l2 := newMemCache()
	l2.getErr = errors.New("kv timeout")
	c := tiered.New(newMemCache(), l2, time.Minute)

	_, found, err := c.Get(context.Background(), "run:6")
	if err != nil {
		t.Fatalf("expected the L2 failure to read as a miss, got %v", err)
	}
	if found {
		t.Fatal("expected miss")
	}
	if got := c.Stats().Misses; got != 1 {
		t.Fatalf("expected 1 miss, got %d", got)
	}
}

func TestTiered_DeleteToleratesL2Failure(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	l2.delErr = errors.New("kv unavailable")
	c := tiered.New(l1, l2, time.Minute)
	l1.data["run:7"] = []byte("v")

	if err := c.Delete(context.Background(), "run:7"); err != nil {
		t.Fatalf("expected L2 failure to be tolerated, got %v", err)
	}
	if _, ok := l1.data["run:7"]; ok {
		t.Fatal("expected deleted from L1")
	}
}

func TestTiered_Stats(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, time.Minute)
	ctx := context.Background()

	l2.data["run:8"] = []byte("remote")
	_, _, _ = c.Get(ctx, "run:8") // L2 hit, backfilled
	_, _, _ = c.Get(ctx, "run:8") // L1 hit
	_, _, _ = c.Get(ctx, "run:9") // miss

	want := cache.Stats{L1Hits: 1, L2Hits: 1, Misses: 1}
	if got := c.Stats(); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
