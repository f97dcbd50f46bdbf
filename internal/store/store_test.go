//go:build cgo

package store

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/wethinkt/go-colorgorical/internal/colorspace"
	"github.com/wethinkt/go-colorgorical/internal/palette"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.duckdb"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pal := palette.Palette{{L: 50, A: 10, B: -20}, {L: 70, A: -40, B: 35}}
	rec, err := s.Save(ctx, Record{
		Kind:          KindScored,
		RequestedSize: 2,
		Colors:        pal,
		Weights:       palette.DefaultWeights(),
		MinScores:     &palette.MinScores{DE: 40, ND: 0.7, PP: 12.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Fatalf("record was not stamped: %+v", rec)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindScored || got.RequestedSize != 2 || !slices.Equal(got.Colors, pal) {
		t.Errorf("Get = %+v", got)
	}
	if got.Weights != palette.DefaultWeights() {
		t.Errorf("Weights = %+v", got.Weights)
	}
	if got.MinScores == nil || got.MinScores.PP != 12.5 {
		t.Errorf("MinScores = %+v", got.MinScores)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrNotFound", err)
	}
}

func TestRecentOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		_, err := s.Save(ctx, Record{
			ID:            string(rune('a' + i)),
			Kind:          KindMade,
			RequestedSize: i + 1,
			Colors:        palette.Palette{colorspace.Lab{L: float64(10 * i)}},
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	recs, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].ID != "c" || recs[1].ID != "b" {
		t.Fatalf("Recent = %+v", recs)
	}
	if recs[0].MinScores != nil {
		t.Errorf("unscored record has MinScores %+v", recs[0].MinScores)
	}
}

func TestEnqueueFlushesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.duckdb")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for range 5 {
		if _, err := s.Enqueue(ctx, Record{Kind: KindMade, Colors: palette.Palette{{L: 50}}}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("Count = %d, want 5", n)
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "history.duckdb"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	for range 100 {
		rec, err := s.Enqueue(context.Background(), Record{Kind: KindMade, Colors: palette.Palette{{L: 50}}})
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("Enqueue after Close = %+v, %v; want ErrClosed", rec, err)
		}
		if rec.ID != "" {
			t.Fatalf("Enqueue after Close returned id %q", rec.ID)
		}
	}
}

func TestEnqueueConcurrentWithClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.duckdb")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	accepted := make(chan string, 200)
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				rec, err := s.Enqueue(ctx, Record{Kind: KindScored, Colors: palette.Palette{{L: 60}, {L: 70}}})
				if err != nil {
					return
				}
				accepted <- rec.ID
			}
		}()
	}
	time.Sleep(5 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	wg.Wait()
	close(accepted)

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	for id := range accepted {
		if _, err := s.Get(ctx, id); err != nil {
			t.Errorf("accepted record %s was not written: %v", id, err)
		}
	}
}
