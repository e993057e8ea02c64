package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndRecent(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	ctx := context.Background()
	start := time.Date(2023, 6, 12, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)

	entries := []Entry{
		{Symbol: "AAPL", Interval: "1d", Start: start, End: end, Rows: 3, Elapsed: 120 * time.Millisecond},
		{Symbol: "MSFT", Interval: "5m", Start: start, End: end, Rows: 390, Elapsed: 250 * time.Millisecond},
	}
	for _, e := range entries {
		if err := j.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}

	// Newest first.
	if got[0].Symbol != "MSFT" || got[1].Symbol != "AAPL" {
		t.Errorf("order = [%s, %s], want newest first", got[0].Symbol, got[1].Symbol)
	}
	if got[1].Rows != 3 || !got[1].Start.Equal(start) || !got[1].End.Equal(end) {
		t.Errorf("round trip lost fields: %+v", got[1])
	}
	if got[0].Elapsed != 250*time.Millisecond {
		t.Errorf("elapsed = %v, want 250ms", got[0].Elapsed)
	}
	if got[0].FetchedAt.IsZero() {
		t.Error("zero FetchedAt was not filled at record time")
	}
}

func TestRecentRespectsLimit(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := j.Record(ctx, Entry{Symbol: "SPY", Interval: "1d"}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got %d entries, want 2", len(got))
	}
}

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	got, err := j.Recent(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("fresh journal has %d entries, want 0", len(got))
	}
}
