package fanout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
)

func TestRunPreservesInputOrder(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7}
	results := Run(context.Background(), items, func(_ context.Context, n int) (string, error) {
		return strconv.Itoa(n * 10), nil
	})
	if len(results) != len(items) {
		t.Fatalf("got %d results, want %d", len(results), len(items))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("item %d: unexpected error: %v", i, r.Err)
		}
		if want := strconv.Itoa(i * 10); r.Value != want {
			t.Errorf("item %d: got %q, want %q", i, r.Value, want)
		}
	}
}

func TestRunOrderIndependentOfCompletion(t *testing.T) {
	// Item 0 is forced to finish after item 1; results must still be
	// aligned with the input positions.
	release := make(chan struct{})
	items := []int{0, 1}
	results := Run(context.Background(), items, func(_ context.Context, n int) (int, error) {
		if n == 0 {
			<-release
		}
		if n == 1 {
			close(release)
		}
		return n + 100, nil
	})
	if results[0].Value != 100 || results[1].Value != 101 {
		t.Errorf("results misaligned: got [%d %d], want [100 101]", results[0].Value, results[1].Value)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	items := []string{"a", "b", "c"}
	results := Run(context.Background(), items, func(_ context.Context, s string) (string, error) {
		if s == "b" {
			return "", fmt.Errorf("item %s: %w", s, boom)
		}
		return s + "!", nil
	})
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("sibling items failed: %v, %v", results[0].Err, results[2].Err)
	}
	if results[0].Value != "a!" || results[2].Value != "c!" {
		t.Errorf("sibling values wrong: %q, %q", results[0].Value, results[2].Value)
	}
	if !errors.Is(results[1].Err, boom) {
		t.Errorf("item 1 error = %v, want wrapped boom", results[1].Err)
	}
}

func TestRunCancelledContextFillsEverySlot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	items := make([]int, 20)
	results := Run(ctx, items, func(ctx context.Context, _ int) (int, error) {
		return 0, ctx.Err()
	})
	for i, r := range results {
		if r.Err == nil {
			t.Errorf("item %d: expected an error after cancellation", i)
		}
	}
}

func TestRunEmptyInput(t *testing.T) {
	results := Run(context.Background(), nil, func(_ context.Context, _ int) (int, error) {
		t.Fatal("fn must not be called for empty input")
		return 0, nil
	})
	if len(results) != 0 {
		t.Errorf("got %d results for empty input", len(results))
	}
}
