package repository

import "testing"

func TestChunkSplitsEvenly(t *testing.T) {
	got := chunk([]int{1, 2, 3, 4, 5, 6}, 2)
	if len(got) != 3 {
		t.Fatalf("chunks = %d, want 3", len(got))
	}
	for i, c := range got {
		if len(c) != 2 {
			t.Fatalf("chunk %d has %d items", i, len(c))
		}
	}
}

func TestChunkKeepsRemainder(t *testing.T) {
	got := chunk([]string{"a", "b", "c", "d", "e"}, 2)
	if len(got) != 3 || len(got[2]) != 1 || got[2][0] != "e" {
		t.Fatalf("unexpected chunks: %v", got)
	}
}

func TestChunkSmallerThanSize(t *testing.T) {
	got := chunk([]int{1}, 500)
	if len(got) != 1 || len(got[0]) != 1 {
		t.Fatalf("unexpected chunks: %v", got)
	}
}

func TestChunkEmptyAndNil(t *testing.T) {
	if got := chunk([]int{}, 10); len(got) != 0 {
		t.Fatalf("empty input should produce no chunks, got %v", got)
	}
	if got := chunk[int](nil, 10); len(got) != 0 {
		t.Fatalf("nil input should produce no chunks, got %v", got)
	}
}

func TestChunkNonPositiveSizeFallsBackToDefault(t *testing.T) {
	items := make([]int, defaultBatchSize+1)
	got := chunk(items, 0)
	if len(got) != 2 {
		t.Fatalf("chunks = %d, want 2", len(got))
	}
	if len(got[0]) != defaultBatchSize {
		t.Fatalf("first chunk = %d, want %d", len(got[0]), defaultBatchSize)
	}
}
