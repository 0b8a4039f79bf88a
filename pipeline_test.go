package impulse

import (
	"fmt"
	"strings"
	"testing"
)

func TestTask_KeepsOrder(t *testing.T) {
	data := make([]int, 1000)
	for i := range data {
		data[i] = i
	}

	for _, workers := range []int{1, 3, 8, 2000} {
		results, err := task(workers, data, func(v int) (int, bool) {
			return v * 2, v%3 != 0
		})
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}

		want := 0
		for _, v := range data {
			if v%3 != 0 {
				want++
			}
		}
		if len(results) != want {
			t.Fatalf("workers=%d: %d results, want %d", workers, len(results), want)
		}
		for i := 1; i < len(results); i++ {
			if results[i] <= results[i-1] {
				t.Fatalf("workers=%d: results out of order at %d", workers, i)
			}
		}
	}
}

func TestTask_Empty(t *testing.T) {
	results, err := task(4, []int(nil), func(v int) (int, bool) { return v, true })
	if err != nil || results != nil {
		t.Errorf("task(nil) = %v, %v", results, err)
	}
}

func TestTask_RecoversPanic(t *testing.T) {
	data := []int{0, 1, 2, 3, 4, 5, 6, 7}

	results, err := task(4, data, func(v int) (int, bool) {
		if v == 5 {
			panic("boom")
		}
		return v, true
	})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v, want the panic reported", err)
	}

	// Chunk [4:6] is dropped, the others survive
	want := []int{0, 1, 2, 3, 6, 7}
	if len(results) != len(want) {
		t.Fatalf("results = %v, want %v", results, want)
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("results[%d] = %d, want %d", i, results[i], want[i])
		}
	}
}

func TestTask_SingleWorkerRecoversPanic(t *testing.T) {
	results, err := task(1, []int{1, 2}, func(v int) (int, bool) {
		panic("single")
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(results) != 0 {
		t.Errorf("results = %v, want none", results)
	}
}

func TestTask_ReportsEveryFailedChunk(t *testing.T) {
	data := []int{0, 1, 2, 3, 4, 5, 6, 7}

	results, err := task(4, data, func(v int) (int, bool) {
		if v == 1 || v == 6 {
			panic(fmt.Sprintf("bad %d", v))
		}
		return v, true
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"bad 1", "bad 6", "chunk 0", "chunk 3"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("err = %q, missing %q", err, want)
		}
	}
	if len(results) != 4 {
		t.Errorf("results = %v, want the 4 items of the healthy chunks", results)
	}
}

func BenchmarkTask(b *testing.B) {
	data := make([]int, 4096)
	for i := 0; i < b.N; i++ {
		_, _ = task(4, data, func(v int) (int, bool) { return v + 1, true })
	}
}
