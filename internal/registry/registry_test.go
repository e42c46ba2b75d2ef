package registry

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestOpenLookupClose(t *testing.T) {
	var r Registry[int]

	if !r.Open("a", 1) {
		t.Fatal("first Open returned false")
	}
	if r.Open("a", 2) {
		t.Fatal("duplicate Open returned true")
	}
	v, ok := r.Lookup("a")
	if !ok || v != 1 {
		t.Fatalf("Lookup = (%d, %v), want (1, true)", v, ok)
	}
	v, ok = r.Close("a")
	if !ok || v != 1 {
		t.Fatalf("Close = (%d, %v), want (1, true)", v, ok)
	}
	if _, ok := r.Lookup("a"); ok {
		t.Fatal("Lookup succeeded after Close")
	}
	if _, ok := r.Close("a"); ok {
		t.Fatal("second Close returned true")
	}
	if !r.Open("a", 3) {
		t.Fatal("reopen after Close returned false")
	}
}

func TestConcurrentOpenAdmitsOne(t *testing.T) {
	var r Registry[int]
	var admitted atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if r.Open("bucket", i) {
				admitted.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if n := admitted.Load(); n != 1 {
		t.Fatalf("%d opens admitted, want 1", n)
	}
}

func TestRange(t *testing.T) {
	var r Registry[string]
	r.Open("a", "1")
	r.Open("b", "2")

	seen := map[string]string{}
	r.Range(func(name, value string) bool {
		seen[name] = value
		return true
	})
	if len(seen) != 2 || seen["a"] != "1" || seen["b"] != "2" {
		t.Fatalf("Range saw %v", seen)
	}
}
