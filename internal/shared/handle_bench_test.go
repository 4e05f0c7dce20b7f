package shared

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/sajjad-MoBe/logkv/internal/storage"
)

func benchHandle(b *testing.B, opts ...storage.Option) *Handle {
	h, err := Open(filepath.Join(b.TempDir(), "bench.log"), opts...)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() {
		h.Close()
	})
	return h
}

func BenchmarkWriteThroughput(b *testing.B) {
	h := benchHandle(b, storage.WithSyncWrites(false))
	value := make([]byte, 1024) // 1KB values
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := h.Set(fmt.Sprintf("key-%d", i), value); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSyncedWrites(b *testing.B) {
	h := benchHandle(b)
	value := make([]byte, 128)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := h.Set(fmt.Sprintf("key-%d", i%100), value); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReadThroughput(b *testing.B) {
	h := benchHandle(b, storage.WithSyncWrites(false))

	// Pre-populate with test data
	for i := 0; i < 1000; i++ {
		if err := h.Set(fmt.Sprintf("key-%d", i), make([]byte, 1024)); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := h.Get(fmt.Sprintf("key-%d", i%1000)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParallelMixed(b *testing.B) {
	h := benchHandle(b, storage.WithSyncWrites(false))

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := fmt.Sprintf("key-%d", i%100)
			if i%4 == 0 {
				h.Set(key, []byte("value"))
			} else {
				h.Get(key)
			}
			i++
		}
	})
}
