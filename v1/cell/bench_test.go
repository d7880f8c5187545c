package cell

import "testing"

// benchmarkSnapshot measures read-locked copies, optionally under parallel load.
func benchmarkSnapshot(b *testing.B, parallel bool) {
	c := New(42)
	defer c.Drop()
	b.ReportAllocs()
	b.ResetTimer()
	if !parallel {
		for i := 0; i < b.N; i++ {
			_ = c.Snapshot()
		}
		return
	}
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = c.Snapshot()
		}
	})
}

func BenchmarkCellSnapshot(b *testing.B) {
	benchmarkSnapshot(b, false)
}

func BenchmarkCellSnapshotParallel(b *testing.B) {
	benchmarkSnapshot(b, true)
}

func BenchmarkCellUpdateParallel(b *testing.B) {
	c := New(0)
	defer c.Drop()
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.Update(func(x *int) { *x++ })
		}
	})
}

func BenchmarkCellDupDrop(b *testing.B) {
	c := New("value")
	defer c.Drop()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Dup().Drop()
	}
}
