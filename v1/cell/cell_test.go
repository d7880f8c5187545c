package cell

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/mirkobrombin/go-tspawn/v1/errors"
)

func TestCellBasicOperations(t *testing.T) {
	c := New(42)
	if v := c.Snapshot(); v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
	c.Replace(100)
	if v := c.Snapshot(); v != 100 {
		t.Fatalf("expected 100, got %d", v)
	}
	c.Update(func(x *int) { *x++ })
	if v := c.Snapshot(); v != 101 {
		t.Fatalf("expected 101, got %d", v)
	}
	if p := c.SnapshotOpt(); p == nil || *p != 101 {
		t.Fatalf("expected pointer to 101, got %v", p)
	}
}

func TestCellSnapshotReturnsLastCompletedWrite(t *testing.T) {
	c := New("a")
	ops := []func(){
		func() { c.Replace("b") },
		func() { c.Update(func(s *string) { *s += "c" }) },
		func() { c.Replace("d") },
		func() { c.Update(func(s *string) { *s += "e" }) },
	}
	want := []string{"b", "bc", "d", "de"}
	for i, op := range ops {
		op()
		if got := c.Snapshot(); got != want[i] {
			t.Fatalf("step %d: expected %q, got %q", i, want[i], got)
		}
	}
}

func TestCellDupSharesValue(t *testing.T) {
	original := New([]int{1, 2, 3})
	dup := original.Dup()
	if !original.Same(dup) {
		t.Fatal("duplicate does not refer to the same value")
	}
	if len(dup.Snapshot()) != 3 {
		t.Fatalf("unexpected duplicate snapshot %v", dup.Snapshot())
	}
	original.Update(func(v *[]int) { *v = append(*v, 4) })
	if got := dup.Snapshot(); len(got) != 4 || got[3] != 4 {
		t.Fatalf("duplicate did not observe update: %v", got)
	}
	dup.Replace([]int{9})
	if got := original.Snapshot(); len(got) != 1 || got[0] != 9 {
		t.Fatalf("original did not observe replace: %v", got)
	}
	if New(1).Same(New(1)) {
		t.Fatal("distinct cells reported as same")
	}
}

func TestCellConcurrentUpdates(t *testing.T) {
	c := New(0)
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		d := c.Dup()
		go func() {
			defer wg.Done()
			defer d.Drop()
			d.Update(func(x *int) { *x++ })
		}()
	}
	wg.Wait()
	if v := c.Snapshot(); v != 10 {
		t.Fatalf("expected 10, got %d", v)
	}
}

func TestCellGuards(t *testing.T) {
	c := New("Hello")
	r := c.Read()
	if r.Value() != "Hello" {
		t.Fatalf("unexpected read value %q", r.Value())
	}
	r.Release()

	w := c.Write()
	*w.Ptr() += ", World!"
	w.Release()
	w.Release()

	if v := c.Snapshot(); v != "Hello, World!" {
		t.Fatalf("unexpected value %q", v)
	}
}

func TestCellReadWriteNeverOverlap(t *testing.T) {
	type pair struct{ a, b int }
	c := New(pair{})
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 500; i++ {
			w := c.Write()
			w.Ptr().a = i
			time.Sleep(time.Microsecond)
			w.Ptr().b = i
			w.Release()
		}
		close(stop)
	}()

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				r := c.Read()
				if v := r.Value(); v.a != v.b {
					t.Errorf("observed partial write: %+v", v)
				}
				r.Release()
			}
		}()
	}
	wg.Wait()
}

func TestCellTryAndContextAcquisition(t *testing.T) {
	c := New(1)
	w := c.Write()
	if _, ok := c.TryRead(); ok {
		t.Fatal("read acquired while write guard held")
	}
	if _, ok := c.TryWrite(); ok {
		t.Fatal("write acquired twice")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := c.ReadContext(ctx); !stderrors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	w.Release()

	r, ok := c.TryRead()
	if !ok {
		t.Fatal("expected read guard")
	}
	r2, err := c.ReadContext(context.Background())
	if err != nil {
		t.Fatalf("read context: %v", err)
	}
	r.Release()
	r2.Release()

	wg, err := c.WriteContext(context.Background())
	if err != nil {
		t.Fatalf("write context: %v", err)
	}
	wg.Set(7)
	wg.Release()
	if v := c.Snapshot(); v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}
}

func TestCellUpdatePanicDoesNotPoison(t *testing.T) {
	c := New(0)
	func() {
		defer func() { _ = recover() }()
		c.Update(func(x *int) {
			*x = 5
			panic("boom")
		})
	}()
	if v := c.Snapshot(); v != 5 {
		t.Fatalf("expected value left by panicking update, got %d", v)
	}
	c.Update(func(x *int) { *x++ })
	if v := c.Snapshot(); v != 6 {
		t.Fatalf("expected 6, got %d", v)
	}
}

func TestCellRefCounting(t *testing.T) {
	released := make(chan int, 1)
	c := New(3, WithOnRelease(func(v int) { released <- v }))
	d := c.Dup()
	if n := c.Refs(); n != 2 {
		t.Fatalf("expected 2 refs, got %d", n)
	}
	c.Drop()
	c.Drop()
	if n := d.Refs(); n != 1 {
		t.Fatalf("expected 1 ref, got %d", n)
	}

	g := d.Read()
	d.Drop()
	select {
	case <-released:
		t.Fatal("value released while guard alive")
	default:
	}
	if g.Value() != 3 {
		t.Fatalf("guard lost value: %d", g.Value())
	}
	g.Release()
	select {
	case v := <-released:
		if v != 3 {
			t.Fatalf("release hook got %d", v)
		}
	default:
		t.Fatal("release hook did not run")
	}
}

func TestCellUseAfterDropPanics(t *testing.T) {
	c := New(1)
	c.Drop()
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !stderrors.Is(err, errors.ErrDropped) {
			t.Fatalf("expected ErrDropped panic, got %v", r)
		}
	}()
	_ = c.Snapshot()
}

func TestGuardUseAfterReleasePanics(t *testing.T) {
	c := New(1)
	g := c.Write()
	g.Release()
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !stderrors.Is(err, errors.ErrGuardReleased) {
			t.Fatalf("expected ErrGuardReleased panic, got %v", r)
		}
	}()
	g.Set(2)
}

func TestCellRawInterop(t *testing.T) {
	s := NewShared(42)
	c := FromRaw(s)
	if n := s.Refs(); n != 1 {
		t.Fatalf("expected FromRaw to take the first ref, got %d", n)
	}
	if v := c.Snapshot(); v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
	raw := c.IntoRaw()
	if raw != s {
		t.Fatal("IntoRaw returned a different shared value")
	}
	if n := raw.Refs(); n != 1 {
		t.Fatalf("expected IntoRaw to hand its ref over, got %d", n)
	}
	raw.RLock()
	if *raw.Ptr() != 42 {
		t.Fatalf("value lost after IntoRaw: %d", *raw.Ptr())
	}
	raw.RUnlock()

	again := FromRaw(raw)
	again.Replace(7)
	raw.Lock()
	if *raw.Ptr() != 7 {
		t.Fatalf("expected 7, got %d", *raw.Ptr())
	}
	raw.Unlock()
	if n := raw.Refs(); n != 2 {
		t.Fatalf("expected 2 refs, got %d", n)
	}
	raw.Release()
	again.Drop()
	if n := raw.Refs(); n != 0 {
		t.Fatalf("expected all refs released, got %d", n)
	}
}

func TestCellRawFormKeepsValueAlive(t *testing.T) {
	released := 0
	a := New(7, WithOnRelease(func(int) { released++ }))
	b := a.Dup()
	raw := a.IntoRaw()
	b.Drop()
	if released != 0 {
		t.Fatal("value released while the raw form still holds a reference")
	}

	c := Adopt(raw)
	if v := c.Snapshot(); v != 7 {
		t.Fatalf("expected 7 through the adopted handle, got %d", v)
	}
	if n := c.Refs(); n != 1 {
		t.Fatalf("Adopt must not take a new ref, got %d", n)
	}
	c.Drop()
	if released != 1 {
		t.Fatalf("expected release hook to run once, ran %d times", released)
	}
}

func TestSharedReleaseRunsHookOnLastRef(t *testing.T) {
	released := 0
	a := New("x", WithOnRelease(func(string) { released++ }))
	b := a.Dup()
	raw := a.IntoRaw()
	raw.Release()
	if released != 0 {
		t.Fatal("release hook ran while a handle is live")
	}
	if v := b.Snapshot(); v != "x" {
		t.Fatalf("expected x, got %q", v)
	}
	b.Drop()
	if released != 1 {
		t.Fatalf("expected release hook to run once, ran %d times", released)
	}
}

type doc struct {
	tags []string
}

func (d doc) Clone() doc {
	return doc{tags: append([]string(nil), d.tags...)}
}

func TestCellSnapshotUsesCloner(t *testing.T) {
	c := New(doc{tags: []string{"a"}})
	snap := c.Snapshot()
	snap.tags[0] = "changed"
	if got := c.Snapshot().tags[0]; got != "a" {
		t.Fatalf("snapshot aliased the shared value: %q", got)
	}
}

func TestCellTryDup(t *testing.T) {
	c := New(3)
	d, ok := c.TryDup()
	if !ok || !d.Same(c) {
		t.Fatal("expected TryDup to share the value")
	}
	if n := c.Refs(); n != 2 {
		t.Fatalf("expected 2 refs, got %d", n)
	}
	c.Drop()
	if _, ok := c.TryDup(); ok {
		t.Fatal("TryDup succeeded on a dropped handle")
	}
	if n := d.Refs(); n != 1 {
		t.Fatalf("failed TryDup changed the count: %d", n)
	}
	d.Drop()
}
