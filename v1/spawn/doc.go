// Package spawn launches tasks with shared cells bound into them.
//
// A launch names an ordered list of variables, each with a mode:
//
//	Own(c)  the task gets its own handle to the cell, no lock is held
//	Ref(c)  the task holds a read guard for its whole run
//	Mut(c)  the task holds the write guard for its whole run
//
// Handles are duplicated on the caller's goroutine when the task is launched,
// before any lock is requested. Inside the task, locks are acquired in
// declaration order, then the body runs, then the guards are released and the
// duplicates dropped, whatever way the body exits.
//
//	a, b, c := cell.New(1), cell.New(2), cell.New(3)
//	va, vb, vc := spawn.Own(a), spawn.Ref(b), spawn.Mut(c)
//	h, err := spawn.Go(ctx, sched, func(ctx context.Context, env *spawn.Env) error {
//		w := vc.In(env)
//		w.Set(w.Value() + va.In(env).Snapshot() + vb.In(env).Value())
//		return nil
//	}, va, vb, vc)
//
// The same list can be written as text and resolved against a Scope of named
// cells: "a, ref b, mut c". See ParseDecl and Spawner.Launch.
//
// Locks are never reordered. Tasks that take several cells in conflicting
// modes must agree on a global order, otherwise they can deadlock. A guard
// lives as long as the body, so a long body holding Mut serializes every
// other access to that cell.
package spawn
