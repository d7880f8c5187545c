package workload

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/mirkobrombin/go-tspawn/v1/cell"
	"github.com/mirkobrombin/go-tspawn/v1/scheduler"
	"github.com/mirkobrombin/go-tspawn/v1/spawn"
)

// Result summarizes a run.
type Result struct {
	Tasks   int              `yaml:"tasks"`
	Failed  int              `yaml:"failed"`
	Elapsed time.Duration    `yaml:"elapsed"`
	Cells   map[string]int64 `yaml:"cells"`
}

// Run launches every task of wl on s and waits for all of them. Task errors
// are collected into the returned error; the result is filled in either way.
func Run(ctx context.Context, s *spawn.Spawner, wl *Workload) (*Result, error) {
	if err := wl.Validate(); err != nil {
		return nil, err
	}
	scope := spawn.NewScope()
	cells := make(map[string]*cell.Cell[int64], len(wl.Cells))
	for _, name := range wl.Names() {
		c := cell.New(wl.Cells[name])
		if err := spawn.Declare(scope, name, c); err != nil {
			return nil, err
		}
		cells[name] = c
	}
	defer func() {
		for name, c := range cells {
			scope.Undeclare(name)
			c.Drop()
		}
	}()

	start := time.Now()
	var (
		handles []*scheduler.Handle
		merr    *multierror.Error
	)
	for i, t := range wl.Tasks {
		body := t.body()
		repeat := t.Repeat
		if repeat == 0 {
			repeat = 1
		}
		for range repeat {
			h, err := s.Launch(ctx, scope, t.Decl, body)
			if err != nil {
				merr = multierror.Append(merr, fmt.Errorf("task %s: %w", t.label(i), err))
				break
			}
			handles = append(handles, h)
		}
	}
	slog.Debug("tspawn: workload submitted", "tasks", len(handles))

	res := &Result{Tasks: len(handles), Cells: make(map[string]int64, len(cells))}
	for _, h := range handles {
		if err := h.Wait(ctx); err != nil {
			res.Failed++
			merr = multierror.Append(merr, fmt.Errorf("task %s: %w", h.ID(), err))
		}
	}
	res.Elapsed = time.Since(start)
	for name, c := range cells {
		res.Cells[name] = c.Snapshot()
	}
	return res, merr.ErrorOrNil()
}

func (t Task) body() spawn.Body {
	return func(ctx context.Context, env *spawn.Env) error {
		switch t.Op {
		case OpAdd:
			w, err := spawn.WriterOf[int64](env, t.Target)
			if err != nil {
				return err
			}
			delta := t.Value
			if t.Source != "" && t.Source != t.Target {
				v, err := read(env, t.Source)
				if err != nil {
					return err
				}
				delta += v
			} else if t.Source == t.Target {
				delta += w.Value()
			}
			w.Set(w.Value() + delta)
		case OpSum:
			w, err := spawn.WriterOf[int64](env, t.Target)
			if err != nil {
				return err
			}
			var sum int64
			for _, d := range t.decls {
				if d.Name == t.Target {
					continue
				}
				v, err := read(env, d.Name)
				if err != nil {
					return err
				}
				sum += v
			}
			w.Set(sum)
		case OpHold:
			for _, d := range t.decls {
				if _, err := read(env, d.Name); err != nil {
					return err
				}
			}
			if t.Hold > 0 {
				select {
				case <-time.After(t.Hold):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		return nil
	}
}

// read returns the value bound as name whatever its mode.
func read(env *spawn.Env, name string) (int64, error) {
	if r, err := spawn.ReaderOf[int64](env, name); err == nil {
		return r.Value(), nil
	}
	if w, err := spawn.WriterOf[int64](env, name); err == nil {
		return w.Value(), nil
	}
	c, err := spawn.CellOf[int64](env, name)
	if err != nil {
		return 0, err
	}
	// names also bound by ref resolve to the guard above, so this never
	// re-enters a lock held by the task
	return c.Snapshot(), nil
}
