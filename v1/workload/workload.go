package workload

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/mirkobrombin/go-tspawn/v1/spawn"
)

// Op is the operation a task performs on its bindings.
type Op string

const (
	// OpAdd adds Value, plus the current value of Source when set, to Target.
	OpAdd Op = "add"
	// OpSum stores into Target the sum of every other binding.
	OpSum Op = "sum"
	// OpHold reads every binding and keeps the guards for Hold.
	OpHold Op = "hold"
)

// Task is one launch declaration repeated Repeat times.
type Task struct {
	Name   string        `yaml:"name,omitempty"`
	Decl   string        `yaml:"decl"`
	Op     Op            `yaml:"op"`
	Target string        `yaml:"target,omitempty"`
	Source string        `yaml:"source,omitempty"`
	Value  int64         `yaml:"value,omitempty"`
	Hold   time.Duration `yaml:"hold,omitempty"`
	Repeat int           `yaml:"repeat,omitempty"`

	decls []spawn.Decl
}

// Workload is the parsed form of a workload file.
type Workload struct {
	Workers int              `yaml:"workers,omitempty"`
	Cells   map[string]int64 `yaml:"cells"`
	Tasks   []Task           `yaml:"tasks"`
}

// Load reads and validates a workload file.
func Load(path string) (*Workload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	wl, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wl, nil
}

// Decode reads a workload from r and validates it.
func Decode(r io.Reader) (*Workload, error) {
	var wl Workload
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&wl); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty workload")
		}
		return nil, fmt.Errorf("decode workload: %w", err)
	}
	if err := wl.Validate(); err != nil {
		return nil, err
	}
	return &wl, nil
}

// Validate checks every task against the declared cells. All problems are
// reported at once.
func (wl *Workload) Validate() error {
	var merr *multierror.Error
	if len(wl.Cells) == 0 {
		merr = multierror.Append(merr, fmt.Errorf("no cells declared"))
	}
	if wl.Workers < 0 {
		merr = multierror.Append(merr, fmt.Errorf("workers must not be negative"))
	}
	for i := range wl.Tasks {
		t := &wl.Tasks[i]
		if err := t.validate(wl.Cells); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("task %s: %w", t.label(i), err))
		}
	}
	return merr.ErrorOrNil()
}

func (t *Task) label(i int) string {
	if t.Name != "" {
		return fmt.Sprintf("%q", t.Name)
	}
	return fmt.Sprintf("#%d", i)
}

func (t *Task) validate(cells map[string]int64) error {
	if t.Repeat < 0 {
		return fmt.Errorf("repeat must not be negative")
	}
	decls, err := spawn.ParseDecl(t.Decl)
	if err != nil {
		return err
	}
	modes := make(map[string]spawn.Mode, len(decls))
	for _, d := range decls {
		if _, ok := cells[d.Name]; !ok {
			return fmt.Errorf("undeclared cell %q", d.Name)
		}
		modes[d.Name] = d.Mode
	}
	switch t.Op {
	case OpAdd, OpSum:
		m, ok := modes[t.Target]
		if !ok {
			return fmt.Errorf("target %q is not bound", t.Target)
		}
		if m != spawn.Exclusive {
			return fmt.Errorf("target %q must be bound with mut", t.Target)
		}
		if t.Source != "" {
			if _, ok := modes[t.Source]; !ok {
				return fmt.Errorf("source %q is not bound", t.Source)
			}
		}
	case OpHold:
		if t.Hold < 0 {
			return fmt.Errorf("hold must not be negative")
		}
	default:
		return fmt.Errorf("unknown op %q", t.Op)
	}
	t.decls = decls
	return nil
}

// Names returns the cell names, sorted.
func (wl *Workload) Names() []string {
	names := make([]string, 0, len(wl.Cells))
	for n := range wl.Cells {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
