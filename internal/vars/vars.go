// Package vars implements the Variable data model (spec.md §3): opaque
// symbolic names with object identity, owned and freshly minted by a
// VariableManager.
package vars

import (
	"fmt"
	"sync"
)

// Kind distinguishes program variables (observable at loop entry/exit)
// from temporaries introduced by the acceleration calculus itself
// (iteration counters, split counters, Farkas coefficients).
type Kind int

const (
	ProgramVar Kind = iota
	TempVar
)

func (k Kind) String() string {
	if k == TempVar {
		return "temp"
	}
	return "program"
}

// Sort is the SMT sort a Variable is translated to (spec.md §4.1: "the
// variable kind to choose sort"). Program variables are integers by
// default; a manager may mark individual variables Real.
type Sort int

const (
	Int Sort = iota
	Real
)

// Variable is an opaque handle. Identity is by pointer, never by name
// — two variables with the same name from different managers (or
// created at different times) are distinct, matching spec.md §3
// ("Identity is by object, not name").
type Variable struct {
	id   uint64
	name string
	kind Kind
	sort Sort
}

func (v *Variable) ID() uint64   { return v.id }
func (v *Variable) Name() string { return v.name }
func (v *Variable) Kind() Kind   { return v.kind }
func (v *Variable) Sort() Sort   { return v.sort }
func (v *Variable) String() string {
	return v.name
}

// Manager owns all variables for one analysis run. Fresh-variable
// creation is centralised here and name-unique within a manager.
// Shared managers must be protected against concurrent fresh-variable
// creation (spec.md §5: "the repository locks a process-wide mutex
// around the manager") — Manager does this itself with an internal
// mutex rather than pushing the obligation onto callers.
type Manager struct {
	mu      sync.Mutex
	nextID  uint64
	byName  map[string]*Variable
	all     []*Variable
	counter map[string]int // per-prefix counter for fresh-name generation
}

// NewManager returns an empty variable manager.
func NewManager() *Manager {
	return &Manager{
		byName:  make(map[string]*Variable),
		counter: make(map[string]int),
	}
}

// Declare introduces a named program variable. It is an error (panic,
// since this indicates a caller bug — a rule's variables should be
// declared once, up front) to declare the same name twice.
func (m *Manager) Declare(name string, sort Sort) *Variable {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[name]; ok {
		panic(fmt.Sprintf("vars: variable %q already declared", name))
	}
	return m.newVar(name, ProgramVar, sort)
}

// AddFreshTemporary mints a new TempVar whose name is derived from the
// given prefix but guaranteed unique within this manager (spec.md §6:
// "addFreshTemporary(name) -> Var").
func (m *Manager) AddFreshTemporary(prefix string, sort Sort) *Variable {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		n := m.counter[prefix]
		m.counter[prefix] = n + 1
		name := prefix
		if n > 0 || m.byName[prefix] != nil {
			name = fmt.Sprintf("%s%d", prefix, n)
		}
		if _, taken := m.byName[name]; !taken {
			return m.newVar(name, TempVar, sort)
		}
	}
}

func (m *Manager) newVar(name string, kind Kind, sort Sort) *Variable {
	m.nextID++
	v := &Variable{id: m.nextID, name: name, kind: kind, sort: sort}
	m.byName[name] = v
	m.all = append(m.all, v)
	return v
}

// IsTemp reports whether v was minted as a temporary.
func (m *Manager) IsTemp(v *Variable) bool { return v.kind == TempVar }

// SortOf returns the SMT sort associated with v.
func (m *Manager) SortOf(v *Variable) Sort { return v.sort }

// Lookup finds a previously declared/minted variable by name, if any.
func (m *Manager) Lookup(name string) (*Variable, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byName[name]
	return v, ok
}

// All returns every variable this manager has ever produced, in
// creation order.
func (m *Manager) All() []*Variable {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Variable, len(m.all))
	copy(out, m.all)
	return out
}
