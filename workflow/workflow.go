package workflow

import (
	"errors"
	"fmt"
	"slices"
)

// State identifies a workflow state, e.g. "draft" or "placed".
type State string

var (
	// ErrTransitionNotFound is returned when a transition id is unknown to the workflow
	ErrTransitionNotFound = errors.New("workflow transition not found")

	// ErrInvalidTransition is returned when a transition cannot start from the given state
	ErrInvalidTransition = errors.New("transition not allowed from current state")
)

// GuardRejectedError is returned when a transition's guard does not hold
type GuardRejectedError struct {
	Transition string
	Reason     string
}

func (e *GuardRejectedError) Error() string {
	return fmt.Sprintf("transition %q rejected: %s", e.Transition, e.Reason)
}

// Facts is the snapshot a guard is evaluated against. Values should be
// plain scalars (string, bool, int64, float64) so guard evaluation stays pure.
type Facts map[string]any

// StateDefinition describes one state of a workflow
type StateDefinition struct {
	ID       State  `yaml:"id" json:"id"`
	Label    string `yaml:"label" json:"label"`
	Terminal bool   `yaml:"terminal" json:"terminal"`
}

// Transition is a named, directed and optionally guarded edge between states
type Transition struct {
	ID    string  `yaml:"id" json:"id"`
	Label string  `yaml:"label" json:"label"`
	From  []State `yaml:"from" json:"from"`
	To    State   `yaml:"to" json:"to"`

	// Guard is a CEL expression over the "order" variable, e.g.
	// `order.item_count > 0`. Empty means always permitted.
	Guard string `yaml:"guard" json:"guard,omitempty"`

	// Reason is reported in GuardRejectedError when the guard fails
	Reason string `yaml:"reason" json:"reason,omitempty"`
}

// AllowsFrom reports whether the transition may start from the given state
func (t *Transition) AllowsFrom(state State) bool {
	return slices.Contains(t.From, state)
}

// Definition is the declarative form of a workflow, usually loaded from YAML
type Definition struct {
	ID          string            `yaml:"id" json:"id"`
	Label       string            `yaml:"label" json:"label"`
	States      []StateDefinition `yaml:"states" json:"states"`
	Transitions []Transition      `yaml:"transitions" json:"transitions"`
}

// Workflow is a compiled, immutable finite-state machine
type Workflow struct {
	id          string
	states      map[State]StateDefinition
	transitions map[string]*Transition
	order       []*Transition
	guards      map[string]*guard
}

// New validates the definition and compiles every guard expression
func New(def Definition) (*Workflow, error) {
	if def.ID == "" {
		return nil, errors.New("workflow id is required")
	}
	if len(def.States) == 0 {
		return nil, fmt.Errorf("workflow %s: at least one state is required", def.ID)
	}

	wf := &Workflow{
		id:          def.ID,
		states:      make(map[State]StateDefinition, len(def.States)),
		transitions: make(map[string]*Transition, len(def.Transitions)),
		guards:      make(map[string]*guard),
	}

	for _, s := range def.States {
		if s.ID == "" {
			return nil, fmt.Errorf("workflow %s: state id is required", def.ID)
		}
		if _, dup := wf.states[s.ID]; dup {
			return nil, fmt.Errorf("workflow %s: duplicate state %q", def.ID, s.ID)
		}
		wf.states[s.ID] = s
	}

	env, err := newGuardEnv()
	if err != nil {
		return nil, err
	}

	for i := range def.Transitions {
		t := def.Transitions[i]
		if t.ID == "" {
			return nil, fmt.Errorf("workflow %s: transition id is required", def.ID)
		}
		if _, dup := wf.transitions[t.ID]; dup {
			return nil, fmt.Errorf("workflow %s: duplicate transition %q", def.ID, t.ID)
		}
		if _, ok := wf.states[t.To]; !ok {
			return nil, fmt.Errorf("workflow %s: transition %q targets unknown state %q", def.ID, t.ID, t.To)
		}
		if len(t.From) == 0 {
			return nil, fmt.Errorf("workflow %s: transition %q has no source state", def.ID, t.ID)
		}
		for _, from := range t.From {
			s, ok := wf.states[from]
			if !ok {
				return nil, fmt.Errorf("workflow %s: transition %q starts from unknown state %q", def.ID, t.ID, from)
			}
			if s.Terminal {
				return nil, fmt.Errorf("workflow %s: terminal state %q cannot have outgoing transition %q", def.ID, from, t.ID)
			}
		}

		if t.Guard != "" {
			g, err := compileGuard(env, t.Guard)
			if err != nil {
				return nil, fmt.Errorf("workflow %s: transition %q: %w", def.ID, t.ID, err)
			}
			wf.guards[t.ID] = g
		}

		tc := t
		wf.transitions[t.ID] = &tc
		wf.order = append(wf.order, &tc)
	}

	return wf, nil
}

// ID returns the workflow identifier
func (w *Workflow) ID() string {
	return w.id
}

// HasState reports whether the state belongs to this workflow
func (w *Workflow) HasState(state State) bool {
	_, ok := w.states[state]
	return ok
}

// Transition looks up a transition by id
func (w *Workflow) Transition(id string) (*Transition, error) {
	t, ok := w.transitions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTransitionNotFound, id)
	}
	return t, nil
}

// Apply checks that the transition may leave from and that its guard holds
// for facts, then returns the target state. It never mutates anything.
func (w *Workflow) Apply(t *Transition, from State, facts Facts) (State, error) {
	if t == nil {
		return from, ErrTransitionNotFound
	}
	if !t.AllowsFrom(from) {
		return from, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, t.ID, from)
	}

	if g, ok := w.guards[t.ID]; ok {
		pass, err := g.eval(facts)
		if err != nil {
			return from, fmt.Errorf("evaluate guard for %s: %w", t.ID, err)
		}
		if !pass {
			reason := t.Reason
			if reason == "" {
				reason = fmt.Sprintf("guard %q not satisfied", t.Guard)
			}
			return from, &GuardRejectedError{Transition: t.ID, Reason: reason}
		}
	}

	return t.To, nil
}

// Allowed returns the transitions that can currently be applied from state,
// in definition order. Transitions whose guard fails or errors are omitted.
func (w *Workflow) Allowed(from State, facts Facts) []*Transition {
	var allowed []*Transition
	for _, t := range w.order {
		if _, err := w.Apply(t, from, facts); err == nil {
			allowed = append(allowed, t)
		}
	}
	return allowed
}

// IsTerminal reports whether no transition leaves the state
func (w *Workflow) IsTerminal(state State) bool {
	for _, t := range w.order {
		if t.AllowsFrom(state) {
			return false
		}
	}
	return true
}
