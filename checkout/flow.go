package checkout

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/kendall-kelly/checkout-flow-api/workflow"
	"gopkg.in/yaml.v3"
)

//go:embed default_flow.yaml
var defaultFlowYAML []byte

// Forward jump policies
const (
	ForwardJumpRedirect = "redirect"
	ForwardJumpDeny     = "deny"
)

// Step is one page of the checkout, in flow order
type Step struct {
	ID            string `yaml:"id" json:"id"`
	Label         string `yaml:"label" json:"label"`
	PreviousLabel string `yaml:"previous_label" json:"previous_label,omitempty"` // empty means the step cannot be walked back past
	NextLabel     string `yaml:"next_label" json:"next_label,omitempty"`
	HasSidebar    bool   `yaml:"has_sidebar" json:"has_sidebar"`
}

// PanePlacement places a pane on one or more steps
type PanePlacement struct {
	ID      string   `yaml:"id"`
	Steps   []string `yaml:"steps"`
	Sidebar bool     `yaml:"sidebar"`
}

// LoginOptions controls which actions the login pane offers
type LoginOptions struct {
	AllowGuestCheckout bool `yaml:"allow_guest_checkout"`
	AllowRegistration  bool `yaml:"allow_registration"`
}

// Flow is the checkout flow configuration: steps, pane placement and the
// order workflow
type Flow struct {
	ID               string              `yaml:"id"`
	Label            string              `yaml:"label"`
	Steps            []Step              `yaml:"steps"`
	Panes            []PanePlacement     `yaml:"panes"`
	Login            LoginOptions        `yaml:"login"`
	OrderSummaryView string              `yaml:"order_summary_view"`
	ForwardJump      string              `yaml:"forward_jump"`
	Workflow         workflow.Definition `yaml:"workflow"`
}

// DefaultFlow returns a fresh copy of the embedded default flow
func DefaultFlow() *Flow {
	flow, err := ParseFlow(defaultFlowYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded checkout flow is invalid: %v", err))
	}
	return flow
}

// LoadFlow reads a flow from path, or returns the default flow when path is empty
func LoadFlow(path string) (*Flow, error) {
	if path == "" {
		return DefaultFlow(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkout flow: %w", err)
	}
	return ParseFlow(data)
}

// ParseFlow decodes and validates a YAML flow definition
func ParseFlow(data []byte) (*Flow, error) {
	var flow Flow
	if err := yaml.Unmarshal(data, &flow); err != nil {
		return nil, fmt.Errorf("parse checkout flow: %w", err)
	}
	if flow.ForwardJump == "" {
		flow.ForwardJump = ForwardJumpRedirect
	}
	if err := flow.Validate(); err != nil {
		return nil, err
	}
	return &flow, nil
}

// Validate checks the flow for structural errors
func (f *Flow) Validate() error {
	if len(f.Steps) == 0 {
		return errors.New("checkout flow: at least one step is required")
	}

	seen := make(map[string]bool, len(f.Steps))
	for _, s := range f.Steps {
		if s.ID == "" {
			return errors.New("checkout flow: step id is required")
		}
		if seen[s.ID] {
			return fmt.Errorf("checkout flow: duplicate step %q", s.ID)
		}
		seen[s.ID] = true
	}

	panes := make(map[string]bool, len(f.Panes))
	for _, p := range f.Panes {
		if panes[p.ID] {
			return fmt.Errorf("checkout flow: pane %q placed twice", p.ID)
		}
		panes[p.ID] = true
		for _, step := range p.Steps {
			if !seen[step] {
				return fmt.Errorf("checkout flow: pane %q placed on unknown step %q", p.ID, step)
			}
		}
	}

	switch f.ForwardJump {
	case ForwardJumpRedirect, ForwardJumpDeny:
	default:
		return fmt.Errorf("checkout flow: forward_jump must be %q or %q", ForwardJumpRedirect, ForwardJumpDeny)
	}

	if _, err := workflow.New(f.Workflow); err != nil {
		return fmt.Errorf("checkout flow: %w", err)
	}
	return nil
}

// Step returns the step with the given id
func (f *Flow) Step(id string) (Step, bool) {
	i := f.StepIndex(id)
	if i < 0 {
		return Step{}, false
	}
	return f.Steps[i], true
}

// StepIndex returns the position of the step, or -1
func (f *Flow) StepIndex(id string) int {
	return slices.IndexFunc(f.Steps, func(s Step) bool { return s.ID == id })
}

// TerminalStep is the last step of the flow, shown once the order is placed
func (f *Flow) TerminalStep() Step {
	return f.Steps[len(f.Steps)-1]
}
