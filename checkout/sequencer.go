package checkout

import (
	"github.com/kendall-kelly/checkout-flow-api/models"
)

// Resolution is where a step request ends up
type Resolution struct {
	Step     Step
	Redirect bool   // the requested step differs from Step
	Denied   bool   // the request must be refused outright
	Reason   string // why the request was redirected or denied
}

// Sequencer orders the checkout steps for an order and decides which step a
// request may see
type Sequencer struct {
	flow     *Flow
	registry *Registry
}

// NewSequencer creates a sequencer over the flow's steps
func NewSequencer(flow *Flow, registry *Registry) *Sequencer {
	return &Sequencer{flow: flow, registry: registry}
}

// VisibleSteps returns the steps that have at least one visible pane, in
// flow order. The terminal step is always included.
func (s *Sequencer) VisibleSteps(order *models.Order, actor Actor) []Step {
	terminal := s.flow.TerminalStep().ID
	var steps []Step
	for _, step := range s.flow.Steps {
		if step.ID == terminal || len(s.registry.VisiblePanes(step.ID, order, actor)) > 0 {
			steps = append(steps, step)
		}
	}
	return steps
}

// CurrentStep is the step the order's checkout progress points at
func (s *Sequencer) CurrentStep(order *models.Order, actor Actor) Step {
	if order.IsCheckoutFinished() {
		return s.flow.TerminalStep()
	}

	steps := s.VisibleSteps(order, actor)
	if i := stepIndex(steps, order.CheckoutStep); i >= 0 {
		return steps[i]
	}

	// Progress recorded on a step that is no longer visible resumes at the
	// next visible step after it.
	if flowIdx := s.flow.StepIndex(order.CheckoutStep); flowIdx >= 0 {
		for _, step := range steps {
			if s.flow.StepIndex(step.ID) > flowIdx {
				return step
			}
		}
	}
	return steps[0]
}

// NextStep returns the visible step after from
func (s *Sequencer) NextStep(order *models.Order, actor Actor, from string) (Step, bool) {
	fromIdx := s.flow.StepIndex(from)
	for _, step := range s.VisibleSteps(order, actor) {
		if s.flow.StepIndex(step.ID) > fromIdx {
			return step, true
		}
	}
	return Step{}, false
}

// PreviousStep returns the visible step before from
func (s *Sequencer) PreviousStep(order *models.Order, actor Actor, from string) (Step, bool) {
	fromIdx := s.flow.StepIndex(from)
	var prev Step
	found := false
	for _, step := range s.VisibleSteps(order, actor) {
		if s.flow.StepIndex(step.ID) >= fromIdx {
			break
		}
		prev, found = step, true
	}
	return prev, found
}

// CanGoBackTo reports whether the customer may return from the current
// step to target. Every step walked back onto must declare a previous label.
func (s *Sequencer) CanGoBackTo(order *models.Order, actor Actor, current, target string) bool {
	steps := s.VisibleSteps(order, actor)
	from, to := stepIndex(steps, current), stepIndex(steps, target)
	if from < 0 || to < 0 || to >= from {
		return false
	}
	for i := from - 1; i >= to; i-- {
		if steps[i].PreviousLabel == "" {
			return false
		}
	}
	return true
}

// Resolve decides which step a request for requested should see. An empty
// request resolves to the current step with a redirect.
func (s *Sequencer) Resolve(order *models.Order, actor Actor, requested string) (Resolution, error) {
	if requested != "" {
		if _, ok := s.flow.Step(requested); !ok {
			return Resolution{}, ErrStepNotFound
		}
	}

	current := s.CurrentStep(order, actor)
	redirect := func(reason string) Resolution {
		return Resolution{Step: current, Redirect: true, Reason: reason}
	}

	switch {
	case requested == "":
		return redirect("no step requested"), nil
	case requested == current.ID:
		return Resolution{Step: current}, nil
	case order.IsCheckoutFinished():
		return redirect("checkout is complete"), nil
	}

	steps := s.VisibleSteps(order, actor)
	reqIdx, curIdx := stepIndex(steps, requested), stepIndex(steps, current.ID)
	switch {
	case reqIdx < 0:
		return redirect("step is not available for this order"), nil
	case reqIdx > curIdx:
		if s.flow.ForwardJump == ForwardJumpDeny {
			return Resolution{Step: current, Denied: true, Reason: "step is ahead of checkout progress"}, nil
		}
		return redirect("step is ahead of checkout progress"), nil
	case !s.CanGoBackTo(order, actor, current.ID, requested):
		return redirect("cannot go back to this step"), nil
	}

	return Resolution{Step: steps[reqIdx]}, nil
}

func stepIndex(steps []Step, id string) int {
	for i, step := range steps {
		if step.ID == id {
			return i
		}
	}
	return -1
}
