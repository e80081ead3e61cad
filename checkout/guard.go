package checkout

import (
	"context"
	"fmt"

	"github.com/kendall-kelly/checkout-flow-api/models"
)

// Verdict is the outcome of an access check
type Verdict int

const (
	Allow Verdict = iota
	Redirect
	Deny
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "deny"
	}
}

// Decision is the result of Guard.Check. Step is the step to render for
// Allow and the redirect target for Redirect.
type Decision struct {
	Verdict Verdict
	Step    Step
	Reason  string
}

// Guard decides whether an actor may access a checkout step of an order
type Guard struct {
	sequencer *Sequencer
	sessions  SessionStore
}

// NewGuard creates a guard
func NewGuard(sequencer *Sequencer, sessions SessionStore) *Guard {
	return &Guard{sequencer: sequencer, sessions: sessions}
}

// Authorize applies the order-level rules: who may check out the order and
// whether it can be checked out at all. It returns ErrAccessDenied wrapped
// with the reason.
func (g *Guard) Authorize(ctx context.Context, actor Actor, order *models.Order) error {
	if err := g.AuthorizeViewer(ctx, actor, order); err != nil {
		return err
	}

	if !order.HasItems() {
		return fmt.Errorf("%w: order has no items", ErrAccessDenied)
	}
	if order.State == models.StateCanceled {
		return fmt.Errorf("%w: order is canceled", ErrAccessDenied)
	}
	return nil
}

// AuthorizeViewer checks only who is asking: the owner, an order
// administrator, or the anonymous session the order is bound to
func (g *Guard) AuthorizeViewer(ctx context.Context, actor Actor, order *models.Order) error {
	if actor.IsAnonymous() {
		if actor.SessionToken == "" {
			return fmt.Errorf("%w: anonymous request without a session", ErrAccessDenied)
		}
		bound, err := g.sessions.HasOrder(ctx, actor.SessionToken, order.ID)
		if err != nil {
			return fmt.Errorf("look up guest session: %w", err)
		}
		if !bound {
			return fmt.Errorf("%w: order is not bound to this session", ErrAccessDenied)
		}
	} else if !order.IsOwnedBy(actor.UserID) && !actor.IsOrderAdministrator() {
		return fmt.Errorf("%w: order belongs to another customer", ErrAccessDenied)
	}
	return nil
}

// Check runs every access rule for a step request. Denials are reported as
// a Deny decision, not an error. Errors are reserved for unknown steps and
// collaborator failures.
func (g *Guard) Check(ctx context.Context, actor Actor, order *models.Order, step string) (Decision, error) {
	if err := g.Authorize(ctx, actor, order); err != nil {
		if isAccessDenied(err) {
			return Decision{Verdict: Deny, Reason: err.Error()}, nil
		}
		return Decision{}, err
	}

	res, err := g.sequencer.Resolve(order, actor, step)
	if err != nil {
		return Decision{}, err
	}

	switch {
	case res.Denied:
		return Decision{Verdict: Deny, Step: res.Step, Reason: res.Reason}, nil
	case res.Redirect:
		return Decision{Verdict: Redirect, Step: res.Step, Reason: res.Reason}, nil
	default:
		return Decision{Verdict: Allow, Step: res.Step}, nil
	}
}

// CanAccess reports whether the step renders as requested. Redirects and
// errors count as no access.
func (g *Guard) CanAccess(ctx context.Context, actor Actor, order *models.Order, step string) bool {
	d, err := g.Check(ctx, actor, order, step)
	return err == nil && d.Verdict == Allow
}
