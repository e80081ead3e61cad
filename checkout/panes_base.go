package checkout

import (
	"context"

	"github.com/kendall-kelly/checkout-flow-api/models"
)

// basePane supplies the defaults for informational panes
type basePane struct {
	id    string
	label string
}

func (p basePane) ID() string    { return p.id }
func (p basePane) Label() string { return p.label }

func (p basePane) Visible(*models.Order, Actor) bool { return true }

func (p basePane) Validate(context.Context, *Submission) *ValidationError { return nil }

func (p basePane) Submit(context.Context, *Submission) error { return nil }

func (p basePane) field(name string) string {
	return p.id + "." + name
}
