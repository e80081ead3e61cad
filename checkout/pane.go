package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/kendall-kelly/checkout-flow-api/models"
)

// Pane is a self-contained section of a checkout step
type Pane interface {
	ID() string
	Label() string

	// Visible reports whether the pane takes part in the step for this
	// order and actor. Steps without visible panes are skipped.
	Visible(order *models.Order, actor Actor) bool

	// View describes the pane for rendering
	View(order *models.Order) map[string]any

	// Validate checks the submitted values without side effects. Field
	// names in the returned error are "{pane}.{field}".
	Validate(ctx context.Context, sub *Submission) *ValidationError

	// Submit applies the values to the order. It runs inside the step
	// transaction.
	Submit(ctx context.Context, sub *Submission) error
}

// Submission carries one step submission through the panes
type Submission struct {
	Order  *models.Order
	Actor  Actor
	Step   string
	Values Values
}

// Values holds submitted form values keyed "{pane}.{field}"
type Values map[string]string

// Get returns the trimmed value of key
func (v Values) Get(key string) string {
	return strings.TrimSpace(v[key])
}

// Raw returns the value of key unmodified, for secrets
func (v Values) Raw(key string) string {
	return v[key]
}

// Pane returns the values submitted for one pane with the prefix removed
func (v Values) Pane(id string) Values {
	prefix := id + "."
	out := make(Values)
	for key, value := range v {
		if field, ok := strings.CutPrefix(key, prefix); ok {
			out[field] = value
		}
	}
	return out
}

// IsSecretField reports whether a submitted key carries a password. Secret
// fields never leave the request: they are not logged or fingerprinted.
func IsSecretField(key string) bool {
	field := key[strings.LastIndex(key, ".")+1:]
	return strings.HasPrefix(field, "pass")
}

// Digest is a stable hash of the values, independent of key order. Secret
// fields are left out, so the stored digest reveals nothing about them.
func (v Values) Digest() string {
	keys := make([]string, 0, len(v))
	for key := range v {
		if IsSecretField(key) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, key := range keys {
		fmt.Fprintf(h, "%s=%s\n", key, strings.TrimSpace(v[key]))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Registry holds the pane instances and their placement on steps
type Registry struct {
	panes    map[string]Pane
	main     map[string][]Pane
	sidebar  map[string][]Pane
	placedOn map[string][]string
}

// NewRegistry places the panes on steps as the flow describes. Every pane
// named by the flow must be provided.
func NewRegistry(flow *Flow, panes ...Pane) (*Registry, error) {
	r := &Registry{
		panes:    make(map[string]Pane, len(panes)),
		main:     make(map[string][]Pane),
		sidebar:  make(map[string][]Pane),
		placedOn: make(map[string][]string),
	}
	for _, p := range panes {
		r.panes[p.ID()] = p
	}

	for _, placement := range flow.Panes {
		p, ok := r.panes[placement.ID]
		if !ok {
			return nil, fmt.Errorf("checkout flow places unknown pane %q", placement.ID)
		}
		for _, step := range placement.Steps {
			if placement.Sidebar {
				r.sidebar[step] = append(r.sidebar[step], p)
			} else {
				r.main[step] = append(r.main[step], p)
			}
		}
		r.placedOn[placement.ID] = placement.Steps
	}
	return r, nil
}

// Pane looks up a pane by id
func (r *Registry) Pane(id string) (Pane, bool) {
	p, ok := r.panes[id]
	return p, ok
}

// PanesForStep returns the main panes placed on the step, in flow order
func (r *Registry) PanesForStep(step string) []Pane {
	return r.main[step]
}

// SidebarPanes returns the sidebar panes placed on the step
func (r *Registry) SidebarPanes(step string) []Pane {
	return r.sidebar[step]
}

// VisiblePanes returns the main panes of the step visible for order and actor
func (r *Registry) VisiblePanes(step string, order *models.Order, actor Actor) []Pane {
	return visible(r.main[step], order, actor)
}

// VisibleSidebar returns the sidebar panes of the step visible for order and actor
func (r *Registry) VisibleSidebar(step string, order *models.Order, actor Actor) []Pane {
	return visible(r.sidebar[step], order, actor)
}

// StepsFor returns the steps a pane is placed on
func (r *Registry) StepsFor(paneID string) []string {
	return r.placedOn[paneID]
}

func visible(panes []Pane, order *models.Order, actor Actor) []Pane {
	var out []Pane
	for _, p := range panes {
		if p.Visible(order, actor) {
			out = append(out, p)
		}
	}
	return out
}
