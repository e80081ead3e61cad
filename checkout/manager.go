package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/checkout-flow-api/config"
	"github.com/kendall-kelly/checkout-flow-api/models"
	"github.com/kendall-kelly/checkout-flow-api/workflow"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Order workflow transitions driven by the checkout
const (
	TransitionStartCheckout = "start_checkout"
	TransitionReturnToCart  = "return_to_cart"
	TransitionPlace         = "place"
	TransitionFulfill       = "fulfill"
	TransitionCancel        = "cancel"
)

// Dependencies are the collaborators the checkout talks to. Notifier,
// Receipts and Metrics are optional.
type Dependencies struct {
	Profiles ProfileStore
	Payments PaymentGateway
	Accounts AccountService
	Sessions SessionStore
	Notifier Notifier
	Receipts ReceiptArchive
	Metrics  *Metrics
}

// Option configures a Manager
type Option func(*Manager)

// WithClock overrides the time source used for placed_at
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithTracer overrides the tracer used for checkout spans
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) {
		m.tracer = tracer
	}
}

// Manager runs checkout step views and submissions against stored orders
type Manager struct {
	db        *gorm.DB
	flow      *Flow
	workflow  *workflow.Workflow
	registry  *Registry
	sequencer *Sequencer
	guard     *Guard
	deps      Dependencies
	tracer    trace.Tracer
	now       func() time.Time
}

// Link points at another checkout step
type Link struct {
	Step  string `json:"step"`
	Label string `json:"label"`
}

// PaneView is the rendered description of one pane
type PaneView struct {
	ID    string         `json:"id"`
	Label string         `json:"label"`
	Data  map[string]any `json:"data"`
}

// StepView describes a checkout step as the customer sees it
type StepView struct {
	OrderID     uint           `json:"order_id"`
	OrderNumber *uint          `json:"order_number,omitempty"`
	State       workflow.State `json:"state"`
	Step        Step           `json:"step"`
	Progress    []Step         `json:"progress"`
	Panes       []PaneView     `json:"panes"`
	Sidebar     []PaneView     `json:"sidebar,omitempty"`
	Previous    *Link          `json:"previous,omitempty"`
	NextLabel   string         `json:"next_label,omitempty"`
}

// Outcome is the result of a view or submission: a step to render or a
// step to redirect to
type Outcome struct {
	View     *StepView
	Redirect string
	Replayed bool // the submission repeated the last applied one and changed nothing
}

// NewManager wires the flow's panes to the collaborators
func NewManager(db *gorm.DB, flow *Flow, deps Dependencies, opts ...Option) (*Manager, error) {
	if db == nil {
		return nil, errors.New("checkout manager: database is required")
	}
	if deps.Profiles == nil || deps.Payments == nil || deps.Accounts == nil || deps.Sessions == nil {
		return nil, errors.New("checkout manager: profile store, payment gateway, account service and session store are required")
	}

	wf, err := workflow.New(flow.Workflow)
	if err != nil {
		return nil, fmt.Errorf("checkout manager: %w", err)
	}

	registry, err := NewRegistry(flow,
		NewLoginPane(flow.Login, deps.Accounts),
		NewContactInformationPane(),
		NewBillingInformationPane(deps.Profiles),
		NewOrderSummaryPane(flow.OrderSummaryView),
		NewReviewPane(),
		NewPaymentProcessPane(deps.Payments),
		NewCompletionMessagePane(),
	)
	if err != nil {
		return nil, err
	}

	sequencer := NewSequencer(flow, registry)
	m := &Manager{
		db:        db,
		flow:      flow,
		workflow:  wf,
		registry:  registry,
		sequencer: sequencer,
		guard:     NewGuard(sequencer, deps.Sessions),
		deps:      deps,
		tracer:    otel.Tracer("checkout"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Flow returns the checkout flow configuration
func (m *Manager) Flow() *Flow { return m.flow }

// Workflow returns the compiled order workflow
func (m *Manager) Workflow() *workflow.Workflow { return m.workflow }

// Sequencer returns the step sequencer
func (m *Manager) Sequencer() *Sequencer { return m.sequencer }

// Guard returns the access guard
func (m *Manager) Guard() *Guard { return m.guard }

// View resolves a step request. Draft orders enter checkout on first view.
func (m *Manager) View(ctx context.Context, actor Actor, orderID uint, step string) (*Outcome, error) {
	ctx, span := m.startSpan(ctx, "checkout.View", orderID, step)
	defer span.End()

	outcome, err := m.view(ctx, actor, orderID, step)
	m.deps.Metrics.observeView(m.stepLabel(step), outcomeLabel(outcome, err))
	recordSpanError(span, err)
	return outcome, err
}

func (m *Manager) view(ctx context.Context, actor Actor, orderID uint, step string) (*Outcome, error) {
	order, decision, err := m.enter(ctx, actor, orderID, step)
	if err != nil {
		return nil, err
	}
	if decision.Verdict == Redirect {
		return &Outcome{Redirect: decision.Step.ID}, nil
	}
	return &Outcome{View: m.buildView(order, actor, decision.Step)}, nil
}

// Submit validates and applies a step submission, then advances the order
// to the next step. Nothing is stored unless every pane accepts the values.
func (m *Manager) Submit(ctx context.Context, actor Actor, orderID uint, step string, values Values) (*Outcome, error) {
	started := time.Now()
	ctx, span := m.startSpan(ctx, "checkout.Submit", orderID, step)
	defer span.End()

	outcome, err := m.submit(ctx, actor, orderID, step, values)
	m.deps.Metrics.observeSubmission(m.stepLabel(step), outcomeLabel(outcome, err), started)
	recordSpanError(span, err)
	return outcome, err
}

func (m *Manager) submit(ctx context.Context, actor Actor, orderID uint, step string, values Values) (*Outcome, error) {
	logger := zerolog.Ctx(ctx).With().Uint("order_id", orderID).Str("step", step).Logger()

	order, decision, err := m.enter(ctx, actor, orderID, step)
	if err != nil {
		return nil, err
	}
	if decision.Verdict == Redirect {
		return &Outcome{Redirect: decision.Step.ID}, nil
	}
	if order.IsCheckoutFinished() {
		// Nothing on the completion step accepts input
		return &Outcome{Redirect: decision.Step.ID, Replayed: true}, nil
	}

	digest := values.Digest()
	if m.alreadyApplied(order, actor, step, digest) {
		logger.Debug().Msg("Repeated submission ignored")
		return &Outcome{Redirect: m.sequencer.CurrentStep(order, actor).ID, Replayed: true}, nil
	}

	sub := &Submission{Order: order, Actor: actor, Step: step, Values: values}
	panes := m.registry.VisiblePanes(step, order, actor)

	verr := &ValidationError{}
	for _, p := range panes {
		verr.Merge(p.Validate(ctx, sub))
	}
	if verr.HasErrors() {
		return nil, verr
	}

	version := order.Version
	placed := false
	var next Step
	err = config.WithTx(ctx, m.db, func(ctx context.Context) error {
		for _, p := range panes {
			if err := p.Submit(ctx, sub); err != nil {
				return err
			}
		}

		var ok bool
		next, ok = m.sequencer.NextStep(order, actor, step)
		if !ok {
			return fmt.Errorf("no checkout step follows %q", step)
		}

		if next.ID == m.flow.TerminalStep().ID {
			if err := m.place(ctx, actor, order); err != nil {
				return err
			}
			placed = true
		}

		if err := m.advance(ctx, actor, order, next.ID); err != nil {
			return err
		}
		order.LastSubmissionStep = step
		order.LastSubmissionDigest = digest
		return m.saveOrder(ctx, order, version)
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Str("next_step", next.ID).Msg("Checkout step submitted")
	if placed {
		m.afterPlace(ctx, order)
	}
	return &Outcome{Redirect: next.ID}, nil
}

// Cancel cancels an order that has not been fulfilled yet
func (m *Manager) Cancel(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	order, err := m.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := m.guard.AuthorizeViewer(ctx, actor, order); err != nil {
		return nil, err
	}

	version := order.Version
	err = config.WithTx(ctx, m.db, func(ctx context.Context) error {
		if err := m.applyTransition(ctx, actor, order, TransitionCancel); err != nil {
			return err
		}
		return m.saveOrder(ctx, order, version)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Fulfill marks a placed order as completed. Only order administrators may
// fulfill orders.
func (m *Manager) Fulfill(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	if !actor.HasPermission(ScopeAdministerOrder) {
		return nil, fmt.Errorf("%w: fulfilling orders requires %s", ErrAccessDenied, ScopeAdministerOrder)
	}
	order, err := m.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	version := order.Version
	err = config.WithTx(ctx, m.db, func(ctx context.Context) error {
		if err := m.applyTransition(ctx, actor, order, TransitionFulfill); err != nil {
			return err
		}
		return m.saveOrder(ctx, order, version)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// OrderLog lists the activity log of an order, oldest first
func (m *Manager) OrderLog(ctx context.Context, actor Actor, orderID uint) ([]models.OrderLogEntry, error) {
	order, err := m.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := m.guard.AuthorizeViewer(ctx, actor, order); err != nil {
		return nil, err
	}

	var entries []models.OrderLogEntry
	if err := config.DBFromContext(ctx, m.db).Where("order_id = ?", orderID).Order("id").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load order log: %w", err)
	}
	return entries, nil
}

// ReceiptURL returns a download link for the archived receipt of an order
func (m *Manager) ReceiptURL(ctx context.Context, actor Actor, orderID uint) (string, error) {
	order, err := m.loadOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	if err := m.guard.AuthorizeViewer(ctx, actor, order); err != nil {
		return "", err
	}
	if m.deps.Receipts == nil || order.ReceiptS3Key == nil {
		return "", ErrReceiptNotFound
	}
	return m.deps.Receipts.URL(ctx, *order.ReceiptS3Key)
}

// enter loads the order, applies the access rules and starts checkout on
// draft orders
func (m *Manager) enter(ctx context.Context, actor Actor, orderID uint, step string) (*models.Order, Decision, error) {
	order, err := m.loadOrder(ctx, orderID)
	if err != nil {
		return nil, Decision{}, err
	}
	if err := m.guard.Authorize(ctx, actor, order); err != nil {
		return nil, Decision{}, err
	}

	if order.State == models.StateDraft {
		if err := m.startCheckout(ctx, actor, order); err != nil {
			return nil, Decision{}, err
		}
	}

	decision, err := m.guard.Check(ctx, actor, order, step)
	if err != nil {
		return nil, Decision{}, err
	}
	if decision.Verdict == Deny {
		return nil, Decision{}, fmt.Errorf("%w: %s", ErrAccessDenied, decision.Reason)
	}
	return order, decision, nil
}

func (m *Manager) buildView(order *models.Order, actor Actor, step Step) *StepView {
	view := &StepView{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		State:       order.State,
		Step:        step,
		Progress:    m.sequencer.VisibleSteps(order, actor),
	}

	for _, p := range m.registry.VisiblePanes(step.ID, order, actor) {
		view.Panes = append(view.Panes, PaneView{ID: p.ID(), Label: p.Label(), Data: p.View(order)})
	}
	if step.HasSidebar {
		for _, p := range m.registry.VisibleSidebar(step.ID, order, actor) {
			view.Sidebar = append(view.Sidebar, PaneView{ID: p.ID(), Label: p.Label(), Data: p.View(order)})
		}
	}

	if order.IsCheckoutFinished() {
		return view
	}
	if prev, ok := m.sequencer.PreviousStep(order, actor, step.ID); ok && prev.PreviousLabel != "" {
		view.Previous = &Link{Step: prev.ID, Label: prev.PreviousLabel}
	}
	if next, ok := m.sequencer.NextStep(order, actor, step.ID); ok {
		view.NextLabel = next.NextLabel
		if view.NextLabel == "" {
			view.NextLabel = "Continue to " + strings.ToLower(next.Label)
		}
	}
	return view
}

func (m *Manager) startCheckout(ctx context.Context, actor Actor, order *models.Order) error {
	version := order.Version
	return config.WithTx(ctx, m.db, func(ctx context.Context) error {
		if err := m.applyTransition(ctx, actor, order, TransitionStartCheckout); err != nil {
			return err
		}
		return m.saveOrder(ctx, order, version)
	})
}

func (m *Manager) place(ctx context.Context, actor Actor, order *models.Order) error {
	if err := m.applyTransition(ctx, actor, order, TransitionPlace); err != nil {
		return err
	}

	number, err := m.nextOrderNumber(ctx)
	if err != nil {
		return err
	}
	order.OrderNumber = &number
	return nil
}

func (m *Manager) advance(ctx context.Context, actor Actor, order *models.Order, step string) error {
	from := order.CheckoutStep
	if from == step {
		return nil
	}
	order.SetCheckoutStep(step)
	return m.log(ctx, order, actor, models.LogCategoryCheckoutStep, from, step,
		fmt.Sprintf("Checkout step changed from %q to %q", from, step))
}

// alreadyApplied reports whether the submission repeats the last one applied
// and the checkout has since moved past its step
func (m *Manager) alreadyApplied(order *models.Order, actor Actor, step, digest string) bool {
	if order.LastSubmissionStep != step || order.LastSubmissionDigest != digest {
		return false
	}
	steps := m.sequencer.VisibleSteps(order, actor)
	submitted := stepIndex(steps, step)
	return submitted >= 0 && stepIndex(steps, m.sequencer.CurrentStep(order, actor).ID) > submitted
}

func (m *Manager) applyTransition(ctx context.Context, actor Actor, order *models.Order, transition string) error {
	from := order.State
	if err := order.ApplyTransition(m.workflow, transition, m.now()); err != nil {
		m.deps.Metrics.observeTransition(transition, "rejected")
		return err
	}
	m.deps.Metrics.observeTransition(transition, "applied")

	zerolog.Ctx(ctx).Debug().
		Uint("order_id", order.ID).
		Str("transition", transition).
		Str("from", string(from)).
		Str("to", string(order.State)).
		Msg("Order transition applied")

	t, _ := m.workflow.Transition(transition)
	return m.log(ctx, order, actor, models.LogCategoryTransition, string(from), string(order.State), t.Label)
}

func (m *Manager) log(ctx context.Context, order *models.Order, actor Actor, category, from, to, message string) error {
	entry := models.OrderLogEntry{
		OrderID:   order.ID,
		ActorID:   actor.UserRef(),
		Category:  category,
		FromValue: from,
		ToValue:   to,
		Message:   message,
	}
	if err := config.DBFromContext(ctx, m.db).Create(&entry).Error; err != nil {
		return fmt.Errorf("write order log: %w", err)
	}
	return nil
}

func (m *Manager) nextOrderNumber(ctx context.Context) (uint, error) {
	db := config.DBFromContext(ctx, m.db)
	name := models.OrderNumberSequenceName

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.OrderNumberSequence{Name: name}).Error; err != nil {
		return 0, fmt.Errorf("create order number sequence: %w", err)
	}
	if err := db.Model(&models.OrderNumberSequence{}).
		Where("name = ?", name).
		Update("value", gorm.Expr("value + 1")).Error; err != nil {
		return 0, fmt.Errorf("advance order number sequence: %w", err)
	}

	var seq models.OrderNumberSequence
	if err := db.Where("name = ?", name).First(&seq).Error; err != nil {
		return 0, fmt.Errorf("read order number sequence: %w", err)
	}
	return seq.Value, nil
}

// saveOrder writes the order's own columns if the stored version is still
// expected, and bumps the version
func (m *Manager) saveOrder(ctx context.Context, order *models.Order, expected int) error {
	res := config.DBFromContext(ctx, m.db).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, expected).
		Updates(map[string]any{
			"order_number":           order.OrderNumber,
			"owner_id":               order.OwnerID,
			"email":                  order.Email,
			"billing_profile_id":     order.BillingProfileID,
			"shipping_profile_id":    order.ShippingProfileID,
			"total_cents":            order.TotalCents,
			"currency":               order.Currency,
			"state":                  string(order.State),
			"checkout_step":          order.CheckoutStep,
			"payment_state":          order.PaymentState,
			"receipt_id":             order.ReceiptID,
			"placed_at":              order.PlacedAt,
			"last_submission_step":   order.LastSubmissionStep,
			"last_submission_digest": order.LastSubmissionDigest,
			"version":                gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("save order %d: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	order.Version = expected + 1
	return nil
}

func (m *Manager) loadOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := config.DBFromContext(ctx, m.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("BillingProfile").
		First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	return &order, nil
}

// afterPlace runs the side effects of placing an order. Failures are
// logged and never undo the placement.
func (m *Manager) afterPlace(ctx context.Context, order *models.Order) {
	logger := zerolog.Ctx(ctx).With().Uint("order_id", order.ID).Logger()
	ctx = context.WithoutCancel(ctx)

	if m.deps.Notifier != nil {
		if err := m.deps.Notifier.SendOrderConfirmation(ctx, order); err != nil {
			logger.Error().Err(err).Msg("Failed to send order confirmation")
		}
	}

	if m.deps.Receipts != nil {
		key, err := m.deps.Receipts.Archive(ctx, order)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to archive receipt")
			return
		}
		err = m.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", order.ID).UpdateColumn("receipt_s3_key", key).Error
		if err != nil {
			logger.Error().Err(err).Msg("Failed to record receipt key")
			if discardErr := m.deps.Receipts.Discard(ctx, key); discardErr != nil {
				logger.Error().Err(discardErr).Str("key", key).Msg("Failed to discard unrecorded receipt")
			}
			return
		}
		order.ReceiptS3Key = &key
	}
}

func (m *Manager) startSpan(ctx context.Context, name string, orderID uint, step string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("order.id", int64(orderID)),
		attribute.String("checkout.step", step),
	))
}

func (m *Manager) stepLabel(step string) string {
	if step == "" {
		return "current"
	}
	if _, ok := m.flow.Step(step); ok {
		return step
	}
	return "unknown"
}

func outcomeLabel(outcome *Outcome, err error) string {
	var (
		verr     *ValidationError
		rejected *workflow.GuardRejectedError
	)
	switch {
	case err == nil && outcome.Replayed:
		return "replayed"
	case err == nil && outcome.Redirect != "":
		return "redirect"
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAccessDenied):
		return "denied"
	case errors.As(err, &verr):
		return "invalid"
	case errors.As(err, &rejected):
		return "rejected"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
