package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/checkout-flow-api/models"
)

// Login pane actions, selected by the "login.action" value
const (
	LoginActionGuest     = "guest"
	LoginActionRegister  = "register"
	LoginActionReturning = "returning"
)

// LoginPane lets an anonymous customer continue as a guest, register an
// account or log in to an existing one
type LoginPane struct {
	basePane
	options  LoginOptions
	accounts AccountService
}

// NewLoginPane creates the login pane
func NewLoginPane(options LoginOptions, accounts AccountService) *LoginPane {
	return &LoginPane{
		basePane: basePane{id: "login", label: "Login"},
		options:  options,
		accounts: accounts,
	}
}

// Visible hides the pane once the order belongs to an account
func (p *LoginPane) Visible(order *models.Order, actor Actor) bool {
	return actor.IsAnonymous() && order.OwnerID == nil
}

func (p *LoginPane) View(*models.Order) map[string]any {
	actions := []string{LoginActionReturning}
	if p.options.AllowGuestCheckout {
		actions = append(actions, LoginActionGuest)
	}
	if p.options.AllowRegistration {
		actions = append(actions, LoginActionRegister)
	}
	return map[string]any{
		"actions":              actions,
		"allow_guest_checkout": p.options.AllowGuestCheckout,
		"allow_registration":   p.options.AllowRegistration,
	}
}

func (p *LoginPane) Validate(ctx context.Context, sub *Submission) *ValidationError {
	verr := &ValidationError{}
	v := sub.Values

	switch v.Get(p.field("action")) {
	case LoginActionGuest:
		if !p.options.AllowGuestCheckout {
			verr.Add(p.field("action"), ReasonNotAllowed, "Guest checkout is not allowed.")
		}

	case LoginActionRegister:
		if !p.options.AllowRegistration {
			verr.Add(p.field("action"), ReasonNotAllowed, "Registration is not allowed.")
			return verr
		}
		if v.Get(p.field("register.mail")) == "" {
			verr.Add(p.field("register.mail"), ReasonRequired, "Email field is required.")
		}
		if v.Get(p.field("register.name")) == "" {
			verr.Add(p.field("register.name"), ReasonRequired, "Username field is required.")
		}
		if v.Raw(p.field("register.pass1")) == "" {
			verr.Add(p.field("register.pass1"), ReasonRequired, "Password field is required.")
		} else if v.Raw(p.field("register.pass1")) != v.Raw(p.field("register.pass2")) {
			verr.Add(p.field("register.pass2"), ReasonMismatch, "The specified passwords do not match.")
		}

	case LoginActionReturning:
		name, pass := v.Get(p.field("returning.name")), v.Raw(p.field("returning.pass"))
		if name == "" {
			verr.Add(p.field("returning.name"), ReasonRequired, "Username field is required.")
		}
		if pass == "" {
			verr.Add(p.field("returning.pass"), ReasonRequired, "Password field is required.")
		}
		if verr.HasErrors() {
			return verr
		}
		if _, err := p.accounts.Authenticate(ctx, name, pass); err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				verr.Add(p.field("returning.name"), ReasonInvalid, "Unrecognized username or password.")
			} else {
				verr.Add(p.field("returning.name"), ReasonInvalid, "Login is temporarily unavailable.")
			}
		}

	default:
		verr.Add(p.field("action"), ReasonRequired, "Choose to continue as a guest, register or log in.")
	}

	return verr
}

func (p *LoginPane) Submit(ctx context.Context, sub *Submission) error {
	v := sub.Values

	switch v.Get(p.field("action")) {
	case LoginActionRegister:
		mail := v.Get(p.field("register.mail"))
		userID, err := p.accounts.Register(ctx, v.Get(p.field("register.name")), mail, v.Raw(p.field("register.pass1")))
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return verr.Prefixed(p.field("register"))
			}
			return fmt.Errorf("register account: %w", err)
		}
		sub.Order.OwnerID = &userID
		sub.Order.Email = mail

	case LoginActionReturning:
		user, err := p.accounts.Authenticate(ctx, v.Get(p.field("returning.name")), v.Raw(p.field("returning.pass")))
		if err != nil {
			return fmt.Errorf("authenticate returning customer: %w", err)
		}
		sub.Order.OwnerID = &user.ID
		sub.Order.Email = user.Email
	}

	return nil
}
