package checkout

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kendall-kelly/checkout-flow-api/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ContactInformationPane collects the email address of guest customers
type ContactInformationPane struct {
	basePane
}

// NewContactInformationPane creates the contact information pane
func NewContactInformationPane() *ContactInformationPane {
	return &ContactInformationPane{basePane{id: "contact_information", label: "Contact information"}}
}

// Visible hides the pane for orders that belong to an account, whose email is known
func (p *ContactInformationPane) Visible(order *models.Order, _ Actor) bool {
	return order.OwnerID == nil
}

func (p *ContactInformationPane) View(order *models.Order) map[string]any {
	return map[string]any{"email": order.Email}
}

func (p *ContactInformationPane) Validate(_ context.Context, sub *Submission) *ValidationError {
	verr := &ValidationError{}
	email := sub.Values.Get(p.field("email"))
	confirm := sub.Values.Get(p.field("email_confirm"))

	switch {
	case email == "":
		verr.Add(p.field("email"), ReasonRequired, "Email field is required.")
	case validate.Var(email, "email") != nil:
		verr.Add(p.field("email"), ReasonInvalid, fmt.Sprintf("The email address %s is not valid.", email))
	case confirm != email:
		verr.Add(p.field("email_confirm"), ReasonMismatch, "The specified emails do not match.")
	}
	return verr
}

func (p *ContactInformationPane) Submit(_ context.Context, sub *Submission) error {
	sub.Order.Email = sub.Values.Get(p.field("email"))
	return nil
}

// billingForm is the billing address as submitted
type billingForm struct {
	GivenName          string `form:"given_name" label:"First name" validate:"required,max=255"`
	FamilyName         string `form:"family_name" label:"Last name" validate:"required,max=255"`
	Organization       string `form:"organization" label:"Company" validate:"max=255"`
	AddressLine1       string `form:"address_line1" label:"Street address" validate:"required,max=255"`
	AddressLine2       string `form:"address_line2" label:"Street address line 2" validate:"max=255"`
	PostalCode         string `form:"postal_code" label:"Postal code" validate:"max=32"`
	Locality           string `form:"locality" label:"City" validate:"required,max=255"`
	AdministrativeArea string `form:"administrative_area" label:"State" validate:"max=255"`
	CountryCode        string `form:"country_code" label:"Country" validate:"required,iso3166_1_alpha2"`
}

var billingLabels = func() map[string]string {
	labels := make(map[string]string)
	t := reflect.TypeOf(billingForm{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		labels[f.Tag.Get("form")] = f.Tag.Get("label")
	}
	return labels
}()

func billingFormFrom(v Values) billingForm {
	return billingForm{
		GivenName:          v.Get("given_name"),
		FamilyName:         v.Get("family_name"),
		Organization:       v.Get("organization"),
		AddressLine1:       v.Get("address_line1"),
		AddressLine2:       v.Get("address_line2"),
		PostalCode:         v.Get("postal_code"),
		Locality:           v.Get("locality"),
		AdministrativeArea: v.Get("administrative_area"),
		CountryCode:        strings.ToUpper(v.Get("country_code")),
	}
}

// BillingInformationPane collects the billing address and stores it as a
// customer profile
type BillingInformationPane struct {
	basePane
	profiles ProfileStore
}

// NewBillingInformationPane creates the billing information pane
func NewBillingInformationPane(profiles ProfileStore) *BillingInformationPane {
	return &BillingInformationPane{
		basePane: basePane{id: "billing_information", label: "Billing information"},
		profiles: profiles,
	}
}

func (p *BillingInformationPane) View(order *models.Order) map[string]any {
	if order.BillingProfile == nil {
		return map[string]any{"profile": nil}
	}
	return map[string]any{"profile": order.BillingProfile}
}

func (p *BillingInformationPane) Validate(_ context.Context, sub *Submission) *ValidationError {
	verr := &ValidationError{}
	form := billingFormFrom(sub.Values.Pane(p.id))

	err := validate.Struct(form)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return verr
	}

	for _, fe := range fieldErrs {
		label := billingLabels[fe.Field()]
		switch fe.Tag() {
		case "required":
			verr.Add(p.field(fe.Field()), ReasonRequired, label+" field is required.")
		case "max":
			verr.Add(p.field(fe.Field()), ReasonInvalid, fmt.Sprintf("%s cannot be longer than %s characters.", label, fe.Param()))
		default:
			verr.Add(p.field(fe.Field()), ReasonInvalid, label+" is not valid.")
		}
	}
	return verr
}

func (p *BillingInformationPane) Submit(ctx context.Context, sub *Submission) error {
	form := billingFormFrom(sub.Values.Pane(p.id))
	profile := &models.Profile{
		Type:               "customer",
		OwnerID:            sub.Order.OwnerID,
		GivenName:          form.GivenName,
		FamilyName:         form.FamilyName,
		Organization:       form.Organization,
		AddressLine1:       form.AddressLine1,
		AddressLine2:       form.AddressLine2,
		PostalCode:         form.PostalCode,
		Locality:           form.Locality,
		AdministrativeArea: form.AdministrativeArea,
		CountryCode:        form.CountryCode,
	}
	if sub.Order.BillingProfileID != nil {
		profile.ID = *sub.Order.BillingProfileID
	}

	id, err := p.profiles.Save(ctx, profile)
	if err != nil {
		return fmt.Errorf("save billing profile: %w", err)
	}
	sub.Order.BillingProfileID = &id
	sub.Order.BillingProfile = profile
	return nil
}
