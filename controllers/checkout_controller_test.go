package controllers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/kendall-kelly/checkout-flow-api/checkout"
	"github.com/kendall-kelly/checkout-flow-api/config"
	"github.com/kendall-kelly/checkout-flow-api/models"
	"github.com/kendall-kelly/checkout-flow-api/services"
	"github.com/kendall-kelly/checkout-flow-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// CheckoutAccessSuite covers who may open which step of an order
type CheckoutAccessSuite struct {
	suite.Suite
	h      *checkoutHarness
	owner  models.User
	other  models.User
	admin  models.User
	order  models.Order
	empty  models.Order
	client *testClient
}

func (s *CheckoutAccessSuite) SetupTest() {
	s.h = newCheckoutHarness(s.T())
	s.owner = testutil.CreateUser(s.T(), s.h.db, "customer", "customer@example.com")
	s.other = testutil.CreateUser(s.T(), s.h.db, "other", "other@example.com")
	s.admin = testutil.CreateUser(s.T(), s.h.db, "admin", "admin@example.com")

	variation := testutil.CreateVariation(s.T(), s.h.db, "SKU-1", 1999)
	s.order = testutil.CreateOrder(s.T(), s.h.db, &s.owner.ID, variation)
	s.empty = testutil.CreateOrder(s.T(), s.h.db, &s.owner.ID)
	s.client = s.h.customer(s.owner)
}

func (s *CheckoutAccessSuite) TestAnonymousIsDenied() {
	w := s.h.guest().get(checkoutPath(s.order.ID, ""))
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("FORBIDDEN", errorCode(decodeResponse(s.T(), w)))
}

func (s *CheckoutAccessSuite) TestOwnerIsSentToCurrentStep() {
	w := s.client.get(checkoutPath(s.order.ID, ""))
	s.Equal(http.StatusFound, w.Code)
	s.Equal(checkoutPath(s.order.ID, "order_information"), w.Header().Get("Location"))

	order := s.h.reloadOrder(s.order.ID)
	s.Equal(models.StateInCheckout, order.State, "Opening the checkout should start it")
}

func (s *CheckoutAccessSuite) TestOwnerCanViewCurrentStep() {
	w := s.client.get(checkoutPath(s.order.ID, "order_information"))
	s.Require().Equal(http.StatusOK, w.Code, "Response body: %s", w.Body.String())

	data := decodeResponse(s.T(), w)["data"].(map[string]any)
	s.Equal("order_information", data["step"].(map[string]any)["id"])
	s.Equal("Continue to review", data["next_label"])
	s.Nil(data["previous"])

	_, hasContact := paneData(s.T(), w, "panes", "contact_information")
	s.False(hasContact, "Orders with an owner do not ask for contact information")
	_, hasBilling := paneData(s.T(), w, "panes", "billing_information")
	s.True(hasBilling)
}

func (s *CheckoutAccessSuite) TestStepsAheadRedirect() {
	for _, step := range []string{"review", "complete", "login"} {
		w := s.client.get(checkoutPath(s.order.ID, step))
		s.Equal(http.StatusFound, w.Code, "step %s", step)
		s.Equal(checkoutPath(s.order.ID, "order_information"), w.Header().Get("Location"), "step %s", step)
	}
}

func (s *CheckoutAccessSuite) TestOtherCustomerIsDenied() {
	w := s.h.customer(s.other).get(checkoutPath(s.order.ID, "order_information"))
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *CheckoutAccessSuite) TestAdministratorNeedsBothScopes() {
	w := s.h.customer(s.admin, checkout.ScopeAccessCheckout, checkout.ScopeAdministerOrder).
		get(checkoutPath(s.order.ID, "order_information"))
	s.Equal(http.StatusOK, w.Code)

	w = s.h.customer(s.admin, checkout.ScopeAdministerOrder).get(checkoutPath(s.order.ID, "order_information"))
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *CheckoutAccessSuite) TestOrderWithoutItemsIsDenied() {
	for _, step := range []string{"", "login", "order_information", "review", "complete"} {
		w := s.client.get(checkoutPath(s.empty.ID, step))
		s.Equal(http.StatusForbidden, w.Code, "step %q", step)
	}
}

func (s *CheckoutAccessSuite) TestUnknownOrderAndStep() {
	w := s.client.get(checkoutPath(s.order.ID, "shipping"))
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("STEP_NOT_FOUND", errorCode(decodeResponse(s.T(), w)))

	w = s.client.get(checkoutPath(999999, ""))
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("ORDER_NOT_FOUND", errorCode(decodeResponse(s.T(), w)))

	w = s.client.get("/checkout/abc")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *CheckoutAccessSuite) TestCanceledOrderIsDenied() {
	w := s.client.postJSON(fmt.Sprintf("/orders/%d/cancel", s.order.ID), nil)
	s.Require().Equal(http.StatusOK, w.Code, "Response body: %s", w.Body.String())
	s.Equal("canceled", decodeResponse(s.T(), w)["data"].(map[string]any)["state"])

	w = s.client.get(checkoutPath(s.order.ID, "order_information"))
	s.Equal(http.StatusForbidden, w.Code)

	w = s.client.postJSON(fmt.Sprintf("/orders/%d/cancel", s.order.ID), nil)
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("CANNOT_PROCEED", errorCode(decodeResponse(s.T(), w)))
}

func TestCheckoutAccessSuite(t *testing.T) {
	suite.Run(t, new(CheckoutAccessSuite))
}

func TestCheckout_ForwardJumpDenied(t *testing.T) {
	h := newCheckoutHarness(t, func(flow *checkout.Flow, _ *checkout.Dependencies, _ *gorm.DB) {
		flow.ForwardJump = checkout.ForwardJumpDeny
	})
	owner := testutil.CreateUser(t, h.db, "customer", "customer@example.com")
	order := testutil.CreateOrder(t, h.db, &owner.ID, testutil.CreateVariation(t, h.db, "SKU-1", 500))
	client := h.customer(owner)

	assert.Equal(t, http.StatusForbidden, client.get(checkoutPath(order.ID, "complete")).Code)
	assert.Equal(t, http.StatusOK, client.get(checkoutPath(order.ID, "order_information")).Code)
}

func TestCheckout_OwnerCompletesCheckout(t *testing.T) {
	h := newCheckoutHarness(t)
	owner := testutil.CreateUser(t, h.db, "customer", "customer@example.com")
	other := testutil.CreateUser(t, h.db, "other", "other@example.com")
	order := testutil.CreateOrder(t, h.db, &owner.ID, testutil.CreateVariation(t, h.db, "SKU-1", 2500))
	client := h.customer(owner)

	require.Equal(t, http.StatusFound, client.get(checkoutPath(order.ID, "")).Code)
	version := h.reloadOrder(order.ID).Version

	// Nothing is stored while any pane rejects the values
	messages := fieldMessages(t, client.submit(checkoutPath(order.ID, "order_information"), nil))
	assert.Equal(t, "First name field is required.", messages["billing_information.given_name"])
	assert.Equal(t, "Last name field is required.", messages["billing_information.family_name"])
	assert.Equal(t, "Street address field is required.", messages["billing_information.address_line1"])
	assert.Equal(t, "City field is required.", messages["billing_information.locality"])
	assert.Equal(t, "Country field is required.", messages["billing_information.country_code"])
	assert.Equal(t, version, h.reloadOrder(order.ID).Version)

	w := client.submit(checkoutPath(order.ID, "order_information"), billingInformation())
	require.Equal(t, http.StatusFound, w.Code, "Response body: %s", w.Body.String())
	assert.Equal(t, checkoutPath(order.ID, "review"), w.Header().Get("Location"))

	// order_information declares no previous label, so review cannot go back
	w = client.get(checkoutPath(order.ID, "order_information"))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, checkoutPath(order.ID, "review"), w.Header().Get("Location"))

	w = client.get(checkoutPath(order.ID, "review"))
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]any)
	assert.Nil(t, data["previous"])
	assert.Equal(t, "Pay and complete purchase", data["next_label"])
	review, ok := paneData(t, w, "panes", "review")
	require.True(t, ok)
	assert.Equal(t, "Milwaukee", review["billing_information"].(map[string]any)["locality"])

	w = client.submit(checkoutPath(order.ID, "review"), nil)
	require.Equal(t, http.StatusFound, w.Code, "Response body: %s", w.Body.String())
	assert.Equal(t, checkoutPath(order.ID, "complete"), w.Header().Get("Location"))

	placed := h.reloadOrder(order.ID)
	assert.Equal(t, models.StatePlaced, placed.State)
	require.NotNil(t, placed.OrderNumber)
	assert.Equal(t, uint(1), *placed.OrderNumber)
	assert.Equal(t, models.PaymentStateCaptured, placed.PaymentState)
	assert.NotNil(t, placed.PlacedAt)
	assert.Equal(t, []uint{order.ID}, h.notifier.sent())
	assert.Len(t, h.s3.Keys(), 1)

	w = client.get(checkoutPath(order.ID, "complete"))
	require.Equal(t, http.StatusOK, w.Code)
	completion, ok := paneData(t, w, "panes", "completion_message")
	require.True(t, ok)
	assert.Equal(t, "Your order number is 1. You can view your order on your account page when logged in.", completion["message"])

	// Placed orders only show the completion step and ignore submissions
	for _, step := range []string{"", "order_information", "review"} {
		w = client.get(checkoutPath(order.ID, step))
		assert.Equal(t, http.StatusFound, w.Code, "step %q", step)
		assert.Equal(t, checkoutPath(order.ID, "complete"), w.Header().Get("Location"), "step %q", step)
	}
	w = client.submit(checkoutPath(order.ID, "complete"), nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, true, decodeResponse(t, w)["data"].(map[string]any)["replayed"])
	assert.Len(t, h.payments.Captures(), 1)
	assert.Equal(t, placed.Version, h.reloadOrder(order.ID).Version)

	w = client.get(fmt.Sprintf("/orders/%d/log", order.ID))
	require.Equal(t, http.StatusOK, w.Code)
	var transitions []string
	for _, raw := range decodeResponse(t, w)["data"].([]any) {
		entry := raw.(map[string]any)
		if entry["category"] == models.LogCategoryTransition {
			transitions = append(transitions, entry["to"].(string))
		}
	}
	assert.Equal(t, []string{"in_checkout", "placed"}, transitions)

	w = client.get(fmt.Sprintf("/orders/%d/receipt", order.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeResponse(t, w)["data"].(map[string]any)["url"], fmt.Sprintf("receipts/%d/", order.ID))

	assert.Equal(t, http.StatusForbidden, h.customer(other).get(fmt.Sprintf("/orders/%d/receipt", order.ID)).Code)
}

func TestCheckout_GuestCheckoutTwice(t *testing.T) {
	h := newCheckoutHarness(t)
	variation := testutil.CreateVariation(t, h.db, "SKU-1", 1000)

	for i := 1; i <= 2; i++ {
		guest := h.guest()
		orderID := guest.addToCart(variation)

		w := guest.get(checkoutPath(orderID, ""))
		require.Equal(t, http.StatusFound, w.Code, "Response body: %s", w.Body.String())
		assert.Equal(t, checkoutPath(orderID, "login"), w.Header().Get("Location"))

		w = guest.submit(checkoutPath(orderID, "login"), map[string]string{"login.action": "guest"})
		require.Equal(t, http.StatusFound, w.Code, "Response body: %s", w.Body.String())
		assert.Equal(t, checkoutPath(orderID, "order_information"), w.Header().Get("Location"))

		w = guest.get(checkoutPath(orderID, "order_information"))
		require.Equal(t, http.StatusOK, w.Code)
		_, hasContact := paneData(t, w, "panes", "contact_information")
		assert.True(t, hasContact)

		w = guest.submit(checkoutPath(orderID, "order_information"), guestInformation("guest@example.com"))
		require.Equal(t, http.StatusFound, w.Code, "Response body: %s", w.Body.String())

		w = guest.submit(checkoutPath(orderID, "review"), nil)
		require.Equal(t, http.StatusFound, w.Code, "Response body: %s", w.Body.String())
		assert.Equal(t, checkoutPath(orderID, "complete"), w.Header().Get("Location"))

		w = guest.get(checkoutPath(orderID, "complete"))
		require.Equal(t, http.StatusOK, w.Code)
		completion, _ := paneData(t, w, "panes", "completion_message")
		assert.Equal(t, fmt.Sprintf("Your order number is %d. You can view your order on your account page when logged in.", i), completion["message"])

		order := h.reloadOrder(orderID)
		assert.Nil(t, order.OwnerID)
		assert.Equal(t, "guest@example.com", order.Email)

		w = guest.get("/cart")
		assert.Equal(t, http.StatusNotFound, w.Code, "The cart should be empty after checkout")
		assert.Equal(t, "CART_EMPTY", errorCode(decodeResponse(t, w)))
	}
}

func TestCheckout_LoginPane(t *testing.T) {
	h := newCheckoutHarness(t)
	variation := testutil.CreateVariation(t, h.db, "SKU-1", 1000)
	_, err := services.NewAccountService(h.db).Register(context.Background(), "returning", "returning@example.com", "secret")
	require.NoError(t, err)

	guest := h.guest()
	orderID := guest.addToCart(variation)
	path := checkoutPath(orderID, "login")

	messages := fieldMessages(t, guest.submit(path, nil))
	assert.Equal(t, "Choose to continue as a guest, register or log in.", messages["login.action"])

	messages = fieldMessages(t, guest.submit(path, map[string]string{"login.action": "register"}))
	assert.Equal(t, "Registration is not allowed.", messages["login.action"])

	messages = fieldMessages(t, guest.submit(path, map[string]string{
		"login.action":         "returning",
		"login.returning.name": "returning",
		"login.returning.pass": "wrong",
	}))
	assert.Equal(t, "Unrecognized username or password.", messages["login.returning.name"])

	w := guest.submit(path, map[string]string{
		"login.action":         "returning",
		"login.returning.name": "returning",
		"login.returning.pass": "secret",
	})
	require.Equal(t, http.StatusFound, w.Code, "Response body: %s", w.Body.String())
	assert.Equal(t, checkoutPath(orderID, "order_information"), w.Header().Get("Location"))

	order := h.reloadOrder(orderID)
	require.NotNil(t, order.OwnerID)
	assert.Equal(t, "returning@example.com", order.Email)

	// The session keeps access to the order it logged in with
	w = guest.get(checkoutPath(orderID, "order_information"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckout_Registration(t *testing.T) {
	h := newCheckoutHarness(t, func(flow *checkout.Flow, _ *checkout.Dependencies, _ *gorm.DB) {
		flow.Login.AllowRegistration = true
	})
	testutil.CreateUser(t, h.db, "existing", "existing@example.com")
	variation := testutil.CreateVariation(t, h.db, "SKU-1", 1000)

	guest := h.guest()
	orderID := guest.addToCart(variation)
	path := checkoutPath(orderID, "login")

	register := func(mail, name, pass1, pass2 string) map[string]string {
		return map[string]string{
			"login.action":         "register",
			"login.register.mail":  mail,
			"login.register.name":  name,
			"login.register.pass1": pass1,
			"login.register.pass2": pass2,
		}
	}

	tests := []struct {
		name    string
		values  map[string]string
		field   string
		message string
	}{
		{"email required", register("", "newcustomer", "pass", "pass"), "login.register.mail", "Email field is required."},
		{"username required", register("new@example.com", "", "pass", "pass"), "login.register.name", "Username field is required."},
		{"password required", register("new@example.com", "newcustomer", "", ""), "login.register.pass1", "Password field is required."},
		{"passwords differ", register("new@example.com", "newcustomer", "pass", "ssap"), "login.register.pass2", "The specified passwords do not match."},
		{"username taken", register("new@example.com", "existing", "pass", "pass"), "login.register.name", "The username existing is already taken."},
		{"email taken", register("existing@example.com", "newcustomer", "pass", "pass"), "login.register.mail", "The email address existing@example.com is already taken."},
		{"email invalid", register("not-an-email", "newcustomer", "pass", "pass"), "login.register.mail", "The email address not-an-email is not valid."},
		{"illegal character", register("new@example.com", "new*customer", "pass", "pass"), "login.register.name", "The username contains an illegal character."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := fieldMessages(t, guest.submit(path, tt.values))
			assert.Equal(t, tt.message, messages[tt.field], "all messages: %v", messages)
			assert.Nil(t, h.reloadOrder(orderID).OwnerID)
		})
	}

	w := guest.submit(path, register("new@example.com", "newcustomer", "pass", "pass"))
	require.Equal(t, http.StatusFound, w.Code, "Response body: %s", w.Body.String())
	assert.Equal(t, checkoutPath(orderID, "order_information"), w.Header().Get("Location"))

	var account models.User
	require.NoError(t, h.db.Where("name = ?", "newcustomer").First(&account).Error)
	order := h.reloadOrder(orderID)
	require.NotNil(t, order.OwnerID)
	assert.Equal(t, account.ID, *order.OwnerID)
	assert.Equal(t, "new@example.com", order.Email)

	w = guest.get(checkoutPath(orderID, "order_information"))
	require.Equal(t, http.StatusOK, w.Code)
	_, hasContact := paneData(t, w, "panes", "contact_information")
	assert.False(t, hasContact, "Registered customers do not re-enter their email")
}

func TestCheckout_OrderSummaryView(t *testing.T) {
	tests := []struct {
		name     string
		viewID   *string
		expected string
	}{
		{name: "default view", expected: "commerce_checkout_order_summary"},
		{name: "disabled", viewID: new(string), expected: ""},
		{name: "changed view", viewID: func() *string { s := "custom_order_summary"; return &s }(), expected: "custom_order_summary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newCheckoutHarness(t, func(flow *checkout.Flow, _ *checkout.Dependencies, _ *gorm.DB) {
				if tt.viewID != nil {
					flow.OrderSummaryView = *tt.viewID
				}
			})
			owner := testutil.CreateUser(t, h.db, "customer", "customer@example.com")
			order := testutil.CreateOrder(t, h.db, &owner.ID, testutil.CreateVariation(t, h.db, "SKU-1", 1000))

			w := h.customer(owner).get(checkoutPath(order.ID, "order_information"))
			require.Equal(t, http.StatusOK, w.Code)

			summary, ok := paneData(t, w, "sidebar", "order_summary")
			if tt.expected == "" {
				assert.False(t, ok, "The summary should be hidden")
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.expected, summary["view_id"])
			assert.Equal(t, float64(1000), summary["total_cents"])
		})
	}
}

func TestCheckout_RepeatedSubmission(t *testing.T) {
	h := newCheckoutHarness(t, func(flow *checkout.Flow, _ *checkout.Dependencies, _ *gorm.DB) {
		flow.Steps[flow.StepIndex("order_information")].PreviousLabel = "Go back"
	})
	owner := testutil.CreateUser(t, h.db, "customer", "customer@example.com")
	order := testutil.CreateOrder(t, h.db, &owner.ID, testutil.CreateVariation(t, h.db, "SKU-1", 1000))
	client := h.customer(owner)
	path := checkoutPath(order.ID, "order_information")

	w := client.submit(path, billingInformation())
	require.Equal(t, http.StatusFound, w.Code, "Response body: %s", w.Body.String())
	version := h.reloadOrder(order.ID).Version

	w = client.get(checkoutPath(order.ID, "review"))
	require.Equal(t, http.StatusOK, w.Code)
	previous := decodeResponse(t, w)["data"].(map[string]any)["previous"].(map[string]any)
	assert.Equal(t, "order_information", previous["step"])
	assert.Equal(t, "Go back", previous["label"])

	assert.Equal(t, http.StatusOK, client.get(path).Code, "Going back is allowed with a previous label")

	w = client.submit(path, billingInformation())
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, checkoutPath(order.ID, "review"), w.Header().Get("Location"))
	assert.Equal(t, true, decodeResponse(t, w)["data"].(map[string]any)["replayed"])
	assert.Equal(t, version, h.reloadOrder(order.ID).Version)

	changed := billingInformation()
	changed["billing_information.locality"] = "Madison"
	w = client.submit(path, changed)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, false, decodeResponse(t, w)["data"].(map[string]any)["replayed"])

	var profiles []models.Profile
	require.NoError(t, h.db.Find(&profiles).Error)
	require.Len(t, profiles, 1, "The billing profile is updated in place")
	assert.Equal(t, "Madison", profiles[0].Locality)
}

// versionBumpingProfileStore saves profiles and then changes the stored
// order version, as a concurrent writer would
type versionBumpingProfileStore struct {
	checkout.ProfileStore
	db *gorm.DB
}

func (s *versionBumpingProfileStore) Save(ctx context.Context, profile *models.Profile) (uint, error) {
	id, err := s.ProfileStore.Save(ctx, profile)
	if err != nil {
		return 0, err
	}
	err = config.DBFromContext(ctx, s.db).Model(&models.Order{}).
		Where("state = ?", models.StateInCheckout).
		Update("version", gorm.Expr("version + 1")).Error
	return id, err
}

func TestCheckout_ConcurrentModification(t *testing.T) {
	h := newCheckoutHarness(t, func(_ *checkout.Flow, deps *checkout.Dependencies, db *gorm.DB) {
		deps.Profiles = &versionBumpingProfileStore{ProfileStore: deps.Profiles, db: db}
	})
	owner := testutil.CreateUser(t, h.db, "customer", "customer@example.com")
	order := testutil.CreateOrder(t, h.db, &owner.ID, testutil.CreateVariation(t, h.db, "SKU-1", 1000))

	w := h.customer(owner).submit(checkoutPath(order.ID, "order_information"), billingInformation())
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", errorCode(decodeResponse(t, w)))

	stored := h.reloadOrder(order.ID)
	assert.Empty(t, stored.CheckoutStep)
	assert.Nil(t, stored.BillingProfileID)

	var profiles int64
	h.db.Model(&models.Profile{}).Count(&profiles)
	assert.Zero(t, profiles, "The transaction should roll back")
}

func TestCheckout_PaymentDeclined(t *testing.T) {
	h := newCheckoutHarness(t)
	owner := testutil.CreateUser(t, h.db, "customer", "customer@example.com")
	order := testutil.CreateOrder(t, h.db, &owner.ID, testutil.CreateVariation(t, h.db, "SKU-1", 1000))
	client := h.customer(owner)

	require.Equal(t, http.StatusFound, client.submit(checkoutPath(order.ID, "order_information"), billingInformation()).Code)

	h.payments.DeclineWith(&checkout.PaymentError{Code: "CARD_DECLINED", Message: "Your card was declined."})
	messages := fieldMessages(t, client.submit(checkoutPath(order.ID, "review"), nil))
	assert.Equal(t, "Your card was declined.", messages["payment_process.payment"])

	stored := h.reloadOrder(order.ID)
	assert.Equal(t, models.StateInCheckout, stored.State)
	assert.Nil(t, stored.OrderNumber)
	assert.Empty(t, h.notifier.sent())

	h.payments.DeclineWith(nil)
	w := client.submit(checkoutPath(order.ID, "review"), nil)
	require.Equal(t, http.StatusFound, w.Code, "Response body: %s", w.Body.String())
	assert.Equal(t, models.StatePlaced, h.reloadOrder(order.ID).State)
}

func TestCheckout_JSONSubmission(t *testing.T) {
	h := newCheckoutHarness(t)
	guest := h.guest()
	orderID := guest.addToCart(testutil.CreateVariation(t, h.db, "SKU-1", 1000))

	w := guest.postJSON(checkoutPath(orderID, "login"), map[string]string{"login.action": "guest"})
	require.Equal(t, http.StatusFound, w.Code, "Response body: %s", w.Body.String())
	assert.Equal(t, checkoutPath(orderID, "order_information"), w.Header().Get("Location"))
}
