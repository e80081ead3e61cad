package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kendall-kelly/checkout-flow-api/checkout"
	"github.com/kendall-kelly/checkout-flow-api/middleware"
	"github.com/kendall-kelly/checkout-flow-api/models"
	"github.com/kendall-kelly/checkout-flow-api/services"
	"github.com/kendall-kelly/checkout-flow-api/testutil"
	"github.com/kendall-kelly/checkout-flow-api/testutil/authtest"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSessionCookie = "checkout_session"

// recordingNotifier keeps the orders it was asked to confirm
type recordingNotifier struct {
	mu     sync.Mutex
	orders []uint
}

func (n *recordingNotifier) SendOrderConfirmation(_ context.Context, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order.ID)
	return nil
}

func (n *recordingNotifier) sent() []uint {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uint(nil), n.orders...)
}

type harnessOption func(*checkout.Flow, *checkout.Dependencies, *gorm.DB)

// checkoutHarness runs the shop routes against an in-memory database with
// mock payment, S3 and notification backends
type checkoutHarness struct {
	t        *testing.T
	db       *gorm.DB
	manager  *checkout.Manager
	router   *gin.Engine
	payments *services.MockPaymentGateway
	s3       *services.MockS3Service
	notifier *recordingNotifier
}

func newCheckoutHarness(t *testing.T, opts ...harnessOption) *checkoutHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	h := &checkoutHarness{
		t:        t,
		db:       db,
		payments: services.NewMockPaymentGateway(),
		s3:       services.NewMockS3Service(),
		notifier: &recordingNotifier{},
	}

	accounts := services.NewAccountService(db)
	flow := checkout.DefaultFlow()
	deps := checkout.Dependencies{
		Profiles: services.NewProfileStore(db),
		Payments: h.payments,
		Accounts: accounts,
		Sessions: services.NewDatabaseSessionStore(db),
		Notifier: h.notifier,
		Receipts: services.InitReceiptService(h.s3),
	}
	for _, opt := range opts {
		opt(flow, &deps, db)
	}

	manager, err := checkout.NewManager(db, flow, deps)
	require.NoError(t, err)
	h.manager = manager

	router := gin.New()
	shop := router.Group("",
		middleware.GuestSession(testSessionCookie, false),
		authtest.HeaderAuthMiddleware(),
		middleware.ResolveActor(accounts),
	)
	RegisterShopRoutes(shop, manager)
	h.router = router
	return h
}

// testClient sends requests as one actor: a guest with a session cookie or
// an authenticated subject
type testClient struct {
	h       *checkoutHarness
	subject string
	scopes  []string
	session string
}

func (h *checkoutHarness) guest() *testClient {
	return &testClient{h: h, session: uuid.NewString()}
}

func (h *checkoutHarness) customer(user models.User, scopes ...string) *testClient {
	return &testClient{h: h, subject: *user.Subject, scopes: scopes, session: uuid.NewString()}
}

func (c *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: testSessionCookie, Value: c.session})
	}
	if c.subject != "" {
		req.Header.Set("X-Test-Subject", c.subject)
		req.Header.Set("X-Test-Scopes", strings.Join(c.scopes, " "))
	}
	w := httptest.NewRecorder()
	c.h.router.ServeHTTP(w, req)
	return w
}

func (c *testClient) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *testClient) submit(path string, values map[string]string) *httptest.ResponseRecorder {
	form := url.Values{}
	for key, value := range values {
		form.Set(key, value)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *testClient) postJSON(path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *testClient) delete(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodDelete, path, nil))
}

// addToCart puts one unit of the variation in the client's cart and
// returns the cart's order id
func (c *testClient) addToCart(variation models.ProductVariation) uint {
	c.h.t.Helper()
	w := c.postJSON("/cart/items", map[string]any{"variation_id": variation.ID, "quantity": 1})
	require.Equal(c.h.t, http.StatusCreated, w.Code, "Response body: %s", w.Body.String())

	data := decodeResponse(c.h.t, w)["data"].(map[string]any)
	return uint(data["id"].(float64))
}

func (h *checkoutHarness) reloadOrder(id uint) models.Order {
	h.t.Helper()
	var order models.Order
	require.NoError(h.t, h.db.Preload("Items").First(&order, id).Error)
	return order
}

func checkoutPath(orderID uint, step string) string {
	if step == "" {
		return fmt.Sprintf("/checkout/%d", orderID)
	}
	return fmt.Sprintf("/checkout/%d/%s", orderID, step)
}

func guestInformation(email string) map[string]string {
	values := billingInformation()
	values["contact_information.email"] = email
	values["contact_information.email_confirm"] = email
	return values
}

func billingInformation() map[string]string {
	return map[string]string{
		"billing_information.given_name":    "Frederick",
		"billing_information.family_name":   "Pabst",
		"billing_information.address_line1": "Pabst Blue Ribbon Dr",
		"billing_information.postal_code":   "53177",
		"billing_information.locality":      "Milwaukee",
		"billing_information.country_code":  "US",
	}
}

// fieldMessages returns the messages of a 422 response keyed by field
func fieldMessages(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, "Response body: %s", w.Body.String())

	errorData := decodeResponse(t, w)["error"].(map[string]any)
	out := make(map[string]string)
	for _, raw := range errorData["fields"].([]any) {
		field := raw.(map[string]any)
		out[field["field"].(string)] = field["message"].(string)
	}
	return out
}

func paneData(t *testing.T, w *httptest.ResponseRecorder, section, paneID string) (map[string]any, bool) {
	t.Helper()
	data := decodeResponse(t, w)["data"].(map[string]any)
	panes, _ := data[section].([]any)
	for _, raw := range panes {
		pane := raw.(map[string]any)
		if pane["id"] == paneID {
			paneFields, _ := pane["data"].(map[string]any)
			return paneFields, true
		}
	}
	return nil, false
}
