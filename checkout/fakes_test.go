package checkout

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/kendall-kelly/checkout-flow-api/models"
	"github.com/kendall-kelly/checkout-flow-api/workflow"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	mu     sync.Mutex
	orders map[string][]uint
	err    error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{orders: make(map[string][]uint)}
}

func (s *fakeSessions) Bind(_ context.Context, token string, orderID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if !slices.Contains(s.orders[token], orderID) {
		s.orders[token] = append(s.orders[token], orderID)
	}
	return nil
}

func (s *fakeSessions) HasOrder(_ context.Context, token string, orderID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	return slices.Contains(s.orders[token], orderID), nil
}

func (s *fakeSessions) Orders(_ context.Context, token string) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return slices.Clone(s.orders[token]), nil
}

type fakeProfiles struct {
	saved  []models.Profile
	nextID uint
	err    error
}

func (p *fakeProfiles) Save(_ context.Context, profile *models.Profile) (uint, error) {
	if p.err != nil {
		return 0, p.err
	}
	if profile.ID == 0 {
		p.nextID++
		profile.ID = p.nextID
	}
	p.saved = append(p.saved, *profile)
	return profile.ID, nil
}

type fakePayments struct {
	captured []uint
	decline  error
}

func (p *fakePayments) Capture(_ context.Context, order *models.Order) (*Receipt, error) {
	if p.decline != nil {
		return nil, p.decline
	}
	p.captured = append(p.captured, order.ID)
	return &Receipt{
		ID:          "receipt-1",
		Gateway:     "fake",
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
		CapturedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

type fakeAccounts struct {
	users      map[string]models.User
	passwords  map[string]string
	registered []string
	failWith   error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{users: make(map[string]models.User), passwords: make(map[string]string)}
}

func (a *fakeAccounts) add(id uint, name, email, password string) {
	a.users[name] = models.User{ID: id, Name: name, Email: email}
	a.passwords[name] = password
}

func (a *fakeAccounts) Register(_ context.Context, name, email, password string) (uint, error) {
	if _, taken := a.users[name]; taken {
		verr := &ValidationError{}
		verr.Add("name", ReasonTaken, "The username "+name+" is already taken.")
		return 0, verr
	}
	id := uint(len(a.users) + 100)
	a.add(id, name, email, password)
	a.registered = append(a.registered, name)
	return id, nil
}

func (a *fakeAccounts) Authenticate(_ context.Context, name, password string) (*models.User, error) {
	if a.failWith != nil {
		return nil, a.failWith
	}
	user, ok := a.users[name]
	if !ok || a.passwords[name] != password {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

var errBackendDown = errors.New("backend unavailable")

type testPanes struct {
	sessions *fakeSessions
	profiles *fakeProfiles
	payments *fakePayments
	accounts *fakeAccounts
}

func newTestPanes() *testPanes {
	return &testPanes{
		sessions: newFakeSessions(),
		profiles: &fakeProfiles{},
		payments: &fakePayments{},
		accounts: newFakeAccounts(),
	}
}

func (tp *testPanes) registry(t *testing.T, flow *Flow) *Registry {
	t.Helper()
	registry, err := NewRegistry(flow,
		NewLoginPane(flow.Login, tp.accounts),
		NewContactInformationPane(),
		NewBillingInformationPane(tp.profiles),
		NewOrderSummaryPane(flow.OrderSummaryView),
		NewReviewPane(),
		NewPaymentProcessPane(tp.payments),
		NewCompletionMessagePane(),
	)
	require.NoError(t, err)
	return registry
}

func uintPtr(v uint) *uint { return &v }

// cartOrder is an in-memory order with one line item
func cartOrder(id uint, owner *uint, state workflow.State) *models.Order {
	order := &models.Order{ID: id, OwnerID: owner, State: state, Currency: "USD", Version: 1}
	order.AddItem(models.ProductVariation{ID: 1, SKU: "SKU-1", Title: "Product SKU-1", PriceCents: 1000, Currency: "USD"}, 1)
	return order
}
