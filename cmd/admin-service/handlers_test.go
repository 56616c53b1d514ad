package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/countryside/storefront/internal/admin"
	"github.com/countryside/storefront/internal/auth"
	"github.com/countryside/storefront/internal/catalog"
	ord "github.com/countryside/storefront/internal/order"
)

//
// ---------- STUBS ----------
//

// stubAdminRepo implements admin.Repository in memory.
type stubAdminRepo struct {
	allowlist   map[string]string
	users       map[string]*admin.User
	createCalls int
}

func newStubAdminRepo() *stubAdminRepo {
	return &stubAdminRepo{allowlist: map[string]string{}, users: map[string]*admin.User{}}
}

func (s *stubAdminRepo) AllowListed(_ context.Context, email string) (*admin.Identity, error) {
	role, ok := s.allowlist[email]
	if !ok {
		return nil, admin.ErrNotFound
	}
	return &admin.Identity{Email: email, Role: role}, nil
}

func (s *stubAdminRepo) CreateUser(_ context.Context, u *admin.User) error {
	if _, ok := s.users[u.Email]; ok {
		return admin.ErrAlreadyExist
	}
	s.createCalls++
	cp := *u
	s.users[u.Email] = &cp
	return nil
}

func (s *stubAdminRepo) GetUserByEmail(_ context.Context, email string) (*admin.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, admin.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubAdminRepo) ListUsers(context.Context) ([]admin.User, error) {
	out := []admin.User{}
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *stubAdminRepo) DeleteUser(_ context.Context, id string) (bool, error) {
	for email, u := range s.users {
		if u.ID == id {
			delete(s.users, email)
			return true, nil
		}
	}
	return false, nil
}

// fakeSessions keeps tokens in a map; implements both the gate's reader and
// the handlers' issuer.
type fakeSessions struct {
	byToken map[string]string
}

func newFakeSessions() *fakeSessions { return &fakeSessions{byToken: map[string]string{}} }

func (f *fakeSessions) Create(_ context.Context, email string) (string, error) {
	token := uuid.NewString()
	f.byToken[token] = email
	return token, nil
}

func (f *fakeSessions) Get(_ context.Context, token string) (*auth.Session, error) {
	email, ok := f.byToken[token]
	if !ok {
		return nil, auth.ErrNoSession
	}
	return &auth.Session{Email: email}, nil
}

func (f *fakeSessions) Delete(_ context.Context, token string) error {
	delete(f.byToken, token)
	return nil
}

// stubCatalog implements catalog.Repository; only what the admin CRUD touches.
type stubCatalog struct {
	items map[string]*catalog.Product
}

func newStubCatalog() *stubCatalog { return &stubCatalog{items: map[string]*catalog.Product{}} }

func (s *stubCatalog) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := s.items[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubCatalog) Paginate(_ context.Context, page, size int) ([]catalog.Product, error) {
	out := []catalog.Product{}
	for _, p := range s.items {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubCatalog) Search(_ context.Context, term string, page, size int) ([]catalog.Product, error) {
	return s.Paginate(nil, page, size)
}

func (s *stubCatalog) ListByCategory(_ context.Context, category string, page, size int) ([]catalog.Product, error) {
	return s.Paginate(nil, page, size)
}

func (s *stubCatalog) Create(_ context.Context, p *catalog.Product) error {
	cp := *p
	s.items[p.ID] = &cp
	return nil
}

func (s *stubCatalog) Update(_ context.Context, p *catalog.Product, updatePrice, updateStock bool) error {
	cur, ok := s.items[p.ID]
	if !ok {
		return nil
	}
	if p.Name != "" {
		cur.Name = p.Name
	}
	if updatePrice {
		cur.Price = p.Price
	}
	if updateStock {
		cur.Stock = p.Stock
	}
	return nil
}

func (s *stubCatalog) Delete(_ context.Context, id string) (bool, error) {
	_, ok := s.items[id]
	delete(s.items, id)
	return ok, nil
}

// stubOrders implements ord.Repository; only what the back office touches.
type stubOrders struct {
	orders map[string]*ord.Order
	lines  map[string][]ord.Line
}

func newStubOrders() *stubOrders {
	return &stubOrders{orders: map[string]*ord.Order{}, lines: map[string][]ord.Line{}}
}

func (s *stubOrders) Create(_ context.Context, o *ord.Order) error {
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}
func (s *stubOrders) CreateLines(_ context.Context, lines []ord.Line) error { return nil }
func (s *stubOrders) Delete(_ context.Context, id string) (bool, error)    { return false, nil }

func (s *stubOrders) GetByID(_ context.Context, id string) (*ord.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, ord.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *stubOrders) GetLines(_ context.Context, orderID string) ([]ord.Line, error) {
	return s.lines[orderID], nil
}

func (s *stubOrders) List(_ context.Context, limit, offset int) ([]ord.Order, error) {
	out := []ord.Order{}
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *stubOrders) ListByEmail(_ context.Context, email string, limit, offset int) ([]ord.Order, error) {
	return nil, nil
}

func (s *stubOrders) MarkPaid(_ context.Context, id string) error { return nil }

func (s *stubOrders) SetTxRef(_ context.Context, id, txRef string) error { return nil }

func (s *stubOrders) UpdateStatus(_ context.Context, id, status string) error {
	o, ok := s.orders[id]
	if !ok {
		return ord.ErrNotFound
	}
	o.Status = status
	return nil
}

type adminEnv struct {
	router   *gin.Engine
	repo     *stubAdminRepo
	sessions *fakeSessions
	catalog  *stubCatalog
	orders   *stubOrders
}

func newAdminEnv(t *testing.T) *adminEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newStubAdminRepo()
	sessions := newFakeSessions()
	gate := admin.NewGate(repo, sessions)
	products := newStubCatalog()
	orders := newStubOrders()

	return &adminEnv{
		router:   newRouter(gate, sessions, products, orders, repo),
		repo:     repo,
		sessions: sessions,
		catalog:  products,
		orders:   orders,
	}
}

func (e *adminEnv) do(t *testing.T, method, path, body, sessionToken string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if sessionToken != "" {
		req.AddCookie(&http.Cookie{Name: admin.SessionCookie, Value: sessionToken})
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *adminEnv) loginAs(t *testing.T, email string) string {
	t.Helper()
	token, err := e.sessions.Create(context.Background(), email)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return token
}

//
// ---------- TESTS ----------
//

func TestRegisterRejectedWhenNotAllowListed(t *testing.T) {
	e := newAdminEnv(t)

	w := e.do(t, http.MethodPost, "/register",
		`{"firstname":"Eve","lastname":"N","email":"eve@x.y","password":"pw"}`, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status=%d body=%s, want 403", w.Code, w.Body.String())
	}
	if e.repo.createCalls != 0 {
		t.Fatalf("signup attempted for a non-listed email")
	}
}

func TestRegisterAndLogin(t *testing.T) {
	e := newAdminEnv(t)
	e.repo.allowlist["ada@store.example"] = admin.RoleAdmin

	w := e.do(t, http.MethodPost, "/register",
		`{"firstname":"Ada","lastname":"Obi","email":"ada@store.example","password":"s3cret"}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s, want 201", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/login",
		`{"email":"ada@store.example","password":"s3cret"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", w.Code, w.Body.String())
	}
	cookieSet := false
	for _, ck := range w.Result().Cookies() {
		if ck.Name == admin.SessionCookie && ck.Value != "" {
			cookieSet = true
		}
	}
	if !cookieSet {
		t.Fatalf("no session cookie on login response")
	}

	w = e.do(t, http.MethodPost, "/login",
		`{"email":"ada@store.example","password":"wrong"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status=%d, want 401", w.Code)
	}
}

func TestAdminRoutesRedirectWithoutSession(t *testing.T) {
	e := newAdminEnv(t)

	w := e.do(t, http.MethodGet, "/admin/products", "", "")
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want 303 redirect", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Fatalf("redirect location=%q, want /", loc)
	}
}

func TestAdminRoutesDenyNonAdminRole(t *testing.T) {
	e := newAdminEnv(t)
	e.repo.allowlist["viewer@store.example"] = "support"
	token := e.loginAs(t, "viewer@store.example")

	w := e.do(t, http.MethodGet, "/admin/orders", "", token)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want 303 redirect for non-admin role", w.Code)
	}
}

func TestProductCRUD(t *testing.T) {
	e := newAdminEnv(t)
	e.repo.allowlist["ada@store.example"] = admin.RoleAdmin
	token := e.loginAs(t, "ada@store.example")

	w := e.do(t, http.MethodPost, "/admin/products",
		`{"name":"Yams","category":"produce","price":"1500.00","stock":10}`, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", w.Code, w.Body.String())
	}
	var created catalog.Product
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if created.ID == "" || created.Price != "1500" {
		t.Fatalf("unexpected product %+v", created)
	}

	w = e.do(t, http.MethodPost, "/admin/products",
		`{"name":"Bad","price":"-5","stock":1}`, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("negative price status=%d, want 400", w.Code)
	}

	w = e.do(t, http.MethodPut, "/admin/products/"+created.ID,
		`{"price":"1600.00"}`, token)
	if w.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", w.Code, w.Body.String())
	}
	var updated catalog.Product
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Price != "1600" {
		t.Fatalf("price=%s after update, want 1600", updated.Price)
	}

	w = e.do(t, http.MethodDelete, "/admin/products/"+created.ID, "", token)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", w.Code)
	}
	w = e.do(t, http.MethodDelete, "/admin/products/"+created.ID, "", token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d, want 404", w.Code)
	}
}

func TestOrderStatusOverride(t *testing.T) {
	e := newAdminEnv(t)
	e.repo.allowlist["ada@store.example"] = admin.RoleAdmin
	token := e.loginAs(t, "ada@store.example")

	oid := uuid.NewString()
	e.orders.orders[oid] = &ord.Order{ID: oid, PaymentStatus: ord.PaymentPending, Status: ord.StatusProcessing}

	w := e.do(t, http.MethodPut, "/admin/orders/"+oid+"/status", `{"status":"shipped"}`, token)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if e.orders.orders[oid].Status != ord.StatusShipped {
		t.Fatalf("order status=%s, want shipped", e.orders.orders[oid].Status)
	}
	// payment status untouched by the override
	if e.orders.orders[oid].PaymentStatus != ord.PaymentPending {
		t.Fatalf("payment status changed by fulfillment override")
	}

	w = e.do(t, http.MethodPut, "/admin/orders/"+oid+"/status", `{"status":"teleported"}`, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid status=%d, want 400", w.Code)
	}

	w = e.do(t, http.MethodPut, "/admin/orders/"+uuid.NewString()+"/status", `{"status":"shipped"}`, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing order status=%d, want 404", w.Code)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	e := newAdminEnv(t)
	e.repo.allowlist["ada@store.example"] = admin.RoleAdmin
	token := e.loginAs(t, "ada@store.example")

	w := e.do(t, http.MethodPost, "/logout", "", token)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout status=%d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/admin/products", "", token)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status=%d after logout, want 303", w.Code)
	}
}

func TestUserManagement(t *testing.T) {
	e := newAdminEnv(t)
	e.repo.allowlist["ada@store.example"] = admin.RoleAdmin
	e.repo.allowlist["obi@store.example"] = admin.RoleAdmin
	token := e.loginAs(t, "ada@store.example")

	w := e.do(t, http.MethodPost, "/register",
		`{"firstname":"Obi","lastname":"K","email":"obi@store.example","password":"pw"}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register status=%d", w.Code)
	}
	var u admin.User
	_ = json.Unmarshal(w.Body.Bytes(), &u)

	w = e.do(t, http.MethodGet, "/admin/users", "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("list users status=%d", w.Code)
	}

	w = e.do(t, http.MethodDelete, "/admin/users/"+u.ID, "", token)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete user status=%d body=%s", w.Code, w.Body.String())
	}
	w = e.do(t, http.MethodDelete, fmt.Sprintf("/admin/users/%s", u.ID), "", token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d, want 404", w.Code)
	}
}
