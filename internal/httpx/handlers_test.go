package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Venus2Mice/e-commerce-website/internal/auth"
	"github.com/Venus2Mice/e-commerce-website/internal/redisx"
	"github.com/Venus2Mice/e-commerce-website/internal/shop"
	"github.com/Venus2Mice/e-commerce-website/internal/users"
	"github.com/Venus2Mice/e-commerce-website/internal/webhook"
)

type stubSettler struct {
	res  webhook.Result
	got  webhook.Notification
	seen bool
}

func (s *stubSettler) SettlePayment(_ context.Context, n webhook.Notification) webhook.Result {
	s.got, s.seen = n, true
	return s.res
}

type stubAccounts struct {
	registerErr error
	user        users.User
	loginErr    error
}

func (s *stubAccounts) Register(_ context.Context, in users.RegisterInput) (users.User, error) {
	if s.registerErr != nil {
		return users.User{}, s.registerErr
	}
	return users.User{ID: 11, Email: in.Email}, nil
}

func (s *stubAccounts) Login(_ context.Context, _, _ string) (users.User, error) {
	return s.user, s.loginErr
}

type stubUsers struct{ list []users.User }

func (s *stubUsers) GetByID(_ context.Context, id int64) (users.User, error) {
	for _, u := range s.list {
		if u.ID == id {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}
func (s *stubUsers) List(context.Context) ([]users.User, error) { return s.list, nil }
func (s *stubUsers) Update(context.Context, users.Update) error { return nil }

type stubCatalog struct {
	list    []shop.Clothes
	listed  int
	created shop.ClothesInput
}

func (s *stubCatalog) ListClothes(context.Context) ([]shop.Clothes, error) {
	s.listed++
	return s.list, nil
}
func (s *stubCatalog) GetClothes(_ context.Context, id int64) (shop.Clothes, error) {
	return shop.Clothes{}, shop.ErrClothesNotFound
}
func (s *stubCatalog) CreateClothes(_ context.Context, in shop.ClothesInput) (int64, error) {
	s.created = in
	return 3, nil
}
func (s *stubCatalog) UpdateClothes(context.Context, int64, shop.ClothesInput) error { return nil }
func (s *stubCatalog) DeleteClothes(context.Context, int64) error { return nil }

type stubBills struct {
	filter    shop.BillFilter
	deleteErr error
	created   shop.NewBill
}

func (s *stubBills) CreateTx(_ context.Context, nb shop.NewBill) (int64, error) {
	s.created = nb
	return 42, nil
}
func (s *stubBills) Get(context.Context, int64) (shop.Bill, error) { return shop.Bill{}, shop.ErrBillNotFound }
func (s *stubBills) List(_ context.Context, f shop.BillFilter) ([]shop.Bill, int, error) {
	s.filter = f
	return []shop.Bill{{ID: 1, Status: shop.BillPending}}, 21, nil
}
func (s *stubBills) Update(context.Context, int64, shop.BillUpdate) error { return nil }
func (s *stubBills) Delete(context.Context, int64) error { return s.deleteErr }

type stubReviews struct {
	created   shop.ReviewInput
	filter    shop.ReviewFilter
	createErr error
	updateErr error
	deleted   int64
}

func (s *stubReviews) Create(_ context.Context, in shop.ReviewInput) (int64, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	s.created = in
	return 6, nil
}
func (s *stubReviews) Get(context.Context, int64) (shop.Review, error) {
	return shop.Review{}, shop.ErrReviewNotFound
}
func (s *stubReviews) List(_ context.Context, f shop.ReviewFilter) ([]shop.Review, int, error) {
	s.filter = f
	return []shop.Review{{ID: 6, ClothesID: f.ClothesID, Star: 5}}, 13, nil
}
func (s *stubReviews) Update(context.Context, shop.ReviewUpdate) error { return s.updateErr }
func (s *stubReviews) Delete(_ context.Context, id int64) error {
	s.deleted = id
	return nil
}

type stubPerms map[int][]auth.Role

func (s stubPerms) GroupRoles(_ context.Context, groupID int) ([]auth.Role, error) {
	return s[groupID], nil
}

type fixture struct {
	router   *chi.Mux
	tokens   *auth.Tokens
	settler  *stubSettler
	accounts *stubAccounts
	catalog  *stubCatalog
	bills    *stubBills
	reviews  *stubReviews
	redis    redismock.ClientMock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock := redismock.NewClientMock()
	f := &fixture{
		tokens:   auth.NewTokens("test_secret", time.Hour),
		settler:  &stubSettler{},
		accounts: &stubAccounts{},
		catalog:  &stubCatalog{list: []shop.Clothes{{ID: 1, Name: "Shirt", Price: decimal.NewFromInt(10), Variants: []shop.Variant{}}}},
		bills:    &stubBills{},
		reviews:  &stubReviews{},
		redis:    mock,
	}
	perms := stubPerms{1: {{URL: "/api/bill/get"}, {URL: "/api/bill/delete", Method: "DELETE"}, {URL: "/api/bill/create"}, {URL: "/api/clothes/create"},
		{URL: "/api/review/create", Method: "POST"}, {URL: "/api/review/update", Method: "PUT"}, {URL: "/api/review/delete", Method: "DELETE"}}}
	api := &API{
		Gate:    auth.NewGate(f.tokens, perms, zap.NewNop()),
		Webhook: &WebhookHandler{Settler: f.settler, Log: zap.NewNop()},
		Users:   &UsersHandler{Accounts: f.accounts, Users: &stubUsers{}, Tokens: f.tokens, Log: zap.NewNop()},
		Clothes: &ClothesHandler{Catalog: f.catalog, Redis: db, Log: zap.NewNop()},
		Bills:   &BillsHandler{Bills: f.bills, Log: zap.NewNop()},
		Reviews: &ReviewsHandler{Reviews: f.reviews, Log: zap.NewNop()},
	}
	f.router = NewRouter(zap.NewNop())
	api.Register(f.router)
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env Envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (f *fixture) session(t *testing.T, groupID int) *http.Cookie {
	t.Helper()
	s, err := f.tokens.Create(auth.Claims{UserID: 8, GroupID: groupID})
	require.NoError(t, err)
	return &http.Cookie{Name: auth.CookieName, Value: s}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec, _ := f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestPaymentWebhook(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/hooks/payment", "{not json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1, env.EC)
	assert.Equal(t, "invalid json", env.EM)
	assert.False(t, f.settler.seen)

	f.settler.res = webhook.Result{Outcome: webhook.OutcomeSettled, BillID: 77, EC: 0, EM: "Payment processed"}
	rec, env = f.do(t, http.MethodPost, "/api/hooks/payment",
		`{"gateway":"Bank","accountNumber":"123","transferAmount":50000,"description":"Invoice-77","transferType":"in"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, env.EC)
	assert.Equal(t, "", env.DT)
	assert.Equal(t, "Invoice-77", f.settler.got.Description)
	require.NotNil(t, f.settler.got.TransferAmount)
	assert.True(t, f.settler.got.TransferAmount.Equal(decimal.NewFromInt(50000)))

	f.settler.res = webhook.Result{Outcome: webhook.OutcomeBillNotFound, BillID: 9999, EC: -1, EM: "Err from webhook service: bill not found"}
	rec, env = f.do(t, http.MethodPost, "/api/hooks/payment", `{"gateway":"Bank"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1, env.EC)
	assert.Equal(t, "", env.DT)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/user/register", `{"email":"a@b.co"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, -1, env.EC)

	body := `{"email":"a@b.co","password":"secret1","phoneNumber":"0900","firstName":"A","lastName":"B"}`
	_, env = f.do(t, http.MethodPost, "/api/user/register", body)
	assert.Equal(t, 0, env.EC)
	assert.EqualValues(t, 11, env.DT)

	f.accounts.registerErr = users.ErrAlreadyExists
	_, env = f.do(t, http.MethodPost, "/api/user/register", body)
	assert.Equal(t, 1, env.EC)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	f := newFixture(t)
	f.accounts.user = users.User{ID: 8, Email: "a@b.co", GroupID: 1, FirstName: "A", LastName: "B"}

	rec, env := f.do(t, http.MethodPost, "/api/user/login", `{"loginAcc":"a@b.co","password":"secret1"}`)
	require.Equal(t, 0, env.EC, env.EM)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, auth.CookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)

	claims, err := f.tokens.Verify(c.Value)
	require.NoError(t, err)
	assert.Equal(t, int64(8), claims.UserID)
	assert.Equal(t, "A B", claims.Name)

	_, env = f.do(t, http.MethodGet, "/api/account", "", c)
	assert.Equal(t, 0, env.EC)

	f.accounts.loginErr = users.ErrBadCredentials
	_, env = f.do(t, http.MethodPost, "/api/user/login", `{"loginAcc":"a@b.co","password":"x"}`)
	assert.Equal(t, 1, env.EC)
}

func TestProtectedRoutes(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodGet, "/api/bill/get?type=PAGINATION", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 401, env.EC)

	rec, env = f.do(t, http.MethodGet, "/api/bill/get?type=PAGINATION", "", f.session(t, 3))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 403, env.EC)

	rec, env = f.do(t, http.MethodGet, "/api/bill/get?type=PAGINATION&page=2&pageSize=10&userId=8&status=Pending,Bogus", "", f.session(t, 1))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, env.EC)
	page := env.DT.(map[string]any)
	assert.EqualValues(t, 21, page["totalRows"])
	assert.EqualValues(t, 3, page["totalPages"])
	assert.Equal(t, shop.BillFilter{UserID: 8, Statuses: []shop.BillStatus{shop.BillPending}, Limit: 10, Offset: 10}, f.bills.filter)
}

func TestCreateBillDefaultsToCaller(t *testing.T) {
	f := newFixture(t)
	_, env := f.do(t, http.MethodPost, "/api/bill/create",
		`{"amount":"120.50","type":"RECEIVED","colorSizeData":[{"colorSizeId":5,"total":2}]}`, f.session(t, 1))
	require.Equal(t, 0, env.EC, env.EM)
	assert.Equal(t, "Create bill completed!", env.EM)
	assert.EqualValues(t, 42, env.DT)
	assert.Equal(t, int64(8), f.bills.created.UserID)
	assert.Equal(t, []shop.LineInput{{ColorSizeID: 5, Total: 2}}, f.bills.created.Lines)

	rec, _ := f.do(t, http.MethodPost, "/api/bill/create", `{"colorSizeData":[]}`, f.session(t, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSettledBill(t *testing.T) {
	f := newFixture(t)
	f.bills.deleteErr = shop.ErrBillSettled
	_, env := f.do(t, http.MethodDelete, "/api/bill/delete?id=4", "", f.session(t, 1))
	assert.Equal(t, -1, env.EC)
	assert.Equal(t, shop.ErrBillSettled.Error(), env.EM)
}

func TestClothesCatalogueCache(t *testing.T) {
	f := newFixture(t)
	cached, err := json.Marshal(f.catalog.list)
	require.NoError(t, err)

	f.redis.ExpectGet(redisx.KeyCatalog).RedisNil()
	f.redis.ExpectSet(redisx.KeyCatalog, cached, redisx.TTLCatalog).SetVal("OK")
	f.redis.ExpectGet(redisx.KeyCatalog).SetVal(string(cached))

	_, env := f.do(t, http.MethodGet, "/api/clothes/get?type=ALL", "")
	require.Equal(t, 0, env.EC)
	_, env = f.do(t, http.MethodGet, "/api/clothes/get?type=ALL", "")
	require.Equal(t, 0, env.EC)
	require.Len(t, env.DT, 1)

	assert.Equal(t, 1, f.catalog.listed)
	require.NoError(t, f.redis.ExpectationsWereMet())
}

func TestCreateClothesInvalidatesCache(t *testing.T) {
	f := newFixture(t)
	f.redis.ExpectDel(redisx.KeyCatalog).SetVal(1)

	_, env := f.do(t, http.MethodPost, "/api/clothes/create",
		`{"name":"Shirt","price":"10.00","type":"shirt","category":"men","stockData":[{"color":"Blue","size":"L","stock":4}]}`,
		f.session(t, 1))
	require.Equal(t, 0, env.EC, env.EM)
	assert.Equal(t, "Shirt", f.catalog.created.Name)
	require.Len(t, f.catalog.created.StockData, 1)
	require.NoError(t, f.redis.ExpectationsWereMet())
}

func TestGetReviews(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodGet, "/api/review/get?type=ALL", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, -1, env.EC)

	_, env = f.do(t, http.MethodGet, "/api/review/get?type=ALL&clothesId=2", "")
	require.Equal(t, 0, env.EC, env.EM)
	assert.Equal(t, "Get review completed!", env.EM)
	require.Len(t, env.DT, 1)
	assert.Equal(t, shop.ReviewFilter{ClothesID: 2}, f.reviews.filter)

	_, env = f.do(t, http.MethodGet, "/api/review/get?type=PAGINATION&clothesId=2&page=3&pageSize=5&star=4", "")
	require.Equal(t, 0, env.EC, env.EM)
	page := env.DT.(map[string]any)
	assert.EqualValues(t, 13, page["rowCount"])
	assert.Equal(t, shop.ReviewFilter{ClothesID: 2, Star: 4, Limit: 5, Offset: 10}, f.reviews.filter)

	_, env = f.do(t, http.MethodGet, "/api/review/get?type=SINGLE&id=99", "")
	assert.Equal(t, 1, env.EC)
}

func TestCreateReviewUsesCaller(t *testing.T) {
	f := newFixture(t)
	body := `{"userId":1,"clothesId":2,"content":"fits well","star":5}`

	rec, env := f.do(t, http.MethodPost, "/api/review/create", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 401, env.EC)

	_, env = f.do(t, http.MethodPost, "/api/review/create", body, f.session(t, 1))
	require.Equal(t, 0, env.EC, env.EM)
	assert.Equal(t, "Create review completed!", env.EM)
	assert.EqualValues(t, 6, env.DT)
	assert.Equal(t, int64(8), f.reviews.created.UserID)
	assert.Equal(t, 5, f.reviews.created.Star)

	rec, env = f.do(t, http.MethodPost, "/api/review/create", `{"clothesId":2,"content":"x","star":6}`, f.session(t, 1))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, -1, env.EC)

	f.reviews.createErr = shop.ErrAlreadyReviewed
	_, env = f.do(t, http.MethodPost, "/api/review/create", body, f.session(t, 1))
	assert.Equal(t, -1, env.EC)
	assert.Equal(t, "You have rated this product before!", env.EM)
}

func TestUpdateAndDeleteReview(t *testing.T) {
	f := newFixture(t)

	_, env := f.do(t, http.MethodPut, "/api/review/update", `{"id":6,"content":"still good","star":4}`, f.session(t, 1))
	require.Equal(t, 0, env.EC, env.EM)
	assert.Equal(t, "Update review completed!", env.EM)

	f.reviews.updateErr = shop.ErrReviewNotFound
	_, env = f.do(t, http.MethodPut, "/api/review/update", `{"id":7,"content":"gone","star":4}`, f.session(t, 1))
	assert.Equal(t, -1, env.EC)
	assert.Equal(t, "Review not found!", env.EM)

	rec, env := f.do(t, http.MethodDelete, "/api/review/delete", "", f.session(t, 1))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing parameter!", env.EM)

	_, env = f.do(t, http.MethodDelete, "/api/review/delete?id=6", "", f.session(t, 1))
	require.Equal(t, 0, env.EC, env.EM)
	assert.Equal(t, int64(6), f.reviews.deleted)
}
