package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Bourhlef-Y/fivemarket/internal/models"
	"github.com/Bourhlef-Y/fivemarket/internal/repo"
	"github.com/Bourhlef-Y/fivemarket/internal/service"
	"github.com/Bourhlef-Y/fivemarket/internal/tokens"
	"github.com/Bourhlef-Y/fivemarket/internal/transport"
	"github.com/Bourhlef-Y/fivemarket/internal/validate"
)

var testJWTSecret = []byte("test-jwt-secret")

type testEnv struct {
	E    *echo.Echo
	Repo *repo.GormRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	r := &repo.GormRepo{DB: db}

	resourceSvc := &service.ResourceService{Repo: r, Limits: validate.DefaultLimits()}
	e := echo.New()
	Register(e, &Deps{
		AuthHandler:     &AuthHTTP{Svc: &service.AuthService{Repo: r, JWTSecret: testJWTSecret, RefreshSecret: []byte("test-refresh-secret")}},
		ResourceHandler: &ResourceHTTP{Svc: resourceSvc},
		ListingHandler:  &ListingHTTP{Svc: &service.ListingService{Repo: r}},
		CartHandler:     &CartHTTP{Svc: &service.CartService{Repo: r}},
		OrderHandler:    &OrderHTTP{Svc: &service.OrderService{Repo: r}, PaymentSynchronous: true},
		SellerHandler:   &SellerHTTP{Svc: &service.SellerService{Repo: r, PlatformCommission: 0.20}},
		JWTSecret:       testJWTSecret,
	})

	return &testEnv{E: e, Repo: r}
}

func accessCookie(t *testing.T, actor models.Actor) *http.Cookie {
	t.Helper()

	token, err := tokens.SignAccess(actor.ID.String(), actor.Role, testJWTSecret, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return &http.Cookie{Name: "accessToken", Value: token, Path: "/"}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func seedApproved(t *testing.T, r *repo.GormRepo, author models.Actor, price float64) *models.Resource {
	t.Helper()

	res := &models.Resource{
		AuthorID:    author.ID,
		Title:       "Police MDT",
		Description: strings.Repeat("A complete description of this resource. ", 3),
		Price:       price,
		Type:        models.TypeDirect,
		Framework:   "ESX",
		Category:    "Police",
		Status:      models.StatusApproved,
		FileURL:     "https://files.example.com/police-mdt.zip",
		Images: []models.ResourceImage{
			{URL: "https://cdn.example.com/shot.png", IsThumbnail: true, Position: 0},
		},
	}
	require.NoError(t, r.CreateResource(context.Background(), res))
	return res
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListing_PublicAndApprovedOnly(t *testing.T) {
	env := newTestEnv(t)
	seller := models.Actor{ID: uuid.New(), Role: models.RoleSeller}
	seedApproved(t, env.Repo, seller, 10)

	// One draft that must never appear.
	draft := seedApproved(t, env.Repo, seller, 99)
	require.NoError(t, env.Repo.DB.Model(draft).Update("status", models.StatusDraft).Error)

	rec := env.do(t, http.MethodGet, "/resources", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.Resource `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.Meta.Total)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, models.StatusApproved, resp.Data[0].Status)
}

func TestListing_UnknownFacetIs400WithFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/resources?framework=RedM", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation", resp.Error)
	assert.Contains(t, resp.Fields, "framework")
}

func TestResourceCreate_AuthRequired(t *testing.T) {
	env := newTestEnv(t)

	body := transport.CreateResourceRequest{
		Title:       "Police MDT",
		Description: strings.Repeat("A complete description of this resource. ", 3),
		Price:       24.99,
		Type:        "direct",
	}

	rec := env.do(t, http.MethodPost, "/resources", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	buyer := models.Actor{ID: uuid.New(), Role: models.RoleBuyer}
	rec = env.do(t, http.MethodPost, "/resources", body, accessCookie(t, buyer))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	seller := models.Actor{ID: uuid.New(), Role: models.RoleSeller}
	rec = env.do(t, http.MethodPost, "/resources", body, accessCookie(t, seller))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Resource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.StatusDraft, created.Status)
	assert.Equal(t, seller.ID, created.AuthorID)
}

func TestCart_AddCheckoutFlow(t *testing.T) {
	env := newTestEnv(t)
	seller := models.Actor{ID: uuid.New(), Role: models.RoleSeller}
	res := seedApproved(t, env.Repo, seller, 24.99)
	buyer := models.Actor{ID: uuid.New(), Role: models.RoleBuyer}
	cookie := accessCookie(t, buyer)

	rec := env.do(t, http.MethodPost, "/cart", transport.AddToCartRequest{ResourceID: res.ID}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	var cart service.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.EqualValues(t, 1, cart.ItemCount)
	assert.InDelta(t, 24.99, cart.Total, 1e-9)

	// Synchronous payment completes the order in one call.
	rec = env.do(t, http.MethodPost, "/orders/checkout", transport.CheckoutRequest{
		Items: []transport.CheckoutLineRequest{{ResourceID: res.ID}},
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	var orders []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderCompleted, orders[0].Status)

	// The cart line was consumed by the purchase.
	rec = env.do(t, http.MethodGet, "/cart", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Zero(t, cart.ItemCount)

	rec = env.do(t, http.MethodGet, "/orders/"+orders[0].ID.String()+"/download", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var dl map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dl))
	assert.Equal(t, res.FileURL, dl["download_url"])
}

func TestModeration_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	seller := models.Actor{ID: uuid.New(), Role: models.RoleSeller}
	res := seedApproved(t, env.Repo, seller, 10)
	require.NoError(t, env.Repo.DB.Model(res).Update("status", models.StatusPending).Error)

	rec := env.do(t, http.MethodPost, "/resources/"+res.ID.String()+"/approve", nil, accessCookie(t, seller))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := models.Actor{ID: uuid.New(), Role: models.RoleAdmin}
	rec = env.do(t, http.MethodPost, "/resources/"+res.ID.String()+"/approve", nil, accessCookie(t, admin))
	require.Equal(t, http.StatusOK, rec.Code)

	var approved models.Resource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approved))
	assert.Equal(t, models.StatusApproved, approved.Status)
}
