package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marais-jewelry/marais-backend/internal/cart"
	"github.com/marais-jewelry/marais-backend/internal/checkout"
	pkgAuth "github.com/marais-jewelry/marais-backend/pkg/auth"
	"github.com/marais-jewelry/marais-backend/pkg/config"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCheckout struct {
	owners []cart.Owner
}

func (s *stubCheckout) Settle(_ context.Context, owner cart.Owner) (*checkout.Result, error) {
	s.owners = append(s.owners, owner)
	return nil, checkout.ErrEmptyCart
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "marais", ExpirationMinutes: 10},
		Storefront: config.StorefrontConfig{
			SessionCookie: "session_key",
		},
	}
}

func newTestRouter(t *testing.T, checkoutSvc checkout.Service) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "marais_test_total", Help: "test"}))
	return NewRouter(testConfig(), logger.New(logger.Options{ServiceName: "router-test"}), Deps{
		DB:       stubPinger{},
		Redis:    stubPinger{},
		Gatherer: reg,
	}, Services{Checkout: checkoutSvc})
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)
	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rec.Code)
		}
	}
}

func TestMetricsEndpointExposesRegistry(t *testing.T) {
	router := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "marais_test_total") {
		t.Fatalf("expected registered metric in scrape output")
	}
}

func TestCheckoutEmptyCartRedirectsToCart(t *testing.T) {
	stub := &stubCheckout{}
	router := newTestRouter(t, stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.Header.Set("X-Session-Key", "guest-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/api/v1/cart" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	if len(stub.owners) != 1 || stub.owners[0].SessionKey != "guest-1" || stub.owners[0].UserID != nil {
		t.Fatalf("expected anonymous owner from session header, got %+v", stub.owners)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	router := newTestRouter(t, nil)
	cfg := testConfig()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous caller, got %d", rec.Code)
	}

	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleCustomer})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", rec.Code)
	}
}

func TestProfileRequiresSignedInUser(t *testing.T) {
	router := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
