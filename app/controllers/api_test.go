package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/app/repository"
	"github.com/ManuelReschke/LinkFox/internal/pkg/billing"
	"github.com/ManuelReschke/LinkFox/internal/pkg/database"
	"github.com/ManuelReschke/LinkFox/internal/pkg/mail"
	"github.com/ManuelReschke/LinkFox/internal/pkg/membership"
	"github.com/ManuelReschke/LinkFox/internal/pkg/security"
	"github.com/ManuelReschke/LinkFox/internal/pkg/usercontext"
)

type recordingMailer struct {
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type apiFixture struct {
	api    *API
	app    *fiber.App
	mailer *recordingMailer
	now    time.Time
}

// newAPIFixture mounts the handlers behind a stub that trusts the X-Test-User header.
func newAPIFixture(t *testing.T, settings Settings) *apiFixture {
	t.Helper()
	f := &apiFixture{now: time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC), mailer: &recordingMailer{}}
	repos := repository.NewRepositories(database.NewTestDB(t))
	members := membership.NewService(repos, membership.Config{}, membership.WithClock(func() time.Time { return f.now }))
	gw := billing.NewSandboxGateway()
	payments := billing.NewService(repos, members, gw, &billing.StatusVerifier{Gateway: gw}, billing.Options{})
	tokens, err := security.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	if settings.PublicDomain == "" {
		settings.PublicDomain = "http://lfx.test/"
	}
	f.api = NewAPI(repos, members, payments, tokens, nil, f.mailer, settings)

	asUser := func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Get("X-Test-User"), &id); err != nil || id == 0 {
			return errorJSON(c, fiber.StatusUnauthorized, "unauthorized", "no test user")
		}
		usercontext.Set(c, usercontext.UserContext{UserID: id, IsLoggedIn: true, IsAdmin: c.Get("X-Test-Admin") == "1"})
		return c.Next()
	}

	app := fiber.New()
	app.Get("/ping", f.api.HandlePing)
	app.Post("/register", f.api.HandleRegister)
	app.Post("/login", f.api.HandleLogin)
	app.Get("/plans", f.api.HandleListPlans)
	app.Get("/redirect/:code", f.api.HandleResolve)
	app.Get("/r/:code", f.api.HandleRedirect)
	app.Post("/contact", f.api.HandleContact)
	app.Post("/payment-webhook", f.api.HandlePaymentWebhook)
	app.Post("/generate-api-key", asUser, f.api.HandleGenerateAPIKey)
	app.Post("/shorten-url", asUser, f.api.HandleShortenURL)
	app.Get("/urls", asUser, f.api.HandleListURLs)
	app.Get("/membership-plan", asUser, f.api.HandleMembershipPlan)
	app.Post("/upgrade-plan", asUser, f.api.HandleUpgradePlan)
	app.Post("/create-order", asUser, f.api.HandleCreateOrder)
	app.Post("/verify-payment", asUser, f.api.HandleVerifyPayment)
	app.Get("/payments", asUser, f.api.HandleListPayments)
	f.app = app
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, userID uint, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-Test-User", fmt.Sprint(userID))
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (f *apiFixture) register(t *testing.T, name string) uint {
	t.Helper()
	status, body := f.do(t, "POST", "/register", 0, fiber.Map{
		"username": name, "email": name + "@example.com", "password": "secret123",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	return uint(body["id"].(float64))
}

func TestRespondErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{&membership.QuotaError{Reason: membership.DenyDailyLimit}, 403, "quota_denied"},
		{&membership.ValidationError{Field: "url", Reason: "bad"}, 400, "validation_error"},
		{membership.ErrInvalidDays, 400, "validation_error"},
		{fmt.Errorf("%w: amount", billing.ErrInvalidInput), 400, "bad_request"},
		{&billing.VerificationError{Reason: "signature mismatch"}, 400, "payment_not_verified"},
		{membership.ErrInvalidCredentials, 401, "unauthorized"},
		{billing.ErrInvalidSignature, 401, "unauthorized"},
		{billing.ErrForbidden, 403, "forbidden"},
		{membership.ErrPlanNotFound, 404, "not_found"},
		{membership.ErrLinkNotFound, 404, "not_found"},
		{membership.ErrNoWindow, 404, "not_found"},
		{billing.ErrPaymentNotFound, 404, "not_found"},
		{membership.ErrConflict, 409, "conflict"},
		{fmt.Errorf("%w: verify", billing.ErrGatewayTimeout), 504, "gateway_timeout"},
		{fmt.Errorf("%w: create", billing.ErrGatewayUnavailable), 502, "gateway_unavailable"},
		{membership.ErrCodeSpaceExhausted, 500, "internal_server_error"},
		{errors.New("db down"), 500, "internal_server_error"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.code+"_"+tc.err.Error(), func(t *testing.T) {
			t.Parallel()
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondError(c, tc.err) })
			resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, body["error"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestQuotaDenialCarriesReason(t *testing.T) {
	f := newAPIFixture(t, Settings{})
	uid := f.register(t, "alice")

	for i := 0; i < 5; i++ {
		status, body := f.do(t, "POST", "/shorten-url", uid, fiber.Map{"url": fmt.Sprintf("https://example.com/%d", i)})
		require.Equal(t, fiber.StatusCreated, status, body)
	}
	status, body := f.do(t, "POST", "/shorten-url", uid, fiber.Map{"url": "https://example.com/6"})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "daily_limit_reached", body["reason"])
	assert.Equal(t, "Daily URL limit reached. Try again tomorrow.", body["message"])
}

func TestShortenAndResolve(t *testing.T) {
	f := newAPIFixture(t, Settings{})
	uid := f.register(t, "alice")

	status, body := f.do(t, "POST", "/shorten-url", uid, fiber.Map{"url": "https://example.com/a?b=c"})
	require.Equal(t, fiber.StatusCreated, status, body)
	code := body["shortCode"].(string)
	assert.Equal(t, "http://lfx.test/r/"+code, body["shortUrl"])

	status, body = f.do(t, "GET", "/redirect/"+code, 0, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "https://example.com/a?b=c", body["originalUrl"])

	resp, err := f.app.Test(httptest.NewRequest("GET", "/r/"+code, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://example.com/a?b=c", resp.Header.Get("Location"))

	status, _ = f.do(t, "GET", "/redirect/nope123", 0, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = f.do(t, "GET", "/urls", uid, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])
	require.Len(t, body["urls"], 1)
}

func TestShortenRejectsBadInput(t *testing.T) {
	f := newAPIFixture(t, Settings{})
	uid := f.register(t, "alice")

	status, body := f.do(t, "POST", "/shorten-url", uid, fiber.Map{"url": "ftp://example.com"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body["error"])

	status, _ = f.do(t, "POST", "/shorten-url", uid, fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAPIFixture(t, Settings{})
	f.register(t, "alice")

	status, body := f.do(t, "POST", "/register", 0, fiber.Map{
		"username": "alice", "email": "other@example.com", "password": "secret123",
	})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "conflict", body["error"])

	status, _ = f.do(t, "POST", "/register", 0, fiber.Map{"username": "bob"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = f.do(t, "POST", "/login", 0, fiber.Map{"email": "alice@example.com", "password": "secret123"})
	require.Equal(t, fiber.StatusOK, status)
	tok := body["token"].(string)
	id, err := f.api.Tokens.Validate(tok)
	require.NoError(t, err)
	assert.NotZero(t, id)

	status, _ = f.do(t, "POST", "/login", 0, fiber.Map{"email": "alice@example.com", "password": "wrong-pass"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestGenerateAPIKeyRevokesPrevious(t *testing.T) {
	f := newAPIFixture(t, Settings{})
	uid := f.register(t, "alice")

	_, first := f.do(t, "POST", "/generate-api-key", uid, nil)
	_, second := f.do(t, "POST", "/generate-api-key", uid, nil)
	rawFirst, rawSecond := first["apiKey"].(string), second["apiKey"].(string)
	assert.NotEqual(t, rawFirst, rawSecond)
	assert.True(t, models.IsAPIKeyFormat(rawSecond))

	ctx := context.Background()
	_, _, err := f.api.Repos.APIKey.GetUserByKeyHash(ctx, models.HashAPIKey(rawFirst))
	assert.True(t, repository.IsNotFound(err))
	user, _, err := f.api.Repos.APIKey.GetUserByKeyHash(ctx, models.HashAPIKey(rawSecond))
	require.NoError(t, err)
	assert.Equal(t, uid, user.ID)
}

func TestMembershipPlanView(t *testing.T) {
	f := newAPIFixture(t, Settings{})
	uid := f.register(t, "alice")
	f.do(t, "POST", "/shorten-url", uid, fiber.Map{"url": "https://example.com"})

	status, body := f.do(t, "GET", "/membership-plan", uid, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Free", body["planName"])
	assert.EqualValues(t, 4, body["urlsRemainingToday"])
	assert.EqualValues(t, 49, body["urlsRemainingMonth"])
	assert.EqualValues(t, 30, body["daysRemaining"])

	f.now = f.now.AddDate(0, 0, 30)
	status, body = f.do(t, "GET", "/membership-plan", uid, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "plan_expired", body["error"])
}

func TestUpgradePlanRequiresPermission(t *testing.T) {
	f := newAPIFixture(t, Settings{})
	uid := f.register(t, "alice")

	status, _ := f.do(t, "POST", "/upgrade-plan", uid, fiber.Map{"planId": 2, "days": 10})
	assert.Equal(t, fiber.StatusForbidden, status)

	open := newAPIFixture(t, Settings{AllowDirectUpgrade: true})
	uid = open.register(t, "alice")
	status, body := open.do(t, "POST", "/upgrade-plan", uid, fiber.Map{"planId": 2, "daysActive": 10})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "Plan upgraded to Basic", body["message"])

	status, _ = open.do(t, "POST", "/upgrade-plan", uid, fiber.Map{"planId": 99, "days": 10})
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = open.do(t, "POST", "/upgrade-plan", uid, fiber.Map{"planId": 2, "days": -3})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestOrderAndVerifyFlow(t *testing.T) {
	f := newAPIFixture(t, Settings{})
	uid := f.register(t, "alice")

	status, body := f.do(t, "POST", "/create-order", uid, fiber.Map{"amount": 499, "planId": 2})
	require.Equal(t, fiber.StatusOK, status, body)
	orderID := body["order_id"].(string)
	assert.EqualValues(t, 49900, body["amount"])

	status, body = f.do(t, "POST", "/verify-payment", uid, fiber.Map{"orderId": orderID})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "Payment verified and plan upgraded successfully", body["message"])
	assert.Equal(t, false, body["replayed"])

	status, body = f.do(t, "POST", "/verify-payment", uid, fiber.Map{"orderId": orderID})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Payment already verified", body["message"])
	assert.Equal(t, true, body["replayed"])

	other := f.register(t, "bob")
	status, _ = f.do(t, "POST", "/verify-payment", other, fiber.Map{"orderId": orderID})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = f.do(t, "POST", "/create-order", uid, fiber.Map{"amount": 0})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = f.do(t, "GET", "/payments", uid, nil)
	require.Equal(t, fiber.StatusOK, status)
	payments := body["payments"].([]interface{})
	require.Len(t, payments, 1)
	first := payments[0].(map[string]interface{})
	assert.Equal(t, orderID, first["orderId"])
	assert.Equal(t, models.PaymentStatusSuccess, first["status"])
	assert.EqualValues(t, 2, first["planId"])
	assert.NotNil(t, first["activatedAt"])

	_, body = f.do(t, "GET", "/payments", other, nil)
	assert.Empty(t, body["payments"])
}

func TestPaymentWebhook(t *testing.T) {
	f := newAPIFixture(t, Settings{})
	uid := f.register(t, "alice")
	_, body := f.do(t, "POST", "/create-order", uid, fiber.Map{"amount": 499})
	orderID := body["order_id"].(string)

	status, body := f.do(t, "POST", "/payment-webhook", 0, fiber.Map{"orderId": orderID, "status": "failed"})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["updated"])
	assert.Equal(t, models.PaymentStatusFailed, body["status"])

	status, _ = f.do(t, "POST", "/payment-webhook", 0, fiber.Map{"status": "paid"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestContactRelay(t *testing.T) {
	f := newAPIFixture(t, Settings{ContactRecipient: "ops@linkfox.test"})
	msg := fiber.Map{"name": "Eve <x>", "email": "eve@example.com", "subject": "Hello\nthere", "message": "line1\nline2"}

	status, _ := f.do(t, "POST", "/contact", 0, msg)
	require.Equal(t, fiber.StatusAccepted, status)
	require.Len(t, f.mailer.sent, 1)
	sent := f.mailer.sent[0]
	assert.Equal(t, "ops@linkfox.test", sent.To)
	assert.Equal(t, "eve@example.com", sent.ReplyTo)
	assert.Equal(t, "[LinkFox contact] Hello there", sent.Subject)
	assert.Contains(t, sent.HTML, "Eve &lt;x&gt;")
	assert.Contains(t, sent.HTML, "line1<br>line2")

	unconfigured := newAPIFixture(t, Settings{})
	status, _ = unconfigured.do(t, "POST", "/contact", 0, msg)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)

	status, _ = f.do(t, "POST", "/contact", 0, fiber.Map{"name": "x"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestPing(t *testing.T) {
	f := newAPIFixture(t, Settings{})
	status, body := f.do(t, "GET", "/ping", 0, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "pong", body["ping"])
}
