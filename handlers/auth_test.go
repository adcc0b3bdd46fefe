package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-core/models"

	"github.com/gin-gonic/gin"
)

func newAuthRouter() (*AuthHandler, *captureMailer, *gin.Engine) {
	mailer := newCaptureMailer()
	h := &AuthHandler{DB: freshDB(), Mailer: mailer}
	return h, mailer, setupAuthRouter(h)
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestSignUpThenVerify(t *testing.T) {
	_, mailer, router := newAuthRouter()
	creds := map[string]interface{}{"email": "new@test.com", "password": "password123"}

	w := serve(router, jsonRequest("POST", "/auth/v1/signup", creds))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if resp := parseResponse(w); resp["email"] != "new@test.com" {
		t.Errorf("expected email in response, got %v", resp)
	}

	w = serve(router, jsonRequest("POST", "/auth/v1/token?grant_type=password", creds))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected unconfirmed sign-in to fail with 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp["msg"] != "Email not confirmed" {
		t.Errorf("unexpected message %v", resp["msg"])
	}

	code := mailer.code("new@test.com", "signup")
	if len(code) != 6 {
		t.Fatalf("expected a 6-digit code, got %q", code)
	}
	w = serve(router, jsonRequest("POST", "/auth/v1/verify", map[string]interface{}{"email": "new@test.com", "token": code, "type": "signup"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["access_token"] == "" || resp["access_token"] == nil {
		t.Error("expected an access token")
	}
	if resp["expires_in"].(float64) != 3600 {
		t.Errorf("expected expires_in 3600, got %v", resp["expires_in"])
	}

	w = serve(router, jsonRequest("POST", "/auth/v1/token?grant_type=password", creds))
	if w.Code != http.StatusOK {
		t.Fatalf("expected sign-in after confirmation, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSignUpExistingConfirmedUser(t *testing.T) {
	h, _, router := newAuthRouter()
	seedTestUser(h.DB, "taken@test.com")

	w := serve(router, jsonRequest("POST", "/auth/v1/signup", map[string]interface{}{"email": "taken@test.com", "password": "password123"}))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSignUpShortPassword(t *testing.T) {
	_, _, router := newAuthRouter()

	w := serve(router, jsonRequest("POST", "/auth/v1/signup", map[string]interface{}{"email": "short@test.com", "password": "abc"}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestTokenInvalidCredentials(t *testing.T) {
	h, _, router := newAuthRouter()
	seedTestUser(h.DB, "login@test.com")

	w := serve(router, jsonRequest("POST", "/auth/v1/token?grant_type=password", map[string]interface{}{"email": "login@test.com", "password": "wrongpassword"}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
	if resp := parseResponse(w); resp["msg"] != "Invalid login credentials" {
		t.Errorf("unexpected message %v", resp["msg"])
	}
}

func TestTokenUnsupportedGrant(t *testing.T) {
	_, _, router := newAuthRouter()

	w := serve(router, jsonRequest("POST", "/auth/v1/token?grant_type=refresh_token", map[string]interface{}{}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVerifyWrongCodeThenTooManyAttempts(t *testing.T) {
	h, mailer, router := newAuthRouter()
	seedTestUser(h.DB, "guess@test.com")

	w := serve(router, jsonRequest("POST", "/auth/v1/otp", map[string]interface{}{"email": "guess@test.com"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	bad := wrongCode(mailer.code("guess@test.com", "email"))
	body := map[string]interface{}{"email": "guess@test.com", "token": bad, "type": "email"}

	for i := 0; i < models.MaxOTPAttempts; i++ {
		w = serve(router, jsonRequest("POST", "/auth/v1/verify", body))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("attempt %d: expected status 400, got %d: %s", i+1, w.Code, w.Body.String())
		}
	}

	w = serve(router, jsonRequest("POST", "/auth/v1/verify", body))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVerifyExpiredCode(t *testing.T) {
	h, mailer, router := newAuthRouter()
	seedTestUser(h.DB, "late@test.com")

	serve(router, jsonRequest("POST", "/auth/v1/otp", map[string]interface{}{"email": "late@test.com"}))
	code := mailer.code("late@test.com", "email")

	h.Now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	w := serve(router, jsonRequest("POST", "/auth/v1/verify", map[string]interface{}{"email": "late@test.com", "token": code, "type": "email"}))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVerifyTypeMismatch(t *testing.T) {
	h, mailer, router := newAuthRouter()
	seedTestUser(h.DB, "kind@test.com")

	serve(router, jsonRequest("POST", "/auth/v1/recover", map[string]interface{}{"email": "kind@test.com"}))
	code := mailer.code("kind@test.com", "recovery")

	w := serve(router, jsonRequest("POST", "/auth/v1/verify", map[string]interface{}{"email": "kind@test.com", "token": code, "type": "email"}))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVerifyCodeIsSingleUse(t *testing.T) {
	h, mailer, router := newAuthRouter()
	seedTestUser(h.DB, "once@test.com")

	serve(router, jsonRequest("POST", "/auth/v1/otp", map[string]interface{}{"email": "once@test.com"}))
	body := map[string]interface{}{"email": "once@test.com", "token": mailer.code("once@test.com", "email"), "type": "email"}

	if w := serve(router, jsonRequest("POST", "/auth/v1/verify", body)); w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := serve(router, jsonRequest("POST", "/auth/v1/verify", body)); w.Code != http.StatusBadRequest {
		t.Fatalf("expected reused code to fail with 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRecoverUnknownEmail(t *testing.T) {
	_, mailer, router := newAuthRouter()

	w := serve(router, jsonRequest("POST", "/auth/v1/recover", map[string]interface{}{"email": "ghost@test.com"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if mailer.sent != 0 {
		t.Errorf("expected no email for an unknown address, got %d", mailer.sent)
	}
}

func TestRecoveryUpdatesPassword(t *testing.T) {
	h, mailer, router := newAuthRouter()
	seedTestUser(h.DB, "forgot@test.com")

	serve(router, jsonRequest("POST", "/auth/v1/recover", map[string]interface{}{"email": "forgot@test.com"}))
	code := mailer.code("forgot@test.com", "recovery")

	w := serve(router, jsonRequest("POST", "/auth/v1/verify", map[string]interface{}{"email": "forgot@test.com", "token": code, "type": "recovery"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	token, _ := parseResponse(w)["access_token"].(string)

	w = serve(router, authRequest("PUT", "/auth/v1/user", map[string]interface{}{"password": "brand-new-pass"}, token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(router, jsonRequest("POST", "/auth/v1/token?grant_type=password", map[string]interface{}{"email": "forgot@test.com", "password": "brand-new-pass"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected sign-in with the new password, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUpdateUserRequiresSession(t *testing.T) {
	_, _, router := newAuthRouter()

	w := serve(router, jsonRequest("PUT", "/auth/v1/user", map[string]interface{}{"password": "brand-new-pass"}))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", w.Code, w.Body.String())
	}
}
