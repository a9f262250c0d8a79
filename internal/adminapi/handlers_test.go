package adminapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"filestore-consensus/internal/clock"
	"filestore-consensus/internal/coordinator"
	"filestore-consensus/internal/replica"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testRouter(t *testing.T) (router http.Handler, apiKey string) {
	t.Helper()
	apiKey = "test-key"
	hash, err := HashAPIKey(apiKey)
	if err != nil {
		t.Fatalf("hash api key: %v", err)
	}

	replicas := []*replica.Replica{
		replica.New(replica.Config{ID: 1, Weight: 1}, rand.New(rand.NewSource(1)), discardLogger()),
		replica.New(replica.Config{ID: 2, Weight: 1}, rand.New(rand.NewSource(2)), discardLogger()),
	}
	coord := coordinator.New(replicas, clock.NewManual(0), discardLogger())

	router = NewRouter(coord, Config{JWTSecret: "secret", TokenTTL: 3600, APIKeyHash: hash}, discardLogger())
	return router, apiKey
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLoginThenStatusRequiresToken(t *testing.T) {
	router, apiKey := testRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/cluster/status", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}

	loginRec := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{"api_key": apiKey})
	if loginRec.Code != http.StatusOK {
		t.Fatalf("expected login to succeed, got %d: %s", loginRec.Code, loginRec.Body.String())
	}
	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(loginRec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if loginResp.Token == "" {
		t.Fatal("expected a non-empty token")
	}

	statusRec := doJSON(t, router, http.MethodGet, "/cluster/status", loginResp.Token, nil)
	if statusRec.Code != http.StatusOK {
		t.Fatalf("expected status to succeed with a valid token, got %d", statusRec.Code)
	}
}

func TestLoginRejectsWrongAPIKey(t *testing.T) {
	router, _ := testRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{"api_key": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a wrong api key, got %d", rec.Code)
	}
}

func TestUpdateEndpointRejectsInvalidArtifact(t *testing.T) {
	router, apiKey := testRouter(t)
	loginRec := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{"api_key": apiKey})
	var loginResp struct {
		Token string `json:"token"`
	}
	json.Unmarshal(loginRec.Body.Bytes(), &loginResp)

	rec := doJSON(t, router, http.MethodPost, "/consensus/update", loginResp.Token, map[string]any{
		"name": "f.bin", "content": "x", "version": 1,
		"ack_timeout_ms": 10, "retry_period_ms": 5,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a non-.txt artifact, got %d: %s", rec.Code, rec.Body.String())
	}
}
