package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{EmptyTitle(), http.StatusBadRequest},
		{WeakPassword("too_short", "short"), http.StatusBadRequest},
		{InvalidCredentials(), http.StatusBadRequest},
		{NotFound("Todo"), http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", NotFound("Todo")), http.StatusNotFound},
		{Unauthorized(""), http.StatusUnauthorized},
		{Forbidden(), http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := Status(tt.err); got != tt.want {
			t.Errorf("Status(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestIsMatchesCodeAndReason(t *testing.T) {
	err := WeakPassword("no_digit", "Password must contain at least one number.")
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatal("expected match by code")
	}
	if !errors.Is(err, &Error{Code: CodeWeakPassword, Reason: "no_digit"}) {
		t.Fatal("expected match by code and reason")
	}
	if errors.Is(err, &Error{Code: CodeWeakPassword, Reason: "too_short"}) {
		t.Fatal("reason mismatch should not match")
	}
}

func serve(t *testing.T, handler gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/", handler)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRespondHidesInternalErrors(t *testing.T) {
	rec := serve(t, func(c *gin.Context) {
		Respond(c, log.New(io.Discard, "", 0), errors.New("db password leaked"))
	}, "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "leaked") {
		t.Fatalf("internal error must not be echoed: %s", rec.Body.String())
	}
}

func TestRespondWeakPasswordBody(t *testing.T) {
	rec := serve(t, func(c *gin.Context) {
		Respond(c, nil, WeakPassword("no_uppercase", "Password must contain at least one uppercase letter."))
	}, "")
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["code"] != "WEAK_PASSWORD" || body["reason"] != "no_uppercase" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if _, ok := body["fields"].(map[string]any)["password"]; !ok {
		t.Fatalf("expected password field error: %s", rec.Body.String())
	}
}

func TestBindJSONReportsJSONFieldNames(t *testing.T) {
	type request struct {
		EmailAddress string `json:"email" binding:"required"`
		Title        string `json:"title" binding:"max=3"`
	}
	rec := serve(t, func(c *gin.Context) {
		var req request
		if err := BindJSON(c, &req); err != nil {
			Respond(c, nil, err)
			return
		}
		c.Status(http.StatusOK)
	}, `{"title":"long"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var body struct {
		Code   string              `json:"code"`
		Fields map[string][]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Code != "INVALID_INPUT" || len(body.Fields["email"]) != 1 || len(body.Fields["title"]) != 1 {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestBindJSONEmptyBody(t *testing.T) {
	type request struct {
		Title *string `json:"title" binding:"omitempty,max=3"`
	}
	rec := serve(t, func(c *gin.Context) {
		var req request
		if err := BindJSON(c, &req); err != nil {
			Respond(c, nil, err)
			return
		}
		c.Status(http.StatusOK)
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("empty body should bind as {}: %d %s", rec.Code, rec.Body.String())
	}
}
