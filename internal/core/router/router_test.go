package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireAdminTokenRejectsWhenDisabled(t *testing.T) {
	d := &Deps{AdminToken: func() string { return "" }}
	called := false
	h := d.requireAdminToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/scheduler/", nil)
	h.ServeHTTP(rr, req)

	if called {
		t.Fatal("inner handler should not run when admin surface is disabled")
	}
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
}

func TestRequireAdminTokenRejectsBadToken(t *testing.T) {
	d := &Deps{AdminToken: func() string { return "secret" }}
	h := d.requireAdminToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not run on bad token")
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/scheduler/", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestRequireAdminTokenAcceptsMatchingToken(t *testing.T) {
	d := &Deps{AdminToken: func() string { return "secret" }}
	called := false
	h := d.requireAdminToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/scheduler/", nil)
	req.Header.Set("Authorization", "Bearer secret")
	h.ServeHTTP(rr, req)

	if !called {
		t.Fatal("inner handler should run on matching token")
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestRequireAdminTokenRejectsMissingHeader(t *testing.T) {
	d := &Deps{AdminToken: func() string { return "secret" }}
	h := d.requireAdminToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not run without an Authorization header")
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/scheduler/", nil)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}
