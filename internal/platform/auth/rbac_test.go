package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runWithRoles(t *testing.T, roles []string, required ...string) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), "u-1", roles))
	c := e.NewContext(req, httptest.NewRecorder())
	return RequireRole(required...)(okHandler)(c)
}

func TestRequireRole_Allowed(t *testing.T) {
	if err := runWithRoles(t, []string{RoleReceptionist}, RoleDoctor, RoleReceptionist); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	err := runWithRoles(t, []string{RoleReceptionist}, RoleDoctor)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestRequireRole_NoUser(t *testing.T) {
	if err := runWithRoles(t, nil, RoleDoctor); err == nil {
		t.Fatal("expected an anonymous request to be denied")
	}
}

func TestRequireRole_AdminBypass(t *testing.T) {
	if err := runWithRoles(t, []string{RoleAdmin}, RoleDoctor); err != nil {
		t.Fatalf("expected admin to pass, got %v", err)
	}
}

func TestHasRole(t *testing.T) {
	tests := []struct {
		granted  []string
		required []string
		want     bool
	}{
		{[]string{RoleDoctor}, []string{RoleDoctor}, true},
		{[]string{RoleDoctor}, []string{RoleReceptionist}, false},
		{[]string{RoleAdmin}, []string{RoleReceptionist}, true},
		{nil, []string{RoleDoctor}, false},
		{[]string{RoleDoctor}, nil, false},
	}
	for _, tt := range tests {
		if got := HasRole(tt.granted, tt.required...); got != tt.want {
			t.Errorf("HasRole(%v, %v) = %v, want %v", tt.granted, tt.required, got, tt.want)
		}
	}
}

func TestUserIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if uid := UserIDFromContext(req.Context()); uid != "" {
		t.Errorf("expected empty user id, got %q", uid)
	}
}
