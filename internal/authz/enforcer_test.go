// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package authz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/instadash/internal/auth"
)

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	return e
}

// =====================================================
// Embedded policy
// =====================================================

func TestEnforcer_EmbeddedPolicy(t *testing.T) {
	e := newTestEnforcer(t)

	tests := []struct {
		role   string
		obj    string
		act    string
		expect bool
	}{
		{auth.RoleUser, "/api/v1/accounts", ActionRead, true},
		{auth.RoleUser, "/api/v1/accounts", ActionWrite, true},
		{auth.RoleUser, "/api/v1/accounts/3f1c/logs/stream", ActionRead, true},
		{auth.RoleUser, "/api/v1/accounts/3f1c/logs/stream", ActionWrite, false},
		{auth.RoleUser, "/api/v1/accounts/3f1c/monitoring", ActionWrite, true},
		{auth.RoleUser, "/api/v1/accounts/3f1c/unknown", ActionRead, false},
		{auth.RoleUser, "/api/v1/posts/9/stats", ActionWrite, true},
		{auth.RoleUser, "/api/v1/posts/9", ActionWrite, false},
		{auth.RoleUser, "/api/v1/profile", ActionDelete, false},
		{auth.RoleUser, "/api/v1/workflows/w1/changes", ActionWrite, true},
		{auth.RoleUser, "/api/v1/admin/monitored", ActionRead, false},
		{auth.RoleAdmin, "/api/v1/admin/monitored", ActionRead, true},
		{auth.RoleAdmin, "/api/v1/workflows/w1", ActionDelete, true},
		{"stranger", "/api/v1/accounts", ActionRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.role+" "+tt.act+" "+tt.obj, func(t *testing.T) {
			got, err := e.Enforce(tt.role, tt.obj, tt.act)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if got != tt.expect {
				t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tt.role, tt.obj, tt.act, got, tt.expect)
			}
		})
	}
}

func TestEnforcer_AdminInheritsUser(t *testing.T) {
	e := newTestEnforcer(t)
	roles, err := e.Roles(auth.RoleAdmin)
	if err != nil {
		t.Fatalf("Roles() error = %v", err)
	}
	if len(roles) != 1 || roles[0] != auth.RoleUser {
		t.Errorf("Roles(admin) = %v, want [user]", roles)
	}
}

func TestEnforcer_EnforceRoles(t *testing.T) {
	e := newTestEnforcer(t)
	if ok, _ := e.EnforceRoles(nil, "/api/v1/accounts", ActionRead); ok {
		t.Error("EnforceRoles(no roles) = true, want false")
	}
	if ok, _ := e.EnforceRoles([]string{"stranger", auth.RoleUser}, "/api/v1/accounts", ActionRead); !ok {
		t.Error("EnforceRoles(stranger, user) = false, want true")
	}
}

// =====================================================
// Cache and runtime changes
// =====================================================

func TestEnforcer_CacheInvalidatedByPolicyChange(t *testing.T) {
	e := newTestEnforcer(t)

	if ok, _ := e.Enforce(auth.RoleUser, "/api/v1/reports", ActionRead); ok {
		t.Fatal("unexpected allow before AddPolicy")
	}
	if _, err := e.AddPolicy(auth.RoleUser, "/api/v1/reports", ActionRead); err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}
	if ok, _ := e.Enforce(auth.RoleUser, "/api/v1/reports", ActionRead); !ok {
		t.Error("cached deny survived AddPolicy")
	}
	if _, err := e.RemovePolicy(auth.RoleUser, "/api/v1/reports", ActionRead); err != nil {
		t.Fatalf("RemovePolicy() error = %v", err)
	}
	if ok, _ := e.Enforce(auth.RoleUser, "/api/v1/reports", ActionRead); ok {
		t.Error("cached allow survived RemovePolicy")
	}
}

func TestEnforcer_NoCache(t *testing.T) {
	e, err := NewEnforcer(&EnforcerConfig{})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	if e.cache != nil {
		t.Error("cache enabled with CacheSize 0")
	}
	if ok, _ := e.Enforce(auth.RoleUser, "/api/v1/dashboard", ActionRead); !ok {
		t.Error("Enforce(dashboard) = false, want true")
	}
}

func TestEnforcer_PolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(path, []byte("p, user, /only/this, read\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	e, err := NewEnforcer(&EnforcerConfig{PolicyPath: path})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	if ok, _ := e.Enforce(auth.RoleUser, "/only/this", ActionRead); !ok {
		t.Error("file policy not loaded")
	}
	if ok, _ := e.Enforce(auth.RoleUser, "/api/v1/accounts", ActionRead); ok {
		t.Error("embedded policy used despite PolicyPath")
	}
}

func TestLoadPolicy_Malformed(t *testing.T) {
	e := newTestEnforcer(t)
	if err := loadPolicy(e.enforcer, "p, user, /x\n"); err == nil {
		t.Error("loadPolicy(malformed) error = nil, want error")
	}
}
