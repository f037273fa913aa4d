// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package authz

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/instadash/internal/cache"
	"github.com/tomtom215/instadash/internal/metrics"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Action names used in policies.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
)

// EnforcerConfig configures the casbin enforcer.
type EnforcerConfig struct {
	// ModelPath and PolicyPath override the embedded files when set and
	// present on disk.
	ModelPath  string
	PolicyPath string

	// CacheSize bounds the decision cache; 0 disables caching.
	CacheSize int
	CacheTTL  time.Duration
}

// DefaultEnforcerConfig uses the embedded model and policy with a cache.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{
		CacheSize: 4096,
		CacheTTL:  5 * time.Minute,
	}
}

// Enforcer wraps a casbin SyncedEnforcer with a decision cache.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
	cache    *cache.LRU[string, bool]
}

// NewEnforcer loads the model and policy.
func NewEnforcer(cfg *EnforcerConfig) (*Enforcer, error) {
	if cfg == nil {
		cfg = DefaultEnforcerConfig()
	}

	var m model.Model
	var err error
	if cfg.ModelPath != "" && fileExists(cfg.ModelPath) {
		m, err = model.NewModelFromFile(cfg.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" && fileExists(cfg.PolicyPath) {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	e := &Enforcer{enforcer: enforcer}
	if cfg.CacheSize > 0 {
		e.cache = cache.New[string, bool](cfg.CacheSize, cfg.CacheTTL)
	}
	return e, nil
}

// loadPolicy adds the p and g lines of a policy CSV.
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Enforce reports whether sub (a role) may perform act on obj.
func (e *Enforcer) Enforce(sub, obj, act string) (bool, error) {
	key := sub + "|" + obj + "|" + act
	if e.cache != nil {
		if allowed, ok := e.cache.Get(key); ok {
			metrics.RecordAuthzDecision(allowed, true)
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(sub, obj, act)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	if e.cache != nil {
		e.cache.Set(key, allowed)
	}
	metrics.RecordAuthzDecision(allowed, false)
	return allowed, nil
}

// EnforceRoles allows the request when any role does.
func (e *Enforcer) EnforceRoles(roles []string, obj, act string) (bool, error) {
	for _, role := range roles {
		allowed, err := e.Enforce(role, obj, act)
		if err != nil {
			return false, err
		}
		if allowed {
			return true, nil
		}
	}
	return false, nil
}

// AddPolicy adds a rule at runtime and drops cached decisions.
func (e *Enforcer) AddPolicy(sub, obj, act string) (bool, error) {
	added, err := e.enforcer.AddPolicy(sub, obj, act)
	if err != nil {
		return false, fmt.Errorf("failed to add policy: %w", err)
	}
	e.clearCache()
	return added, nil
}

// RemovePolicy removes a rule at runtime and drops cached decisions.
func (e *Enforcer) RemovePolicy(sub, obj, act string) (bool, error) {
	removed, err := e.enforcer.RemovePolicy(sub, obj, act)
	if err != nil {
		return false, fmt.Errorf("failed to remove policy: %w", err)
	}
	e.clearCache()
	return removed, nil
}

// Roles returns the roles a role inherits, for diagnostics.
func (e *Enforcer) Roles(role string) ([]string, error) {
	return e.enforcer.GetRolesForUser(role)
}

func (e *Enforcer) clearCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
