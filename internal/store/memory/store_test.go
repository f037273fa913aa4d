// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package memory

import (
	"testing"

	"github.com/tomtom215/instadash/internal/store"
	"github.com/tomtom215/instadash/internal/store/storetest"
)

func TestContract_MemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()
		return New()
	})
}
