// Package handlers registers the HTTP surface. The rotation manager
// and quota ledger are constructed once at startup and injected here
// before the server starts.
package handlers

import (
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/quota"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/rotation"
)

var (
	rotationManager *rotation.Manager
	quotaLedger     *quota.Ledger
)

// SetCore wires the long-lived core instances. Must run before
// server.Start.
func SetCore(mgr *rotation.Manager, ledger *quota.Ledger) {
	rotationManager = mgr
	quotaLedger = ledger
}
