package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity verifies the double-entry invariants of each
	// tenant's ledger.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskReportsWarmup rebuilds report caches for active tenants.
	TaskReportsWarmup = "reports:warmup"
)

// LedgerIntegrityPayload scopes an integrity run. A zero TenantID means all
// tenants.
type LedgerIntegrityPayload struct {
	TenantID int64 `json:"tenant_id"`
}

// NewLedgerIntegrityTask constructs an Asynq task.
func NewLedgerIntegrityTask(payload LedgerIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, data), nil
}

// ReportsWarmupPayload scopes a warmup run.
type ReportsWarmupPayload struct {
	TenantID int64 `json:"tenant_id"`
}

// NewReportsWarmupTask constructs an Asynq task.
func NewReportsWarmupTask(payload ReportsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, data), nil
}
