package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskRunAudit runs one pending audit end to end.
const TaskRunAudit = "audits.run"

type RunAuditPayload struct {
	AuditID string `json:"auditId"`
}

func NewRunAuditTask(p RunAuditPayload) (*asynq.Task, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", TaskRunAudit, err)
	}
	return asynq.NewTask(TaskRunAudit, body), nil
}

func ParseRunAuditPayload(t *asynq.Task) (RunAuditPayload, error) {
	var p RunAuditPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return RunAuditPayload{}, fmt.Errorf("decode %s payload: %w", TaskRunAudit, err)
	}
	return p, nil
}
