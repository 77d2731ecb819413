package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dunamismax/pixmap/internal/domain"
	"github.com/hibiken/asynq"
)

const TypeTransformPixmap = "pixmap:transform"

type TransformPayload struct {
	JobID       string                `json:"job_id"`
	UserID      string                `json:"user_id,omitempty"`
	SourceType  string                `json:"source_type"`
	WebhookURL  string                `json:"webhook_url,omitempty"`
	ObjectKey   string                `json:"object_key"`
	Pipeline    []domain.PipelineStep `json:"pipeline"`
	RequestedAt time.Time             `json:"requested_at"`
}

// TaskID identifies one start of a job. asynq keeps the id of archived
// tasks, so a restarted job needs a new id; the request time provides it.
func TaskID(payload TransformPayload) string {
	return payload.JobID + ":" + strconv.FormatInt(payload.RequestedAt.UnixNano(), 36)
}

func NewTransformTask(payload TransformPayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.JobID) == "" {
		return nil, errors.New("transform payload requires job_id")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal transform payload: %w", err)
	}
	return asynq.NewTask(TypeTransformPixmap, body), nil
}

func ParseTransformPayload(task *asynq.Task) (TransformPayload, error) {
	var payload TransformPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return TransformPayload{}, fmt.Errorf("unmarshal transform payload: %w", err)
	}
	if strings.TrimSpace(payload.JobID) == "" {
		return TransformPayload{}, errors.New("transform payload is missing job_id")
	}
	return payload, nil
}
