package queue

import (
	"strings"
	"testing"
	"time"

	"github.com/dunamismax/pixmap/internal/domain"
	"github.com/hibiken/asynq"
)

func TestTransformTaskRoundTrip(t *testing.T) {
	payload := TransformPayload{
		JobID:      "job-123",
		UserID:     "user-9",
		SourceType: "s3_presigned",
		ObjectKey:  "uploads/job-123/source",
		Pipeline: []domain.PipelineStep{
			{ID: "inverted", Action: "invert"},
			{ID: "blend", Action: "alpha_blend", Operand: "inverted", Alpha: 0.25},
		},
		RequestedAt: time.Now().UTC(),
	}

	task, err := NewTransformTask(payload)
	if err != nil {
		t.Fatalf("NewTransformTask returned error: %v", err)
	}
	if task.Type() != TypeTransformPixmap {
		t.Fatalf("expected task type %q, got %q", TypeTransformPixmap, task.Type())
	}

	parsed, err := ParseTransformPayload(task)
	if err != nil {
		t.Fatalf("ParseTransformPayload returned error: %v", err)
	}

	if parsed.JobID != payload.JobID {
		t.Fatalf("expected job_id %q, got %q", payload.JobID, parsed.JobID)
	}
	if len(parsed.Pipeline) != 2 {
		t.Fatalf("expected two pipeline steps, got %d", len(parsed.Pipeline))
	}
	if parsed.Pipeline[1].Operand != "inverted" || parsed.Pipeline[1].Alpha != 0.25 {
		t.Fatalf("unexpected blend step %+v", parsed.Pipeline[1])
	}
}

func TestTaskIDChangesPerStart(t *testing.T) {
	first := TransformPayload{JobID: "job-1", RequestedAt: time.Unix(1700000000, 0)}
	retry := first
	restart := TransformPayload{JobID: "job-1", RequestedAt: first.RequestedAt.Add(time.Millisecond)}

	if TaskID(first) != TaskID(retry) {
		t.Fatalf("expected identical starts to share a task id: %s vs %s", TaskID(first), TaskID(retry))
	}
	if TaskID(first) == TaskID(restart) {
		t.Fatalf("expected a restart to get a new task id, both were %s", TaskID(first))
	}
	if !strings.HasPrefix(TaskID(first), "job-1:") {
		t.Fatalf("expected task id to start with the job id, got %s", TaskID(first))
	}
}

func TestTransformTaskRequiresJobID(t *testing.T) {
	if _, err := NewTransformTask(TransformPayload{}); err == nil {
		t.Fatal("expected error for missing job_id")
	}
	if _, err := ParseTransformPayload(asynq.NewTask(TypeTransformPixmap, []byte(`{"source_type":"local_file"}`))); err == nil {
		t.Fatal("expected error for payload without job_id")
	}
	if _, err := ParseTransformPayload(asynq.NewTask(TypeTransformPixmap, []byte(`not json`))); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
