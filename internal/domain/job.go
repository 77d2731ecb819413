package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	JobStatusCreated    = "created"
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusSucceeded  = "succeeded"
	JobStatusFailed     = "failed"

	SourceTypeLocalFile   = "local_file"
	SourceTypeS3Presigned = "s3_presigned"
)

// Pipeline actions. Binary actions combine a step's input with its operand.
const (
	ActionInvert         = "invert"
	ActionGrayscale      = "grayscale"
	ActionGamma          = "gamma"
	ActionFlipHorizontal = "flip_horizontal"
	ActionResize         = "resize"
	ActionSubimage       = "subimage"
	ActionReplace        = "replace"
	ActionAlphaBlend     = "alpha_blend"
	ActionLightest       = "lightest"
	ActionDarkest        = "darkest"
	ActionDifference     = "difference"
	ActionMultiply       = "multiply"
	ActionSwirl          = "swirl"
)

var ErrInvalidPipeline = errors.New("invalid pipeline")

var binaryActions = map[string]bool{
	ActionReplace:    true,
	ActionAlphaBlend: true,
	ActionLightest:   true,
	ActionDarkest:    true,
	ActionDifference: true,
	ActionMultiply:   true,
}

var unaryActions = map[string]bool{
	ActionInvert:         true,
	ActionGrayscale:      true,
	ActionGamma:          true,
	ActionFlipHorizontal: true,
	ActionResize:         true,
	ActionSubimage:       true,
	ActionSwirl:          true,
}

func IsBinaryAction(action string) bool {
	return binaryActions[NormalizeAction(action)]
}

func IsKnownAction(action string) bool {
	action = NormalizeAction(action)
	return binaryActions[action] || unaryActions[action]
}

func NormalizeAction(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}

type CreateJobRequest struct {
	SourceType string         `json:"source_type"`
	WebhookURL string         `json:"webhook_url,omitempty"`
	ObjectKey  string         `json:"object_key,omitempty"`
	Pipeline   []PipelineStep `json:"pipeline"`
}

// PipelineStep describes one transformation. Input and Operand name earlier
// steps by ID; an empty reference means the job's source image.
type PipelineStep struct {
	ID      string  `json:"id"`
	Action  string  `json:"action"`
	Input   string  `json:"input,omitempty"`
	Operand string  `json:"operand,omitempty"`
	Width   int     `json:"width,omitempty"`
	Height  int     `json:"height,omitempty"`
	Row     int     `json:"row,omitempty"`
	Col     int     `json:"col,omitempty"`
	Gamma   float64 `json:"gamma,omitempty"`
	Alpha   float64 `json:"alpha,omitempty"`
	Format  string  `json:"format,omitempty"`
	Quality int     `json:"quality,omitempty"`
}

type Job struct {
	ID         string
	UserID     string
	Status     string
	SourceType string
	WebhookURL string
	Pipeline   []PipelineStep
	ObjectKey  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r CreateJobRequest) Validate() error {
	sourceType := strings.ToLower(strings.TrimSpace(r.SourceType))
	if sourceType == "" {
		return errors.New("source_type is required")
	}
	if sourceType != SourceTypeLocalFile && sourceType != SourceTypeS3Presigned {
		return fmt.Errorf("unsupported source_type: %s", r.SourceType)
	}
	if sourceType == SourceTypeLocalFile && strings.TrimSpace(r.ObjectKey) == "" {
		return errors.New("object_key is required for source_type=local_file")
	}
	return ValidatePipeline(r.Pipeline)
}

// ValidatePipeline checks step ids, actions, parameters and that every
// reference points at an earlier step. Errors wrap ErrInvalidPipeline.
func ValidatePipeline(pipeline []PipelineStep) error {
	if err := validatePipeline(pipeline); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPipeline, err)
	}
	return nil
}

func validatePipeline(pipeline []PipelineStep) error {
	if len(pipeline) == 0 {
		return errors.New("pipeline must contain at least one step")
	}

	seen := make(map[string]bool, len(pipeline))
	for i, step := range pipeline {
		id := strings.TrimSpace(step.ID)
		if id == "" {
			return fmt.Errorf("pipeline[%d].id is required", i)
		}
		if seen[id] {
			return fmt.Errorf("pipeline[%d].id %q is duplicated", i, id)
		}

		action := NormalizeAction(step.Action)
		if action == "" {
			return fmt.Errorf("pipeline[%d].action is required", i)
		}
		if !IsKnownAction(action) {
			return fmt.Errorf("pipeline[%d].action %q is not supported", i, step.Action)
		}

		if ref := strings.TrimSpace(step.Input); ref != "" && !seen[ref] {
			return fmt.Errorf("pipeline[%d].input %q must name an earlier step", i, ref)
		}
		if ref := strings.TrimSpace(step.Operand); ref != "" {
			if !binaryActions[action] {
				return fmt.Errorf("pipeline[%d].operand is only valid for binary actions", i)
			}
			if !seen[ref] {
				return fmt.Errorf("pipeline[%d].operand %q must name an earlier step", i, ref)
			}
		}

		if err := validateParams(action, step); err != nil {
			return fmt.Errorf("pipeline[%d]: %w", i, err)
		}
		seen[id] = true
	}
	return nil
}

func validateParams(action string, step PipelineStep) error {
	switch action {
	case ActionResize, ActionSubimage:
		if step.Width <= 0 || step.Height <= 0 {
			return fmt.Errorf("%s requires width > 0 and height > 0", action)
		}
	case ActionGamma:
		if step.Gamma <= 0 {
			return errors.New("gamma requires gamma > 0")
		}
	}
	if action == ActionSubimage && (step.Row < 0 || step.Col < 0) {
		return errors.New("subimage requires row >= 0 and col >= 0")
	}
	return nil
}
