package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dunamismax/pixmap/internal/domain"
	"github.com/dunamismax/pixmap/internal/ppm"
)

const SourceTypeLocalFile = domain.SourceTypeLocalFile

var (
	ErrUnsupportedSourceType = errors.New("unsupported source_type")
	ErrInvalidStepAction     = errors.New("invalid pipeline action")
)

type Request struct {
	JobID      string
	SourceType string
	ObjectKey  string
	Pipeline   []domain.PipelineStep
}

type Output struct {
	StepID  string `json:"step_id"`
	Action  string `json:"action"`
	Format  string `json:"format"`
	Path    string `json:"path"`
	Bytes   int    `json:"bytes"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Success bool   `json:"success"`
}

type Result struct {
	SourceFormat string
	SourceBytes  int
	Outputs      []Output
}

type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

type Emitter interface {
	Emit(ctx context.Context, req Request, step domain.PipelineStep, data []byte, format string, width, height int) (Output, error)
}

type Processor struct {
	fetcher     Fetcher
	transformer Transformer
	encoder     Encoder
	emitter     Emitter
}

func NewLocalProcessor(outputDir string) (*Processor, error) {
	return newProcessor(LocalFileFetcher{}, LocalFileEmitter{OutputDir: outputDir})
}

func NewObjectStoreProcessor(fetcher ObjectStoreFetcher, emitter ObjectStoreEmitter) (*Processor, error) {
	return newProcessor(fetcher, emitter)
}

func newProcessor(fetcher Fetcher, emitter Emitter) (*Processor, error) {
	encoder, err := newEncoder()
	if err != nil {
		return nil, fmt.Errorf("build encoder: %w", err)
	}

	return &Processor{
		fetcher:     fetcher,
		transformer: pixmapTransformer{},
		encoder:     encoder,
		emitter:     emitter,
	}, nil
}

// Process runs every step in order. Each step's image is kept under its ID
// so later steps can use it as input or operand.
func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.JobID) == "" {
		return Result{}, errors.New("job_id is required")
	}
	if err := domain.ValidatePipeline(req.Pipeline); err != nil {
		return Result{}, err
	}

	sourceBytes, err := p.fetcher.Fetch(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch stage: %w", err)
	}

	source, sourceFormat, err := decodeSource(sourceBytes)
	if err != nil {
		return Result{}, fmt.Errorf("decode stage: %w", err)
	}

	images := map[string]*ppm.Image{"": source}
	out := Result{
		SourceFormat: sourceFormat,
		SourceBytes:  len(sourceBytes),
		Outputs:      make([]Output, 0, len(req.Pipeline)),
	}
	for _, step := range req.Pipeline {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		input := images[strings.TrimSpace(step.Input)]
		var operand *ppm.Image
		if domain.IsBinaryAction(step.Action) {
			operand = images[strings.TrimSpace(step.Operand)]
		}

		transformed, err := p.transformer.Transform(ctx, step, input, operand)
		if err != nil {
			return Result{}, fmt.Errorf("transform stage step=%s action=%s: %w", step.ID, step.Action, err)
		}
		images[strings.TrimSpace(step.ID)] = transformed

		format := normalizeOutputFormat(step.Format)
		if strings.TrimSpace(step.Format) == "" {
			format = normalizeOutputFormat(sourceFormat)
		}

		encoded, err := p.encoder.Encode(ctx, transformed, format, step.Quality)
		if err != nil {
			return Result{}, fmt.Errorf("encode stage step=%s format=%s: %w", step.ID, format, err)
		}

		written, err := p.emitter.Emit(ctx, req, step, encoded, format, transformed.Width(), transformed.Height())
		if err != nil {
			return Result{}, fmt.Errorf("emit stage step=%s action=%s: %w", step.ID, step.Action, err)
		}
		out.Outputs = append(out.Outputs, written)
	}

	return out, nil
}

type LocalFileFetcher struct{}

func (LocalFileFetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if !strings.EqualFold(req.SourceType, SourceTypeLocalFile) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSourceType, req.SourceType)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(req.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("read input file %s: %w", req.ObjectKey, err)
	}
	return data, nil
}

type LocalFileEmitter struct {
	OutputDir string
}

func (e LocalFileEmitter) Emit(_ context.Context, req Request, step domain.PipelineStep, data []byte, format string, width, height int) (Output, error) {
	if strings.TrimSpace(e.OutputDir) == "" {
		return Output{}, errors.New("output directory is required")
	}
	if strings.TrimSpace(step.ID) == "" {
		return Output{}, errors.New("pipeline step id is required")
	}

	jobDir := filepath.Join(e.OutputDir, sanitizePathToken(req.JobID))
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return Output{}, fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s.%s", sanitizePathToken(step.ID), fileExtension(format))
	fullPath := filepath.Join(jobDir, filename)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return Output{}, fmt.Errorf("write output file: %w", err)
	}

	return Output{
		StepID:  step.ID,
		Action:  step.Action,
		Format:  normalizeOutputFormat(format),
		Path:    fullPath,
		Bytes:   len(data),
		Width:   width,
		Height:  height,
		Success: true,
	}, nil
}

func fileExtension(format string) string {
	switch format = normalizeOutputFormat(format); format {
	case "jpeg":
		return "jpg"
	default:
		return format
	}
}

func sanitizePathToken(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return "unknown"
	}

	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
