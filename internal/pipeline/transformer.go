package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dunamismax/pixmap/internal/domain"
	"github.com/dunamismax/pixmap/internal/ppm"
)

var ErrMissingOperand = errors.New("binary action requires an operand image")

type Transformer interface {
	Transform(ctx context.Context, step domain.PipelineStep, input, operand *ppm.Image) (*ppm.Image, error)
}

type pixmapTransformer struct{}

func (pixmapTransformer) Transform(ctx context.Context, step domain.PipelineStep, input, operand *ppm.Image) (*ppm.Image, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if input == nil {
		return nil, errors.New("input image is required")
	}

	action := domain.NormalizeAction(step.Action)
	if domain.IsBinaryAction(action) && operand == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingOperand, action)
	}

	switch action {
	case domain.ActionInvert:
		return input.Invert(), nil
	case domain.ActionGrayscale:
		return input.Grayscale(), nil
	case domain.ActionGamma:
		return input.GammaCorrect(step.Gamma)
	case domain.ActionFlipHorizontal:
		return input.FlipHorizontal(), nil
	case domain.ActionResize:
		return input.Resize(step.Width, step.Height)
	case domain.ActionSubimage:
		return input.Subimage(step.Row, step.Col, step.Width, step.Height)
	case domain.ActionSwirl:
		return input.Swirl(), nil
	case domain.ActionReplace:
		out := input.Clone()
		out.Replace(operand, step.Row, step.Col)
		return out, nil
	case domain.ActionAlphaBlend:
		return input.AlphaBlend(operand, step.Alpha)
	case domain.ActionLightest:
		return input.Lightest(operand)
	case domain.ActionDarkest:
		return input.Darkest(operand)
	case domain.ActionDifference:
		return input.Difference(operand)
	case domain.ActionMultiply:
		return input.Multiply(operand)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStepAction, step.Action)
	}
}

func normalizeOutputFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpg", "jpeg":
		return "jpeg"
	case "tif", "tiff":
		return "tiff"
	case "png", "webp", "bmp":
		return strings.ToLower(strings.TrimSpace(format))
	default:
		return "ppm"
	}
}

func contentTypeForFormat(format string) string {
	switch normalizeOutputFormat(format) {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	default:
		return "image/x-portable-pixmap"
	}
}
