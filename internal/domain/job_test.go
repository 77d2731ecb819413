package domain

import (
	"errors"
	"testing"
)

func TestCreateJobRequestValidate(t *testing.T) {
	valid := CreateJobRequest{
		SourceType: SourceTypeS3Presigned,
		Pipeline: []PipelineStep{
			{
				ID:     "inverted",
				Action: "invert",
			},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got error: %v", err)
	}

	invalid := CreateJobRequest{}
	if err := invalid.Validate(); err == nil {
		t.Fatal("expected validation error for empty request")
	}

	missingObjectKey := CreateJobRequest{
		SourceType: SourceTypeLocalFile,
		Pipeline: []PipelineStep{
			{
				ID:     "inverted",
				Action: "invert",
			},
		},
	}
	if err := missingObjectKey.Validate(); err == nil {
		t.Fatal("expected validation error for local_file object_key")
	}

	unsupportedSourceType := CreateJobRequest{
		SourceType: "http_url",
		Pipeline: []PipelineStep{
			{
				ID:     "inverted",
				Action: "invert",
			},
		},
	}
	if err := unsupportedSourceType.Validate(); err == nil {
		t.Fatal("expected validation error for unsupported source_type")
	}
}

func TestValidatePipelineReferences(t *testing.T) {
	valid := []PipelineStep{
		{ID: "inverted", Action: "invert"},
		{ID: "lightest", Action: "lightest", Operand: "inverted"},
		{ID: "thumb", Action: "resize", Input: "lightest", Width: 32, Height: 32, Format: "png"},
		{ID: "patched", Action: "replace", Operand: "thumb", Row: 4, Col: 4},
	}
	if err := ValidatePipeline(valid); err != nil {
		t.Fatalf("expected valid pipeline, got error: %v", err)
	}

	cases := map[string][]PipelineStep{
		"forward reference": {
			{ID: "a", Action: "lightest", Operand: "b"},
			{ID: "b", Action: "invert"},
		},
		"duplicate id": {
			{ID: "a", Action: "invert"},
			{ID: "a", Action: "grayscale"},
		},
		"unknown action": {
			{ID: "a", Action: "sharpen"},
		},
		"operand on unary action": {
			{ID: "a", Action: "invert"},
			{ID: "b", Action: "grayscale", Operand: "a"},
		},
		"self input": {
			{ID: "a", Action: "invert", Input: "a"},
		},
		"resize without height": {
			{ID: "a", Action: "resize", Width: 10},
		},
		"gamma zero": {
			{ID: "a", Action: "gamma"},
		},
		"negative subimage origin": {
			{ID: "a", Action: "subimage", Row: -1, Width: 1, Height: 1},
		},
	}
	for name, pipeline := range cases {
		if err := ValidatePipeline(pipeline); !errors.Is(err, ErrInvalidPipeline) {
			t.Fatalf("%s: expected ErrInvalidPipeline, got %v", name, err)
		}
	}
}

func TestIsBinaryAction(t *testing.T) {
	if !IsBinaryAction(" Multiply ") {
		t.Fatal("expected multiply to be binary")
	}
	if IsBinaryAction("swirl") {
		t.Fatal("expected swirl to be unary")
	}
}
