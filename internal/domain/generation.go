package domain

import "context"

// TextGenerator produces a completion for a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// VisionGenerator produces a completion for a prompt conditioned on an image.
type VisionGenerator interface {
	GenerateFromImage(ctx context.Context, prompt string, image []byte, opts GenerateOptions) (string, error)
}

// GenerateOptions tunes a single generation call.
type GenerateOptions struct {
	Temperature float64
}
