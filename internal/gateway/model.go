// Package gateway sends a captured frame to a hosted vision model and turns its
// reply into a normalized cost analysis.
package gateway

import (
	"context"

	"github.com/anime-shed/truecost-inspector-go/internal/imagesource"
)

// Request is one model call: a fixed instruction set plus a single image.
type Request struct {
	System      string
	Instruction string
	Image       imagesource.Image
}

// VisionModel is a hosted multimodal model. Complete returns the raw reply text.
// Provider-side failures are reported as *errors.ProviderError.
type VisionModel interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
	ModelName() string
}

// NewRequest builds the analysis request for img.
func NewRequest(img imagesource.Image) Request {
	return Request{
		System:      SystemPrompt,
		Instruction: UserInstruction,
		Image:       img,
	}
}
