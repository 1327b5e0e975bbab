package client

import (
	"context"

	"github.com/menta2k/ux-analyzer/pkg/types"
)

// VisionClient is a chat backend that accepts a base64 image alongside a prompt
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	ReadText(ctx context.Context, model, prompt, imgB64 string) (*types.TextReadout, error)
}
