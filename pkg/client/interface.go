// Package client defines the vision-model backend contract used by the detector
// and the reply parsing shared by the backends.
package client

import (
	"context"

	"github.com/menta2k/focus-overlay/pkg/types"
)

type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	DetectObjects(ctx context.Context, model, prompt, imgB64 string) (*types.DetectionResult, error)
	Ping(ctx context.Context) error
}
