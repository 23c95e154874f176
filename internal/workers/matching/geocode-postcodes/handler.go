// internal/workers/matching/geocode-postcodes/handler.go
package geocodepostcodes

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "mentormatch/internal/common/errors"
	"mentormatch/internal/common/geocode"
	"mentormatch/internal/common/logger"
	"mentormatch/internal/workflow"
)

type Handler struct {
	config   *Config
	resolver *geocode.Resolver
	logger   logger.Logger
}

func NewHandler(config *Config, resolver *geocode.Resolver, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		resolver: resolver,
		logger:   log.With(map[string]interface{}{"activity": workflow.ActivityGeocodePostcodes}),
	}
}

// Activity adapts the handler to the workflow engine.
func (h *Handler) Activity() workflow.ActivityFunc {
	return func(ctx context.Context, raw []byte) ([]byte, error) {
		var input Input
		if err := json.Unmarshal(raw, &input); err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("parse input: %v", err))
		}
		output, err := h.Execute(ctx, &input)
		if err != nil {
			return nil, err
		}
		return json.Marshal(output)
	}
}

// Execute resolves every postcode in the batch. Individual lookup failures
// degrade to the regional fallback inside the resolver; only batch-level
// errors (context cancellation) propagate.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	coords, err := h.resolver.ResolveMany(ctx, input.Postcodes)
	if err != nil {
		return nil, err
	}

	h.logger.Info("postcodes geocoded", map[string]interface{}{
		"requested": len(input.Postcodes),
		"resolved":  len(coords),
	})
	return &Output{Coordinates: coords}, nil
}
