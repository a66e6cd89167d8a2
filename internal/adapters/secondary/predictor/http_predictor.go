package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
	apperrors "github.com/lorrc/sla-sentinel/internal/core/errors"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
)

// HTTPPredictor calls the external secondary prediction endpoint.
// Single attempt, bounded timeout; the caller owns the heuristic
// fallback when this adapter fails.
type HTTPPredictor struct {
	client  *http.Client
	baseURL string
}

var _ ports.Predictor = (*HTTPPredictor)(nil)

// NewHTTPPredictor creates a predictor client with a bounded timeout.
func NewHTTPPredictor(baseURL string, timeout time.Duration) *HTTPPredictor {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPPredictor{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type predictResponse struct {
	Probability float64  `json:"probability"`
	Confidence  *float64 `json:"confidence"`
}

// Predict posts the feature vector and returns the model's probability
// and confidence. A response without a confidence field defaults to the
// model confidence.
func (p *HTTPPredictor) Predict(ctx context.Context, features ports.Features) (float64, float64, error) {
	body, err := json.Marshal(features)
	if err != nil {
		return 0, 0, fmt.Errorf("marshal features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", apperrors.ErrPredictorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return 0, 0, fmt.Errorf("%w: unexpected status %d", apperrors.ErrPredictorUnavailable, resp.StatusCode)
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, 0, fmt.Errorf("%w: decode response: %v", apperrors.ErrPredictorUnavailable, err)
	}

	confidence := domain.ModelConfidence
	if decoded.Confidence != nil {
		confidence = *decoded.Confidence
	}
	return decoded.Probability, confidence, nil
}
