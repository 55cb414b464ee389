// Package crops wraps the crop-recommendation model API. The service
// prefers a degraded answer over no answer: any upstream failure returns
// the fixed fallback recommendation set instead of an error.
package crops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Recommendation is the ranked crop advice for one query.
type Recommendation struct {
	TopCrops               []string  `json:"top_crops"`
	SuccessProbability     []float64 `json:"success_probability"`
	PredictedYields        []float64 `json:"predicted_yields"` // quintal/acre
	FertilizerRequirements []string  `json:"fertilizer_requirements"`
	PesticideRequirements  []string  `json:"pesticide_requirements"`
	WaterRequirements      []string  `json:"water_requirements"`
	Fallback               bool      `json:"fallback,omitempty"`
}

// Query holds the farmer's planning inputs.
type Query struct {
	Year   int     `json:"year"`
	Season string  `json:"season"`
	Area   float64 `json:"area"` // acres
}

// Recommender calls a Gradio-style prediction endpoint.
type Recommender struct {
	url    string
	client *http.Client
}

func NewRecommender(url string) *Recommender {
	return &Recommender{
		url:    url,
		client: &http.Client{Timeout: 20 * time.Second},
	}
}

type gradioRequest struct {
	Data []any `json:"data"`
}

type gradioResponse struct {
	Data []json.RawMessage `json:"data"`
}

// Recommend returns ranked crops for the query, or the fallback set when the
// model is unreachable or answers with garbage.
func (r *Recommender) Recommend(ctx context.Context, q Query) *Recommendation {
	rec, err := r.predict(ctx, q)
	if err != nil {
		log.Printf("Crop recommender unavailable, using fallback: %v", err)
		return fallbackRecommendation()
	}
	return rec
}

func (r *Recommender) predict(ctx context.Context, q Query) (*Recommendation, error) {
	bodyBytes, err := json.Marshal(gradioRequest{Data: []any{q.Year, q.Season, q.Area}})
	if err != nil {
		return nil, fmt.Errorf("marshalling prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prediction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prediction status %d", resp.StatusCode)
	}

	var g gradioResponse
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		return nil, fmt.Errorf("decoding prediction response: %w", err)
	}
	if len(g.Data) < 6 {
		return nil, fmt.Errorf("prediction response has %d fields, want 6", len(g.Data))
	}

	rec := &Recommendation{}
	fields := []any{
		&rec.TopCrops, &rec.SuccessProbability, &rec.PredictedYields,
		&rec.FertilizerRequirements, &rec.PesticideRequirements, &rec.WaterRequirements,
	}
	for i, field := range fields {
		if err := json.Unmarshal(g.Data[i], field); err != nil {
			return nil, fmt.Errorf("decoding prediction field %d: %w", i, err)
		}
	}
	if len(rec.TopCrops) == 0 {
		return nil, fmt.Errorf("prediction returned no crops")
	}
	return rec, nil
}

func fallbackRecommendation() *Recommendation {
	return &Recommendation{
		TopCrops:               []string{"Rice (Jeerakasali)", "Tomato", "Green Chilli"},
		SuccessProbability:     []float64{88, 82, 75},
		PredictedYields:        []float64{28, 180, 70},
		FertilizerRequirements: []string{"NPK 20-20-20", "Compost + NPK", "Organic fertilizer"},
		PesticideRequirements:  []string{"Organic pesticide", "Neem oil", "Bio-pesticide"},
		WaterRequirements:      []string{"High", "Medium", "Medium"},
		Fallback:               true,
	}
}
