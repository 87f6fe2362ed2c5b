package module

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"autotrader/internal/core"
)

// HTTPSource pulls candidates and quotes from an external signal service over
// plain JSON. The service owns the actual strategy logic.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func (s *HTTPSource) Candidates(ctx context.Context, mod core.Module) ([]Candidate, error) {
	if s == nil {
		return nil, nil
	}
	endpoint := fmt.Sprintf("%s/v1/candidates?module=%s", s.BaseURL, url.QueryEscape(string(mod)))
	var payload struct {
		Candidates []Candidate `json:"candidates"`
	}
	if err := s.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return payload.Candidates, nil
}

func (s *HTTPSource) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if s == nil {
		return decimal.Zero, nil
	}
	endpoint := fmt.Sprintf("%s/v1/quote?symbol=%s", s.BaseURL, url.QueryEscape(symbol))
	var payload struct {
		Price decimal.Decimal `json:"price"`
	}
	if err := s.getJSON(ctx, endpoint, &payload); err != nil {
		return decimal.Zero, err
	}
	return payload.Price, nil
}

func (s *HTTPSource) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("source returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
