package order

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/pizzafoundry/pizza-service/internal/apperr"
	"github.com/pizzafoundry/pizza-service/internal/order/entity"
	userentity "github.com/pizzafoundry/pizza-service/internal/user/entity"
)

type FactoryConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// FactoryConfigFromEnv reads fulfillment vendor settings from environment
// variables.
func FactoryConfigFromEnv() FactoryConfig {
	url := os.Getenv("FACTORY_URL")
	if url == "" {
		url = "https://factory.pizzafoundry.dev"
	}
	return FactoryConfig{URL: url, APIKey: os.Getenv("FACTORY_API_KEY"), Timeout: 30 * time.Second}
}

// FulfillmentResult is the vendor's response: a scoped token for the order
// and a follow-up URL for status reporting.
type FulfillmentResult struct {
	JWT       string `json:"jwt"`
	ReportURL string `json:"reportUrl"`
}

// FulfillmentClient submits persisted orders to the external factory. One
// attempt, bounded by a timeout so a stalled vendor cannot hold resources;
// a failure is surfaced as a fulfillment error and never unwinds the order
// write.
type FulfillmentClient struct {
	cfg    FactoryConfig
	client *http.Client
}

func NewFulfillmentClient(cfg FactoryConfig) *FulfillmentClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FulfillmentClient{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

type fulfillmentRequest struct {
	Diner dinerInfo     `json:"diner"`
	Order *entity.Order `json:"order"`
}

type dinerInfo struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Submit sends the order contents plus the diner's identity to the factory
// and relays its response.
func (c *FulfillmentClient) Submit(ctx context.Context, diner *userentity.User, o *entity.Order) (*FulfillmentResult, error) {
	body, err := json.Marshal(fulfillmentRequest{
		Diner: dinerInfo{ID: diner.ID, Name: diner.Name, Email: diner.Email},
		Order: o,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Fulfillment, "failed to fulfill order at factory", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+"/api/order", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.Fulfillment, "failed to fulfill order at factory", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.Fulfillment, "failed to fulfill order at factory", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.New(apperr.Fulfillment, "failed to fulfill order at factory")
	}
	var result FulfillmentResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperr.Wrap(apperr.Fulfillment, "failed to fulfill order at factory", err)
	}
	return &result, nil
}
