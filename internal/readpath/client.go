package readpath

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"amexing/internal/apierror"
	"amexing/internal/dto"
	"amexing/internal/infra"
	"amexing/internal/model"

	"github.com/rs/zerolog/log"
)

// Client is the editor-side read path: a typed catalog client composing
// circuit breaker → dedup → retry → HTTP, with reads served through the TTL
// cache. One Client per editor instance; nothing is shared across editors.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *Cache
	dedup   *Deduper
	breaker *infra.CircuitBreaker
	retry   RetryConfig
	token   string
}

// ClientConfig carries the knobs the host exposes for the read path.
type ClientConfig struct {
	BaseURL    string
	CacheTTL   time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	retry := DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryDelay > 0 {
		retry.BaseDelay = cfg.RetryDelay
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{},
		cache:   NewCache(cfg.CacheTTL),
		dedup:   NewDeduper(),
		breaker: infra.NewCircuitBreaker(infra.DefaultCBConfig()),
		retry:   retry,
	}
}

// SetToken sets the bearer token attached to every request.
func (c *Client) SetToken(token string) { c.token = token }

// Cache exposes the underlying cache for invalidation and stats.
func (c *Client) Cache() *Cache { return c.cache }

// InFlight reports the number of pending deduplicated requests.
func (c *Client) InFlight() int { return c.dedup.InFlight() }

// ── Transport ────────────────────────────────────────────────────────────────

// do issues one logical request: identical concurrent calls share a single
// network round trip, and the round trip itself is retried on transient
// failures behind the circuit breaker.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	url := c.baseURL + path
	key := DedupKey(method, url, bodyBytes)

	return c.dedup.Do(key, func() ([]byte, error) {
		var payload []byte
		err := Retry(ctx, c.retry, func(ctx context.Context) error {
			return c.breaker.Execute(func() error {
				var sendErr error
				payload, sendErr = c.send(ctx, method, url, bodyBytes)
				return sendErr
			})
		})
		if errors.Is(err, infra.ErrCircuitOpen) {
			err = fmt.Errorf("catalogo no disponible: %w", apierror.ErrTransient)
		}
		return payload, err
	})
}

func (c *Client) send(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %v: %w", method, url, err, apierror.ErrTransient)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: leer respuesta: %v: %w", method, url, err, apierror.ErrTransient)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return payload, nil
	}
	return nil, statusError(resp.StatusCode, payload)
}

// statusError maps an HTTP failure onto the core error taxonomy, keeping the
// server's detail message when the body carries the standard envelope.
func statusError(status int, payload []byte) error {
	detail := fmt.Sprintf("HTTP %d", status)
	var envelope apierror.APIError
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Detail != "" {
		detail = envelope.Detail
	}

	switch {
	case status >= 500:
		return fmt.Errorf("%s: %w", detail, apierror.ErrTransient)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s: %w", detail, apierror.ErrPermission)
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %w", detail, apierror.ErrNotFound)
	case status == http.StatusConflict:
		return fmt.Errorf("%s: %w", detail, apierror.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", detail, apierror.ErrInvalidArgument)
	}
}

// getCached fetches a typed payload through the cache, coalescing concurrent
// misses into one request.
func getCached[T any](ctx context.Context, c *Client, key, path string) (T, error) {
	var zero T
	v, err := c.cache.GetOrSet(ctx, key, func(ctx context.Context) (interface{}, error) {
		payload, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		var out T
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// ── Catalog reads ────────────────────────────────────────────────────────────

func (c *Client) ListRates(ctx context.Context) ([]dto.RateResponse, error) {
	return getCached[[]dto.RateResponse](ctx, c, KeyRatesAll(), "/v1/rates/active")
}

func (c *Client) ListServicesByRate(ctx context.Context, rateID string, numberOfPeople int) ([]dto.ServiceByRateItem, error) {
	key := KeyServicesByRate(rateID, numberOfPeople)
	path := fmt.Sprintf("/v1/services/by-rate/%s?numberOfPeople=%d", rateID, numberOfPeople)
	return getCached[[]dto.ServiceByRateItem](ctx, c, key, path)
}

func (c *Client) ListTourDestinations(ctx context.Context, rateID, dayDate string) ([]dto.POIResponse, error) {
	key := KeyTourDestinations(rateID, dayDate)
	path := fmt.Sprintf("/v1/tours/destinations/by-rate/%s", rateID)
	if dayDate != "" {
		path += "?dayDate=" + dayDate
	}
	return getCached[[]dto.POIResponse](ctx, c, key, path)
}

func (c *Client) ListTourVehicles(ctx context.Context, rateID, destID string, numberOfPeople int, dayDate string) ([]dto.TourVehicleItem, error) {
	key := KeyTourVehicles(rateID, destID, numberOfPeople, dayDate)
	path := fmt.Sprintf("/v1/tours/vehicles/by-rate-destination/%s/%s?numberOfPeople=%d", rateID, destID, numberOfPeople)
	if dayDate != "" {
		path += "&dayDate=" + dayDate
	}
	return getCached[[]dto.TourVehicleItem](ctx, c, key, path)
}

func (c *Client) ListExperiences(ctx context.Context, expType, dayDate string) ([]dto.ExperienceResponse, error) {
	key := KeyExperiences(expType, dayDate)
	path := "/v1/experiences?type=" + expType
	if dayDate != "" {
		path += "&dayDate=" + dayDate
	}
	return getCached[[]dto.ExperienceResponse](ctx, c, key, path)
}

func (c *Client) GetQuote(ctx context.Context, quoteID string) (*dto.QuoteResponse, error) {
	q, err := getCached[dto.QuoteResponse](ctx, c, KeyQuote(quoteID), "/v1/quotes/"+quoteID)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ── Writes ───────────────────────────────────────────────────────────────────

// SaveServiceItems PUTs the priced body of a quote. On success the per-quote
// cache key is invalidated; catalog caches stay untouched.
func (c *Client) SaveServiceItems(ctx context.Context, quoteID string, items model.ServiceItems) (*dto.QuoteResponse, error) {
	body := dto.UpdateServiceItemsRequest{ServiceItems: items}
	payload, err := c.do(ctx, http.MethodPut, "/v1/quotes/"+quoteID+"/service-items", body)
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(KeyQuote(quoteID))

	var resp dto.QuoteResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitClientPrices posts changed override cells for a service or tour.
func (c *Client) SubmitClientPrices(ctx context.Context, itemType string, req dto.SubmitClientPricesRequest) error {
	path := "/v1/services/client-prices"
	if itemType == model.ItemTypeTour {
		path = "/v1/tours/client-prices"
	}
	_, err := c.do(ctx, http.MethodPost, path, req)
	return err
}

// ── Prefetch ─────────────────────────────────────────────────────────────────

// Prefetch warms the caches an editor session touches first. Best-effort:
// failures are logged and swallowed.
func (c *Client) Prefetch(ctx context.Context, quoteID, rateID string) {
	var wg sync.WaitGroup

	warm := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				log.Warn().Str("prefetch", name).Str("quote_id", quoteID).Err(err).Msg("prefetch failed")
			}
		}()
	}

	warm("rates", func() error {
		_, err := c.ListRates(ctx)
		return err
	})
	if rateID != "" {
		warm("services", func() error {
			_, err := c.ListServicesByRate(ctx, rateID, 0)
			return err
		})
		warm("tour_destinations", func() error {
			_, err := c.ListTourDestinations(ctx, rateID, "")
			return err
		})
	}

	wg.Wait()
}
