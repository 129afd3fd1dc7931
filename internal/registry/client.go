// internal/registry/client.go
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/askelio/docpipeline/internal/apperrors"
	"github.com/askelio/docpipeline/internal/domain/entities"
	"go.uber.org/zap"
)

const (
	defaultBaseURL     = "https://ares.gov.cz/ekonomicke-subjekty-v-be/rest/ekonomicke-subjekty"
	defaultTimeout     = 10 * time.Second
	maxRetries         = 3
	cacheCapacity      = 1000
	positiveTTL        = 24 * time.Hour
	negativeTTL        = 10 * time.Minute
	userAgentHeader    = "docpipeline-enrichment/1.0"
)

// Client looks up legal-entity records by registration id (spec.md
// §4.2). It is safe for concurrent use; the cache is mutex-guarded.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *lruTTLCache
	logger     *zap.Logger
}

// NewClient creates a Client against baseURL (empty uses the ARES
// production endpoint).
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		cache:      newLRUTTLCache(cacheCapacity),
		logger:     logger.Named("registry.ares"),
	}
}

// normalizeRegistrationID trims whitespace and leading zeros, per
// spec.md §4.2. Returns "", false if the result is not 1-8 decimal
// digits.
func normalizeRegistrationID(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	id := strings.TrimLeft(trimmed, "0")
	if id == "" {
		id = "0" // input was all zeros
	}
	if len(id) > 8 {
		return "", false
	}
	return id, true
}

// Lookup resolves registrationID to a RegistryRecord, consulting the
// cache first (spec.md §4.2). Returns apperrors.NewNotFoundError for
// an invalid id or a definitive 404, apperrors.RegistryUnavailable
// once retries are exhausted.
func (c *Client) Lookup(ctx context.Context, registrationID string) (entities.RegistryRecord, error) {
	id, ok := normalizeRegistrationID(registrationID)
	if !ok {
		return entities.RegistryRecord{}, apperrors.NewNotFoundError("registry_record", registrationID)
	}

	now := time.Now()
	if cached, hit := c.cache.get(id, now); hit {
		if !cached.found {
			return entities.RegistryRecord{}, apperrors.NewNotFoundError("registry_record", id)
		}
		return cached.record.(entities.RegistryRecord), nil
	}

	record, err := c.fetchWithRetry(ctx, id)
	switch {
	case err == nil:
		c.cache.set(id, cachedValue{found: true, record: record}, positiveTTL, now)
		return record, nil
	case apperrors.IsNotFound(err):
		c.cache.set(id, cachedValue{found: false}, negativeTTL, now)
		return entities.RegistryRecord{}, err
	default:
		return entities.RegistryRecord{}, err
	}
}

func (c *Client) fetchWithRetry(ctx context.Context, id string) (entities.RegistryRecord, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * time.Second // linear backoff 1s, 2s, 3s
			select {
			case <-ctx.Done():
				return entities.RegistryRecord{}, apperrors.Cancelled("registry lookup")
			case <-time.After(delay):
			}
		}

		record, status, err := c.fetchOnce(ctx, id)
		if err == nil {
			return record, nil
		}
		if status == http.StatusNotFound {
			return entities.RegistryRecord{}, apperrors.NewNotFoundError("registry_record", id)
		}
		lastErr = err
		c.logger.Warn("registry fetch attempt failed", zap.Int("attempt", attempt+1), zap.String("registration_id", id), zap.Error(err))
	}
	return entities.RegistryRecord{}, apperrors.RegistryUnavailable(lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, id string) (entities.RegistryRecord, int, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entities.RegistryRecord{}, 0, apperrors.Internal("failed to build registry request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgentHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return entities.RegistryRecord{}, 0, apperrors.Timeout("registry lookup")
		}
		return entities.RegistryRecord{}, 0, apperrors.TransientNetwork(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return entities.RegistryRecord{}, resp.StatusCode, apperrors.NewNotFoundError("registry_record", id)
	}
	if resp.StatusCode >= 500 {
		return entities.RegistryRecord{}, resp.StatusCode, apperrors.TransientNetwork(fmt.Errorf("ares returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return entities.RegistryRecord{}, resp.StatusCode, apperrors.RegistryUnavailable(fmt.Errorf("ares returned %d", resp.StatusCode))
	}

	var payload aresResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return entities.RegistryRecord{}, resp.StatusCode, apperrors.RegistryUnavailable(err)
	}
	return payload.toRegistryRecord(id), resp.StatusCode, nil
}

// aresResponse mirrors the subset of ARES's economic-subject JSON
// shape the enrichment stage needs (spec.md §4.2 "response fields are
// optional").
type aresResponse struct {
	ICO              string `json:"ico"`
	ObchodniJmeno    string `json:"obchodniJmeno"`
	DIC              string `json:"dic"`
	DatumZaniku      string `json:"datumZaniku"`
	Sidlo            *struct {
		TextovaAdresa string `json:"textovaAdresa"`
	} `json:"sidlo"`
	AdresaDorucovaci *struct {
		RadekAdresy1 string `json:"radekAdresy1"`
		RadekAdresy2 string `json:"radekAdresy2"`
		RadekAdresy3 string `json:"radekAdresy3"`
	} `json:"adresaDorucovaci"`
	SeznamRegistraci *struct {
		StavZdrojeDph string `json:"stavZdrojeDph"`
	} `json:"seznamRegistraci"`
}

func (a aresResponse) toRegistryRecord(id string) entities.RegistryRecord {
	address := ""
	if a.Sidlo != nil && a.Sidlo.TextovaAdresa != "" {
		address = a.Sidlo.TextovaAdresa
	} else if a.AdresaDorucovaci != nil {
		var parts []string
		for _, p := range []string{a.AdresaDorucovaci.RadekAdresy1, a.AdresaDorucovaci.RadekAdresy2, a.AdresaDorucovaci.RadekAdresy3} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		address = strings.Join(parts, ", ")
	}

	return entities.RegistryRecord{
		RegistrationID: id,
		Name:           a.ObchodniJmeno,
		TaxID:          a.DIC,
		Address:        address,
		Active:         a.DatumZaniku == "",
		TaxRegistered:  a.SeznamRegistraci != nil && a.SeznamRegistraci.StavZdrojeDph == "AKTIVNI",
		FetchedAt:      time.Now(),
	}
}
