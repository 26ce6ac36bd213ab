package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-gateway/internal/model"
)

const (
	defaultTimeout = 10 * time.Second
	// maxBodyBytes bounds how much of a provider response is read.
	maxBodyBytes = 1 << 20
)

// WeatherRepository defines the interface for weather data access
type WeatherRepository interface {
	// FetchCurrent issues exactly one request to the provider for city, which must
	// already be trimmed and non-empty.
	FetchCurrent(ctx context.Context, city string) (model.WeatherResult, error)
}

// Options configures the weatherstack repository.
type Options struct {
	APIURL  string
	APIKey  string
	Units   string
	Timeout time.Duration
	Logger  *zap.SugaredLogger
}

// weatherRepository implements WeatherRepository against weatherstack's /current endpoint.
type weatherRepository struct {
	httpClient *http.Client
	opts       Options
}

// NewWeatherRepository creates a new weather repository instance
func NewWeatherRepository(opts Options, httpClient ...*http.Client) WeatherRepository {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	client := &http.Client{Timeout: opts.Timeout}
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	return &weatherRepository{
		httpClient: client,
		opts:       opts,
	}
}

// FetchCurrent retrieves the current weather for city. The per-call deadline is
// applied on top of ctx so an injected client without a timeout is still bounded.
func (r *weatherRepository) FetchCurrent(ctx context.Context, city string) (model.WeatherResult, error) {
	if r.opts.APIKey == "" {
		return nil, &ProviderError{Kind: KindAPIKeyMissing, Err: ErrAPIKeyMissing}
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	reqURL, err := r.buildURL(city)
	if err != nil {
		return nil, &ProviderError{Kind: KindBadResponse, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &ProviderError{Kind: KindBadResponse, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	r.opts.Logger.Debugw("Calling weather provider", "city", city, "url", redactURL(reqURL))

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, transportError(err)
	}

	var result model.WeatherResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ProviderError{
			Kind:       KindBadResponse,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode weather provider response: %w", err),
		}
	}

	if result == nil {
		return nil, &ProviderError{
			Kind:       KindBadResponse,
			StatusCode: resp.StatusCode,
			Err:        errors.New("weather provider returned an empty body"),
		}
	}

	var env model.WeatherstackError
	if err := json.Unmarshal(body, &env); err == nil && env.Failed() {
		return nil, envelopeError(resp.StatusCode, env)
	}

	return result, nil
}

func (r *weatherRepository) buildURL(city string) (string, error) {
	u, err := url.Parse(r.opts.APIURL)
	if err != nil {
		return "", fmt.Errorf("parse weather provider url: %w", err)
	}
	q := u.Query()
	q.Set("access_key", r.opts.APIKey)
	q.Set("query", city)
	if r.opts.Units != "" {
		q.Set("units", r.opts.Units)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// redactURL hides the access key so URLs can be logged and returned in errors.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable url>"
	}
	q := u.Query()
	if q.Has("access_key") {
		q.Set("access_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
