package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ogero/stremio-hub/pkg/transport"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrFetch indicates a transport failure or a non-success HTTP status.
	ErrFetch = errors.New("fetch failed")
	// ErrDecode indicates the response body was not the expected JSON shape.
	ErrDecode = errors.New("malformed response")
)

// Client fetches JSON documents from addon-supplied URLs. Addon endpoints are
// plain GETs returning JSON; no retries are performed, every call is a single
// attempt.
type Client interface {
	// GetJSON performs a GET on url and decodes the JSON body into v.
	GetJSON(ctx context.Context, url string, v any) error
}

// NewClient creates a JSON fetch client with shared transport tuning.
func NewClient() Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxConnsPerHost = 100
	t.MaxIdleConnsPerHost = 100

	rt := transport.NewModifyHeadersRoundTripper(t,
		transport.WithAccept("application/json"),
		transport.WithUserAgent("stremio-hub/1.0"),
	)

	return &client{
		httpClient: &http.Client{
			Timeout:   time.Second * 10,
			Transport: rt,
		},
	}
}

type client struct {
	httpClient *http.Client
}

// GetJSON performs a GET on url and decodes the JSON body into v.
func (c *client) GetJSON(ctx context.Context, url string, v any) error {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "fetch.Client.GetJSON")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to http.NewRequestWithContext: %v", ErrFetch, err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to http.Client.Do: %v", ErrFetch, err)
	}
	defer res.Body.Close()

	span.SetAttributes(attribute.Int("status", res.StatusCode))
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: unexpected status %s", ErrFetch, res.Status)
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: failed to json.Decoder.Decode: %v", ErrDecode, err)
	}

	return nil
}
