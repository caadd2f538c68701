// Package dmr is the client for the nrpla.de vehicle data API. It exposes
// the three lookups the calculator needs — valuation, emissions and fuel
// characteristics — keyed by license plate and authenticated with a bearer
// token.
package dmr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.nrpla.de"

// Vehicle is the first record of the valuation endpoint's result set.
type Vehicle struct {
	Plate            string
	RegistrationDate time.Time
	Evaluation       float64
	RegistrationTax  float64
	RetailPrice      *float64
}

// Fuel holds the fallback data used to derive a CO2 proxy when the emissions
// endpoint reports no value. Efficiency keeps the comma decimal separator
// the spreadsheet template expects.
type Fuel struct {
	Type       string
	Efficiency string
}

// RequestError reports a failed HTTP exchange: transport failure or a
// non-success status.
type RequestError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("request %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Client issues authenticated lookups against the vehicle data API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *zap.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the API host.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a Client using the given bearer token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type evaluationRecord struct {
	Registration    string   `json:"registration"`
	Date            string   `json:"date"`
	Evaluation      float64  `json:"evaluation"`
	RegistrationTax float64  `json:"registration_tax"`
	RetailPrice     *float64 `json:"retail_price"`
}

// FetchVehicle returns the first record of the valuation endpoint's result
// set for the given plate.
func (c *Client) FetchVehicle(ctx context.Context, plate string) (Vehicle, error) {
	var payload struct {
		Data []evaluationRecord `json:"data"`
	}
	if err := c.get(ctx, "/evaluations/"+plate, &payload); err != nil {
		return Vehicle{}, fmt.Errorf("fetch vehicle data: %w", err)
	}
	if len(payload.Data) == 0 {
		return Vehicle{}, fmt.Errorf("fetch vehicle data: no records for plate %q", plate)
	}
	rec := payload.Data[0]
	regDate, err := time.Parse("2006-01-02", rec.Date)
	if err != nil {
		return Vehicle{}, fmt.Errorf("fetch vehicle data: registration date %q: %w", rec.Date, err)
	}
	return Vehicle{
		Plate:            plate,
		RegistrationDate: regDate,
		Evaluation:       rec.Evaluation,
		RegistrationTax:  rec.RegistrationTax,
		RetailPrice:      rec.RetailPrice,
	}, nil
}

// FetchEmissions returns the CO2 figure for the plate, or nil when the
// endpoint reports none. An absent value is not an error.
func (c *Client) FetchEmissions(ctx context.Context, plate string) (*float64, error) {
	var payload struct {
		Data struct {
			CO2 *float64 `json:"co2"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/emissions/"+plate, &payload); err != nil {
		return nil, fmt.Errorf("fetch emissions data: %w", err)
	}
	return payload.Data.CO2, nil
}

// FetchFuel returns the fuel type and efficiency for the plate. Both fields
// must be present in the response.
func (c *Client) FetchFuel(ctx context.Context, plate string) (Fuel, error) {
	var payload struct {
		Data map[string]any `json:"data"`
	}
	if err := c.get(ctx, "/"+plate, &payload); err != nil {
		return Fuel{}, fmt.Errorf("fetch fuel data: %w", err)
	}
	fuelType, okType := payload.Data["fuel_type"].(string)
	rawEfficiency, okEff := payload.Data["fuel_efficiency"]
	if !okType || !okEff || rawEfficiency == nil {
		return Fuel{}, fmt.Errorf("fetch fuel data: fuel type or fuel efficiency not available for plate %q", plate)
	}
	return Fuel{Type: fuelType, Efficiency: commaDecimal(rawEfficiency)}, nil
}

// FetchNewPrice returns the retail price when present and non-null, else the
// sum of evaluation and registration tax with missing fields as zero.
func (c *Client) FetchNewPrice(ctx context.Context, plate string) (float64, error) {
	var payload struct {
		Data []evaluationRecord `json:"data"`
	}
	if err := c.get(ctx, "/evaluations/"+plate, &payload); err != nil {
		return 0, fmt.Errorf("fetch new price: %w", err)
	}
	if len(payload.Data) == 0 {
		return 0, fmt.Errorf("fetch new price: no records for plate %q", plate)
	}
	rec := payload.Data[0]
	if rec.RetailPrice != nil {
		return *rec.RetailPrice, nil
	}
	return rec.Evaluation + rec.RegistrationTax, nil
}

func (c *Client) get(ctx context.Context, path string, target any) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &RequestError{URL: url, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	c.log.Debug("api request", zap.String("url", url))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{URL: url, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

// commaDecimal renders a JSON scalar with a comma decimal separator.
func commaDecimal(v any) string {
	var s string
	switch n := v.(type) {
	case float64:
		s = strconv.FormatFloat(n, 'f', -1, 64)
	case string:
		s = n
	default:
		s = fmt.Sprintf("%v", n)
	}
	return strings.ReplaceAll(s, ".", ",")
}
