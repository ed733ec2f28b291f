package payments

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/config"
	"github.com/segmentio/encoding/json"
)

// Processor is the subset of the payment provider the checkout flow needs.
type Processor interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)
}

type CustomerParams struct {
	Email  string
	UserID string
}

type Customer struct {
	ID string `json:"id"`
}

type CheckoutSessionParams struct {
	CustomerID  string
	Currency    string
	ProductName string
	Description string
	UnitAmount  int
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

type CheckoutSession struct {
	ID       string            `json:"id"`
	URL      string            `json:"url"`
	Customer string            `json:"customer"`
	Metadata map[string]string `json:"metadata"`
}

// APIError is the provider's error envelope.
type APIError struct {
	StatusCode int
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment provider responded with status %d: %s", e.StatusCode, e.Message)
}

// Client is a form-encoded client for the Stripe API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    cfg.StripeBaseURL,
		apiKey:     cfg.StripeAPIKey,
	}
}

func (cl *Client) CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error) {
	form := url.Values{}
	form.Set("email", params.Email)
	form.Set("metadata[userId]", params.UserID)

	customer := &Customer{}
	if err := cl.post(ctx, "/v1/customers", form, customer); err != nil {
		return nil, errors.Wrap(err, "create customer")
	}
	return customer, nil
}

func (cl *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("customer", params.CustomerID)
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(params.Currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.Itoa(params.UnitAmount))
	form.Set("line_items[0][price_data][product_data][name]", params.ProductName)
	if params.Description != "" {
		form.Set("line_items[0][price_data][product_data][description]", params.Description)
	}
	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	session := &CheckoutSession{}
	if err := cl.post(ctx, "/v1/checkout/sessions", form, session); err != nil {
		return nil, errors.Wrap(err, "create checkout session")
	}
	return session, nil
}

func (cl *Client) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cl.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Authorization", "Bearer "+cl.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := cl.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.WithStack(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		envelope := struct {
			Error APIError `json:"error"`
		}{}
		_ = json.Unmarshal(body, &envelope)
		envelope.Error.StatusCode = resp.StatusCode
		if envelope.Error.Message == "" {
			envelope.Error.Message = http.StatusText(resp.StatusCode)
		}
		return &envelope.Error
	}

	return errors.WithStack(json.Unmarshal(body, out))
}
