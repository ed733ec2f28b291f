package payments

import (
	"context"
	"fmt"
	"sync"
)

// FakeProcessor records calls instead of reaching the payment provider.
type FakeProcessor struct {
	mu        sync.Mutex
	customers []CustomerParams
	sessions  []CheckoutSessionParams

	CustomerErr error
	SessionErr  error
}

func NewFakeProcessor() *FakeProcessor {
	return &FakeProcessor{}
}

func (f *FakeProcessor) CreateCustomer(_ context.Context, params CustomerParams) (*Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CustomerErr != nil {
		return nil, f.CustomerErr
	}
	f.customers = append(f.customers, params)
	return &Customer{ID: fmt.Sprintf("cus_%d", len(f.customers))}, nil
}

func (f *FakeProcessor) CreateCheckoutSession(_ context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SessionErr != nil {
		return nil, f.SessionErr
	}
	f.sessions = append(f.sessions, params)
	id := fmt.Sprintf("cs_%d", len(f.sessions))
	return &CheckoutSession{
		ID:       id,
		URL:      "https://checkout.example.com/" + id,
		Customer: params.CustomerID,
		Metadata: params.Metadata,
	}, nil
}

func (f *FakeProcessor) Customers() []CustomerParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CustomerParams(nil), f.customers...)
}

func (f *FakeProcessor) Sessions() []CheckoutSessionParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CheckoutSessionParams(nil), f.sessions...)
}
