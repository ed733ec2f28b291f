package videoassets

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// FakeHost is an in-memory Host used by tests and local development when
// no video credentials are configured.
type FakeHost struct {
	mu      sync.Mutex
	next    int
	assets  map[string]string
	deleted []string

	// CreateErr and DeleteErr, when set, are returned by the matching call.
	CreateErr error
	DeleteErr error
}

func NewFakeHost() *FakeHost {
	return &FakeHost{assets: map[string]string{}}
}

func (f *FakeHost) CreateAsset(_ context.Context, inputURL string) (*Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.next++
	id := fmt.Sprintf("asset-%d", f.next)
	playback := fmt.Sprintf("playback-%d", f.next)
	f.assets[id] = inputURL
	return &Asset{ID: id, PlaybackID: &playback}, nil
}

func (f *FakeHost) DeleteAsset(_ context.Context, assetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return errors.WithStack(f.DeleteErr)
	}
	delete(f.assets, assetID)
	f.deleted = append(f.deleted, assetID)
	return nil
}

// Deleted returns the ids passed to successful DeleteAsset calls.
func (f *FakeHost) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// Live returns the number of assets that exist on the fake host.
func (f *FakeHost) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.assets)
}
