package client

import (
	"context"
	"sync"

	"github.com/portoviejo/incidentes/models"
)

// Feed is the category-filtered incident list shown on the home screen.
// Responses are applied in request order: one issued before the latest
// applied response is dropped.
type Feed struct {
	client *Client

	mu         sync.Mutex
	tipo       string
	items      []models.IncidentView
	err        error
	issued     uint64
	applied    uint64
	loads      int
	refreshing bool
}

func NewFeed(c *Client) *Feed {
	return &Feed{client: c, tipo: models.FilterAll}
}

// Load fetches the feed for tipo and makes it the current filter.
func (f *Feed) Load(ctx context.Context, tipo string) error {
	f.mu.Lock()
	f.tipo = tipo
	f.loads++
	seq := f.begin()
	f.mu.Unlock()

	err := f.fetch(ctx, seq, tipo)

	f.mu.Lock()
	f.loads--
	f.mu.Unlock()
	return err
}

// Refresh refetches the current filter. It is a no-op while a refresh is running.
func (f *Feed) Refresh(ctx context.Context) error {
	f.mu.Lock()
	if f.refreshing {
		f.mu.Unlock()
		return nil
	}
	f.refreshing = true
	tipo := f.tipo
	seq := f.begin()
	f.mu.Unlock()

	err := f.fetch(ctx, seq, tipo)

	f.mu.Lock()
	f.refreshing = false
	f.mu.Unlock()
	return err
}

func (f *Feed) begin() uint64 {
	f.issued++
	return f.issued
}

func (f *Feed) fetch(ctx context.Context, seq uint64, tipo string) error {
	items, err := f.client.ListIncidents(ctx, tipo)

	f.mu.Lock()
	defer f.mu.Unlock()
	if seq < f.applied {
		return err
	}
	f.applied = seq
	f.err = err
	if err == nil {
		f.items = items
	}
	return err
}

// Items returns a copy of the current list.
func (f *Feed) Items() []models.IncidentView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.IncidentView(nil), f.items...)
}

func (f *Feed) Tipo() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tipo
}

// Err is the error of the latest applied fetch.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Feed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads > 0
}

func (f *Feed) Refreshing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshing
}
