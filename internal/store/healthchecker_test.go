package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store/memory"
)

// downStore answers Ping with an error.
type downStore struct{ store.Store }

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

// lookupOnly hides the driver's Ping so the checker falls back to a lookup.
type lookupOnly struct{ store.Store }

type brokenRegions struct{ store.Regions }

func (brokenRegions) Get(context.Context, model.RegionKind, string) (*model.Region, error) {
	return nil, errors.New("disk I/O error")
}

type brokenStore struct{ store.Store }

func (brokenStore) Regions() store.Regions { return brokenRegions{} }

// checkOnce runs one check: Start checks immediately and returns on a done context.
func checkOnce(s store.Store) bool {
	hc := store.NewStoreHealthChecker(s, zerolog.Nop(), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hc.Start(ctx, time.Hour)
	return hc.IsHealthy()
}

func TestStoreHealthChecker(t *testing.T) {
	assert.False(t, store.NewStoreHealthChecker(memory.New(), zerolog.Nop(), time.Second).IsHealthy())

	assert.True(t, checkOnce(memory.New()))
	assert.False(t, checkOnce(downStore{memory.New()}))

	// not-found on the sentinel region still proves the store answered
	assert.True(t, checkOnce(lookupOnly{memory.New()}))
	assert.False(t, checkOnce(brokenStore{memory.New()}))
}
