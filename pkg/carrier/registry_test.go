package carrier_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kramstore/delivery/pkg/carrier"
	"github.com/kramstore/delivery/pkg/carrier/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	registry := carrier.NewRegistry()

	registry.Register(mock.New("test-carrier"))

	got, err := registry.Get("test-carrier")
	require.NoError(t, err, "carrier should be registered")
	assert.Equal(t, "test-carrier", got.Name())
}

func TestRegistry_Register_Override(t *testing.T) {
	registry := carrier.NewRegistry()

	registry.Register(mock.New("test-carrier"))
	assert.Equal(t, 1, registry.Count())

	// Register again with same name should override
	registry.Register(mock.New("test-carrier"))
	assert.Equal(t, 1, registry.Count())
}

func TestRegistry_Get_NotFound(t *testing.T) {
	registry := carrier.NewRegistry()

	_, err := registry.Get("nonexistent")
	assert.Error(t, err, "should return error for unregistered carrier")
	assert.True(t, errors.Is(err, carrier.ErrCarrierNotFound))
}

func TestRegistry_All(t *testing.T) {
	registry := carrier.NewRegistry()

	registry.Register(mock.New("carrier-a"))
	registry.Register(mock.New("carrier-b"))
	registry.Register(mock.New("carrier-c"))

	assert.Len(t, registry.All(), 3)
}

func TestRegistry_Names(t *testing.T) {
	registry := carrier.NewRegistry()

	registry.Register(mock.New("novaposhta"))
	registry.Register(mock.New("ukrposhta"))

	names := registry.Names()
	assert.Len(t, names, 2)
	assert.Contains(t, names, "novaposhta")
	assert.Contains(t, names, "ukrposhta")
}

func TestRegistry_CalculateAll(t *testing.T) {
	registry := carrier.NewRegistry()
	registry.Register(mock.New("carrier-a"))
	registry.Register(mock.New("carrier-b"))

	req := &carrier.CostRequest{
		OriginCityRef:      "lviv-ref",
		DestinationCityRef: "kyiv-ref",
		WeightKg:           2,
		DeclaredValue:      1500,
	}

	results, errs := registry.CalculateAll(context.Background(), req)
	assert.Empty(t, errs)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, 60.0, r.Estimate.Amount) // 50 base + 5 * 2kg
	}
}

func TestRegistry_CalculateAll_Empty(t *testing.T) {
	registry := carrier.NewRegistry()

	results, errs := registry.CalculateAll(context.Background(), &carrier.CostRequest{})
	assert.Nil(t, results)
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], carrier.ErrCarrierNotFound))
}
