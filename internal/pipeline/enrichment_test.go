package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/askelio/docpipeline/internal/domain/entities"
	"github.com/askelio/docpipeline/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEnrichmentStage_FillsMissingVendorAttributesWithoutOverwriting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ico":"12345678","obchodniJmeno":"Registry Name","dic":"CZ12345678","sidlo":{"textovaAdresa":"Registry Address"}}`))
	}))
	defer srv.Close()

	stage := NewEnrichmentStage(registry.NewClient(srv.URL, zap.NewNop()))
	record := &entities.StructuredRecord{
		Vendor: entities.Party{Name: "Caller-Supplied Name", RegistrationNumber: "12345678"},
	}

	stage.Enrich(context.Background(), record)

	assert.Equal(t, "Caller-Supplied Name", record.Vendor.Name, "caller-supplied name must never be overwritten")
	assert.Equal(t, "CZ12345678", record.Vendor.TaxNumber, "missing tax number is filled from the registry")
	assert.Equal(t, "Registry Address", record.Vendor.Address)
	assert.True(t, record.Vendor.Enriched)
	require.NotNil(t, record.EnrichmentMeta)
	assert.True(t, record.EnrichmentMeta.Success)
}

func TestEnrichmentStage_RegistryNotFoundIsNonFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	stage := NewEnrichmentStage(registry.NewClient(srv.URL, zap.NewNop()))
	record := &entities.StructuredRecord{
		Vendor: entities.Party{RegistrationNumber: "12345678"},
	}

	stage.Enrich(context.Background(), record)

	require.NotNil(t, record.EnrichmentMeta)
	assert.False(t, record.EnrichmentMeta.Success)
	assert.False(t, record.Vendor.Enriched)
	assert.Contains(t, record.Notes[0], "registry_not_found")
}

func TestEnrichmentStage_NoRegistrationNumberSkipsLookupAndSucceeds(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	stage := NewEnrichmentStage(registry.NewClient(srv.URL, zap.NewNop()))
	record := &entities.StructuredRecord{Vendor: entities.Party{Name: "No Registration Number"}}

	stage.Enrich(context.Background(), record)

	assert.False(t, called)
	require.NotNil(t, record.EnrichmentMeta)
	assert.True(t, record.EnrichmentMeta.Success, "nothing attempted counts as success")
	assert.Empty(t, record.Notes)
}

func TestEnrichmentStage_EnrichesBothVendorAndCustomerIndependently(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ico":"12345678","obchodniJmeno":"Some Registry Entity"}`))
	}))
	defer srv.Close()

	stage := NewEnrichmentStage(registry.NewClient(srv.URL, zap.NewNop()))
	record := &entities.StructuredRecord{
		Vendor:   entities.Party{RegistrationNumber: "12345678"},
		Customer: entities.Party{RegistrationNumber: "12345678"},
	}

	stage.Enrich(context.Background(), record)

	assert.True(t, record.Vendor.Enriched)
	assert.True(t, record.Customer.Enriched)
	assert.Len(t, record.Notes, 2)
}
