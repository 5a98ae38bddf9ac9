package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name       string
	configured bool
}

func (f *fakeProvider) Name() string         { return f.name }
func (f *fakeProvider) DefaultModel() string { return "fake-model" }
func (f *fakeProvider) IsConfigured() bool   { return f.configured }
func (f *fakeProvider) Stream(ctx context.Context, req StreamRequest, onChunk func(string)) (string, error) {
	return "", nil
}
func (f *fakeProvider) Invoke(ctx context.Context, turns []Turn, temperature float64) (string, error) {
	return "", nil
}

func TestRouterGetProvider(t *testing.T) {
	r := NewRouter("openai")
	r.RegisterProvider(&fakeProvider{name: "openai", configured: true})
	r.RegisterProvider(&fakeProvider{name: "gemini", configured: false})

	p, err := r.GetProvider("")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = r.GetProvider("openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	_, err = r.GetProvider("gemini")
	assert.ErrorContains(t, err, "not configured")

	_, err = r.GetProvider("missing")
	assert.ErrorContains(t, err, "not found")
}

func TestRouterListProviders(t *testing.T) {
	r := NewRouter("openai")
	r.RegisterProvider(&fakeProvider{name: "openai", configured: true})
	r.RegisterProvider(&fakeProvider{name: "azure", configured: false})

	assert.Equal(t, []string{"openai"}, r.ListProviders())
	assert.Equal(t, "openai", r.DefaultProvider())
}
