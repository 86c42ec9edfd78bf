package llm

import (
	"fmt"
	"strings"
)

// Provider identifiers accepted by the API and CLI.
const (
	ProviderGemini     = "gemini"
	ProviderPerplexity = "perplexity"
	ProviderHF         = "hf"
)

// ClientFactory builds a Client for a provider from an API key and an
// optional model override. Concrete constructors live in the provider
// subpackages; the web layer registers them at startup so this package
// stays import-cycle free.
type ClientFactory func(apiKey, model string) (Client, error)

var factories = map[string]ClientFactory{}

// RegisterProvider installs the constructor for a provider name.
func RegisterProvider(name string, factory ClientFactory) {
	factories[strings.ToLower(name)] = factory
}

// NewClient builds a client for the given provider.
func NewClient(provider, apiKey, model string) (Client, error) {
	factory, ok := factories[strings.ToLower(provider)]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (supported: %s)", provider, strings.Join(SupportedProviders(), ", "))
	}
	return factory(apiKey, model)
}

// SupportedProviders lists the registered provider names.
func SupportedProviders() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}
