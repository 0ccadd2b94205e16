// Package provider selects and constructs the LLM chat model backend at
// runtime. Supported backends: Ollama, OpenAI, Azure OpenAI, AWS Bedrock,
// Google Gemini.
package provider

import (
	"fmt"
)

// Backend enumerates the supported LLM inference providers.
type Backend string

const (
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
	// BackendBedrock selects AWS Bedrock.
	BackendBedrock Backend = "bedrock"
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
)

// Config holds all provider-level configuration resolved from environment
// variables or explicit caller-supplied values.
type Config struct {
	// Backend identifies which inference provider to use.
	Backend Backend

	// Ollama holds Ollama-specific settings.
	Ollama OllamaConfig
	// OpenAI holds OpenAI-specific settings.
	OpenAI OpenAIConfig
	// Azure holds Azure OpenAI-specific settings.
	Azure AzureConfig
	// Bedrock holds AWS Bedrock-specific settings.
	Bedrock BedrockConfig
	// Gemini holds Google Gemini-specific settings.
	Gemini GeminiConfig

	// Tuning holds sampling parameters shared across backends.
	Tuning Tuning
}

// OllamaConfig holds Ollama backend settings.
type OllamaConfig struct {
	// Host is the Ollama API endpoint.
	Host string
	// Model is the Ollama model name.
	Model string
}

// OpenAIConfig holds OpenAI backend settings.
type OpenAIConfig struct {
	// APIKey authenticates against the OpenAI API.
	APIKey string
	// Model is the OpenAI model name.
	Model string
}

// AzureConfig holds Azure OpenAI backend settings.
type AzureConfig struct {
	// APIKey authenticates against the Azure OpenAI resource.
	APIKey string
	// Endpoint is the Azure OpenAI resource endpoint.
	Endpoint string
	// Deployment is the deployment name (used as the model identifier).
	Deployment string
	// APIVersion is the Azure OpenAI REST API version.
	APIVersion string
}

// BedrockConfig holds AWS Bedrock backend settings. AWS credentials are
// resolved via the standard SDK credential chain.
type BedrockConfig struct {
	// Region is the AWS region.
	Region string
	// ModelID is the Bedrock model identifier.
	ModelID string
	// Endpoint overrides the Bedrock-compatible API endpoint.
	Endpoint string
	// APIKey authenticates against the Bedrock-compatible endpoint when set.
	APIKey string
}

// GeminiConfig holds Google Gemini backend settings.
type GeminiConfig struct {
	// APIKey authenticates against Google AI Studio.
	APIKey string
	// Model is the Gemini model name.
	Model string
}

// Tuning holds sampling parameters shared across backends.
type Tuning struct {
	// MaxTokens caps the number of tokens the model may generate per response.
	MaxTokens int
	// Temperature controls response randomness (0.0 to 1.0).
	Temperature float32
	// Seed pins sampling on backends that support deterministic output.
	// Zero means unset. Backends without seed support ignore it.
	Seed int
}

// Validate checks that the selected backend has the settings it needs.
// Called by New so misconfiguration surfaces at startup, not on first request.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendOllama:
		if c.Ollama.Model == "" {
			return fmt.Errorf("provider: OLLAMA_MODEL is required for ollama backend")
		}
	case BackendOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("provider: OPENAI_API_KEY is required for openai backend")
		}
	case BackendAzure:
		if c.Azure.APIKey == "" {
			return fmt.Errorf("provider: AZURE_OPENAI_API_KEY is required for azure backend")
		}
		if c.Azure.Endpoint == "" {
			return fmt.Errorf("provider: AZURE_OPENAI_ENDPOINT is required for azure backend")
		}
		if c.Azure.Deployment == "" {
			return fmt.Errorf("provider: AZURE_OPENAI_DEPLOYMENT is required for azure backend")
		}
	case BackendBedrock:
		if c.Bedrock.ModelID == "" {
			return fmt.Errorf("provider: BEDROCK_MODEL_ID is required for bedrock backend")
		}
	case BackendGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("provider: GOOGLE_API_KEY is required for gemini backend")
		}
	default:
		return fmt.Errorf("provider: unknown backend %q, valid values: ollama, openai, azure, bedrock, gemini", c.Backend)
	}
	return nil
}

// ModelName returns the model identifier the active backend will use.
func (c *Config) ModelName() string {
	switch c.Backend {
	case BackendOllama:
		return c.Ollama.Model
	case BackendOpenAI:
		return c.OpenAI.Model
	case BackendAzure:
		return c.Azure.Deployment
	case BackendBedrock:
		return c.Bedrock.ModelID
	case BackendGemini:
		return c.Gemini.Model
	}
	return ""
}
