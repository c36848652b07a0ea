package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "test-openai-key")
	defer os.Unsetenv("OPENAI_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.OpenAIAPIKey != "test-openai-key" {
		t.Errorf("Expected OpenAIAPIKey 'test-openai-key', got '%s'", cfg.OpenAIAPIKey)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("OPENAI_API_KEY")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when OPENAI_API_KEY is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "test-openai-key")
	defer os.Unsetenv("OPENAI_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected default Port '8000', got '%s'", cfg.Port)
	}

	if cfg.IntakeAPIURL != "http://localhost:8000/api/intake" {
		t.Errorf("Expected default IntakeAPIURL 'http://localhost:8000/api/intake', got '%s'", cfg.IntakeAPIURL)
	}

	if cfg.ConnDetailsEndpoint != "/api/connection-details" {
		t.Errorf("Expected default ConnDetailsEndpoint '/api/connection-details', got '%s'", cfg.ConnDetailsEndpoint)
	}

	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("Expected default OpenAIModel 'gpt-4o-mini', got '%s'", cfg.OpenAIModel)
	}

	if cfg.DeepgramModel != "nova-2" {
		t.Errorf("Expected default DeepgramModel 'nova-2', got '%s'", cfg.DeepgramModel)
	}

	if cfg.CartesiaVoiceID != "sonic-english" {
		t.Errorf("Expected default CartesiaVoiceID 'sonic-english', got '%s'", cfg.CartesiaVoiceID)
	}

	if cfg.SessionStore != "memory" {
		t.Errorf("Expected default SessionStore 'memory', got '%s'", cfg.SessionStore)
	}

	if cfg.HistoryWindow != 10 {
		t.Errorf("Expected default HistoryWindow 10, got %d", cfg.HistoryWindow)
	}

	if cfg.SessionTTLHours != 24 {
		t.Errorf("Expected default SessionTTLHours 24, got %d", cfg.SessionTTLHours)
	}
}

func TestLoad_InvalidSessionStore(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "test-openai-key")
	os.Setenv("SESSION_STORE", "postgres")
	defer os.Unsetenv("OPENAI_API_KEY")
	defer os.Unsetenv("SESSION_STORE")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for unsupported SESSION_STORE")
	}
}

func TestLoadProxy_Defaults(t *testing.T) {
	cfg, err := LoadProxy()
	if err != nil {
		t.Fatalf("LoadProxy() failed: %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("Expected default proxy Port '3000', got '%s'", cfg.Port)
	}

	if cfg.IntakeAPIURL != "http://localhost:8000/api/intake" {
		t.Errorf("Expected default IntakeAPIURL 'http://localhost:8000/api/intake', got '%s'", cfg.IntakeAPIURL)
	}

	if cfg.TokenTTLMinutes != 15 {
		t.Errorf("Expected default TokenTTLMinutes 15, got %d", cfg.TokenTTLMinutes)
	}
}

func TestConfig_ResilienceDefaults(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "test-openai-key")
	defer os.Unsetenv("OPENAI_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.CircuitBreakerMaxFailures != 5 {
		t.Errorf("Expected default CircuitBreakerMaxFailures 5, got %d", cfg.CircuitBreakerMaxFailures)
	}

	if cfg.CircuitBreakerResetTimeout != 30 {
		t.Errorf("Expected default CircuitBreakerResetTimeout 30, got %d", cfg.CircuitBreakerResetTimeout)
	}

	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("Expected default RetryMaxAttempts 3, got %d", cfg.RetryMaxAttempts)
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_KEY", "test-value")
	defer os.Unsetenv("TEST_KEY")

	value := GetEnv("TEST_KEY", "default")
	if value != "test-value" {
		t.Errorf("Expected 'test-value', got '%s'", value)
	}

	value = GetEnv("NON_EXISTENT_KEY", "default")
	if value != "default" {
		t.Errorf("Expected 'default', got '%s'", value)
	}
}
