package tts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kalam360/intake-agent/internal/config"
	"github.com/kalam360/intake-agent/internal/observability"
)

// outputSampleRate matches the browser playback rate so the client can feed
// the audio straight into its playback buffer.
const outputSampleRate = 16000

// CartesiaClient implements Client using Cartesia's TTS API.
type CartesiaClient struct {
	config     *config.Config
	apiKey     string
	apiURL     string
	voiceID    string
	httpClient *http.Client
	mu         sync.RWMutex
	isActive   bool
	logger     zerolog.Logger
}

// CartesiaRequest is the request payload for the Cartesia TTS API.
type CartesiaRequest struct {
	Text            string  `json:"text"`
	VoiceID         string  `json:"voice_id"`
	ModelID         string  `json:"model_id,omitempty"`
	OutputFormat    string  `json:"output_format,omitempty"`
	SampleRate      int     `json:"sample_rate,omitempty"`
	Speed           float64 `json:"speed,omitempty"`
	Stability       float64 `json:"stability,omitempty"`
	SimilarityBoost float64 `json:"similarity_boost,omitempty"`
}

// NewCartesiaClient creates a new Cartesia TTS client.
func NewCartesiaClient(cfg *config.Config) *CartesiaClient {
	return &CartesiaClient{
		config:     cfg,
		apiKey:     cfg.CartesiaAPIKey,
		apiURL:     "https://api.cartesia.ai/v1/tts",
		voiceID:    cfg.CartesiaVoiceID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     observability.Component("tts"),
	}
}

// Synthesize converts text to audio and streams it.
func (c *CartesiaClient) Synthesize(text string) (<-chan *AudioChunk, error) {
	c.mu.Lock()
	if c.isActive {
		c.mu.Unlock()
		return nil, fmt.Errorf("cartesia client is already synthesizing")
	}
	c.isActive = true
	c.mu.Unlock()

	reqBody := CartesiaRequest{
		Text:            text,
		VoiceID:         c.voiceID,
		ModelID:         c.config.CartesiaModelID,
		OutputFormat:    "pcm",
		SampleRate:      outputSampleRate,
		Speed:           1.0,
		Stability:       0.5,
		SimilarityBoost: 0.75,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		c.setInactive()
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		c.setInactive()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setInactive()
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		c.setInactive()
		return nil, fmt.Errorf("cartesia API returned status %d", resp.StatusCode)
	}

	audioChan := make(chan *AudioChunk, 10)

	go func() {
		defer func() {
			resp.Body.Close()
			close(audioChan)
			c.setInactive()
		}()

		audioData, err := io.ReadAll(resp.Body)
		if err != nil {
			c.logger.Error().Err(err).Msg("Error reading Cartesia audio response")
			return
		}

		if len(audioData) == 0 {
			c.logger.Warn().Msg("Cartesia returned empty audio data")
			return
		}

		select {
		case audioChan <- &AudioChunk{
			Data:       audioData,
			SampleRate: outputSampleRate,
			Channels:   1,
		}:
			c.logger.Debug().Int("bytes", len(audioData)).Msg("Sent TTS audio")
		default:
			c.logger.Warn().Msg("Audio channel full, dropping audio chunk")
		}
	}()

	return audioChan, nil
}

func (c *CartesiaClient) setInactive() {
	c.mu.Lock()
	c.isActive = false
	c.mu.Unlock()
}

// Stop stops any ongoing synthesis.
func (c *CartesiaClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isActive {
		return nil
	}
	c.isActive = false
	return nil
}

// Close closes the client and cleans up resources.
func (c *CartesiaClient) Close() error {
	return c.Stop()
}

// IsActive returns whether the client is currently synthesizing.
func (c *CartesiaClient) IsActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isActive
}
