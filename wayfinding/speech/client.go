package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wricardo/mall-parking/wayfinder/logger"
)

// DefaultTimeout bounds a fire-and-forget speech request
const DefaultTimeout = 10 * time.Second

// Client posts text to a speech-synthesis endpoint
type Client struct {
	url        string
	httpClient *http.Client
	timeout    time.Duration
	log        *zerolog.Logger
}

// speakRequest is the JSON body sent to the synthesizer
type speakRequest struct {
	Text   string `json:"text"`
	Locale string `json:"locale"`
}

// NewClient creates a speech client for the given endpoint
func NewClient(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		log:        logger.Get(),
	}
}

// WithTimeout returns the client with a different async timeout
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.timeout = d
	return c
}

// WithLogger returns the client with a different logger
func (c *Client) WithLogger(l *zerolog.Logger) *Client {
	c.log = l
	return c
}

// Speak sends text to the synthesizer and waits for the audio to be produced.
// The audio itself is discarded; playback happens on the synthesizer's side.
func (c *Client) Speak(ctx context.Context, text, locale string) error {
	data, err := json.Marshal(speakRequest{Text: text, Locale: locale})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("speech request %s: %w", requestID, err)
	}
	defer resp.Body.Close()

	n, _ := io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("speech request %s: synthesizer returned %d", requestID, resp.StatusCode)
	}

	c.log.Debug().Msgf("[SPEECH] id=%s locale=%s chars=%d audio_bytes=%d", requestID, locale, len(text), n)
	return nil
}

// SpeakAsync speaks in the background. Failures are logged and not retried.
func (c *Client) SpeakAsync(text, locale string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if err := c.Speak(ctx, text, locale); err != nil {
			c.log.Warn().Err(err).Msg("[SPEECH] failed")
		}
	}()
}
