package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const (
	// DefaultCallsURL is the endpoint that exchanges SDP offers for answers.
	DefaultCallsURL = "https://api.openai.com/v1/realtime/calls"

	// DefaultWebSocketURL is the upstream of the legacy relay.
	DefaultWebSocketURL = "wss://api.openai.com/v1/realtime"
)

// Sentinel errors for offers.
var (
	ErrMissingCredential = errors.New("realtime: credential is required")
	ErrMissingSDP        = errors.New("realtime: sdp offer is required")
)

// clientConfig holds the HTTP configuration of a negotiator.
type clientConfig struct {
	url        string
	httpClient *http.Client
}

// Option configures a negotiator.
type Option func(*clientConfig)

// WithURL overrides the endpoint URL.
func WithURL(url string) Option {
	return func(c *clientConfig) {
		c.url = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

func newClientConfig(url string, opts []Option) *clientConfig {
	cfg := &clientConfig{url: url, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Offer is a local session description plus the session parameters sent
// with it.
type Offer struct {
	SDP           string
	Credential    string
	Model         string
	Voice         string
	Instructions  string
	TurnDetection *TurnDetection
}

func (o Offer) withDefaults() Offer {
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.Voice == "" {
		o.Voice = VoiceAlloy
	}
	if o.TurnDetection == nil {
		o.TurnDetection = DefaultTurnDetection()
	}
	return o
}

func (o Offer) validate() error {
	if o.Credential == "" {
		return ErrMissingCredential
	}
	if strings.TrimSpace(o.SDP) == "" {
		return ErrMissingSDP
	}
	return nil
}

// Negotiator exchanges an offer for the remote answer SDP.
type Negotiator interface {
	Negotiate(ctx context.Context, offer Offer) (answer string, err error)
}

// callSession is the "session" form field of a calls request.
type callSession struct {
	Model         string         `json:"model"`
	Voice         string         `json:"voice"`
	TurnDetection *TurnDetection `json:"turn_detection"`
	Instructions  string         `json:"instructions,omitzero"`
}

// Direct negotiates with the remote endpoint itself.
type Direct struct {
	config *clientConfig
}

// NewDirect creates a Direct negotiator for DefaultCallsURL.
func NewDirect(opts ...Option) *Direct {
	return &Direct{config: newClientConfig(DefaultCallsURL, opts)}
}

// Negotiate posts the offer as multipart/form-data with "sdp" and "session"
// fields.
func (d *Direct) Negotiate(ctx context.Context, offer Offer) (string, error) {
	offer = offer.withDefaults()
	if err := offer.validate(); err != nil {
		return "", err
	}

	session, err := json.Marshal(callSession{
		Model:         offer.Model,
		Voice:         offer.Voice,
		TurnDetection: offer.TurnDetection,
		Instructions:  strings.TrimSpace(offer.Instructions),
	})
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("sdp", offer.SDP); err != nil {
		return "", err
	}
	if err := mw.WriteField("session", string(session)); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+offer.Credential)
	req.Header.Set("OpenAI-Beta", "realtime=v1")
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return exchange(d.config.httpClient, req)
}

// Proxy negotiates through a glue server exposing POST /realtime/calls.
type Proxy struct {
	config *clientConfig
}

// NewProxy creates a Proxy negotiator for the glue server at baseURL.
func NewProxy(baseURL string, opts ...Option) *Proxy {
	return &Proxy{config: newClientConfig(strings.TrimRight(baseURL, "/")+"/realtime/calls", opts)}
}

// proxyRequest is the JSON body the glue server accepts.
type proxyRequest struct {
	SDP          string `json:"sdp"`
	Model        string `json:"model,omitzero"`
	Voice        string `json:"voice,omitzero"`
	Instructions string `json:"instructions,omitzero"`
}

// Negotiate posts the offer as JSON with the credential in Authorization.
func (p *Proxy) Negotiate(ctx context.Context, offer Offer) (string, error) {
	offer = offer.withDefaults()
	if err := offer.validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(proxyRequest{
		SDP:          offer.SDP,
		Model:        offer.Model,
		Voice:        offer.Voice,
		Instructions: offer.Instructions,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+offer.Credential)
	req.Header.Set("Content-Type", "application/json")
	return exchange(p.config.httpClient, req)
}

func exchange(client *http.Client, req *http.Request) (string, error) {
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("realtime: send offer: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &NegotiationError{Status: resp.StatusCode, Body: string(body)}
	}
	if err != nil {
		return "", fmt.Errorf("realtime: read answer: %w", err)
	}
	return string(body), nil
}

var (
	_ Negotiator = (*Direct)(nil)
	_ Negotiator = (*Proxy)(nil)
)
