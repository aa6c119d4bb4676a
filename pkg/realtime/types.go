package realtime

// SessionConfig is the "session" object of a session.update event.
type SessionConfig struct {
	// Instructions is the system prompt.
	Instructions string `json:"instructions,omitzero"`

	// InputAudioFormat specifies the input audio format.
	InputAudioFormat string `json:"input_audio_format,omitzero"`

	// OutputAudioFormat specifies the output audio format.
	OutputAudioFormat string `json:"output_audio_format,omitzero"`

	// Modalities specifies the output modalities.
	Modalities []string `json:"modalities,omitzero"`

	// TurnDetection configures server voice activity detection.
	// nil keeps the current setting.
	TurnDetection *TurnDetection `json:"turn_detection,omitzero"`
}

// TurnDetection configures voice activity detection.
type TurnDetection struct {
	// Type is the VAD mode, e.g. "server_vad".
	Type string `json:"type"`

	// Threshold is the VAD sensitivity (0.0-1.0).
	Threshold float64 `json:"threshold"`

	// PrefixPaddingMs is the padding before speech start (ms).
	PrefixPaddingMs int `json:"prefix_padding_ms"`

	// SilenceDurationMs is the silence that ends a user turn (ms).
	SilenceDurationMs int `json:"silence_duration_ms"`

	// CreateResponse makes the server respond when the user turn ends.
	CreateResponse bool `json:"create_response"`

	// InterruptResponse lets user speech interrupt an in-flight response.
	InterruptResponse bool `json:"interrupt_response"`
}

// DefaultTurnDetection returns the server VAD policy used for new sessions.
func DefaultTurnDetection() *TurnDetection {
	return &TurnDetection{
		Type:              VADServerVAD,
		Threshold:         0.5,
		PrefixPaddingMs:   300,
		SilenceDurationMs: 500,
		CreateResponse:    true,
		InterruptResponse: true,
	}
}

// InitialSession returns the full configuration sent when the control
// channel opens. Empty instructions fall back to DefaultInstructions and an
// empty audioFormat to g711_ulaw.
func InitialSession(instructions, audioFormat string) *SessionConfig {
	if instructions == "" {
		instructions = DefaultInstructions
	}
	if audioFormat == "" {
		audioFormat = AudioFormatG711ULaw
	}
	return &SessionConfig{
		Instructions:      instructions,
		InputAudioFormat:  audioFormat,
		OutputAudioFormat: audioFormat,
		Modalities:        []string{"audio", "text"},
		TurnDetection:     DefaultTurnDetection(),
	}
}
