package realtime

// Client event types (sent from client to server).
const (
	EventTypeSessionUpdate  = "session.update"
	EventTypeResponseCancel = "response.cancel"
)

// Server event types (sent from server to client).
const (
	EventTypeError = "error"

	// Session events
	EventTypeSessionCreated = "session.created"
	EventTypeSessionUpdated = "session.updated"

	// Transcription events
	EventTypeInputAudioTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"
	EventTypeOutputAudioTranscriptDelta       = "conversation.item.output_audio_transcript.delta"

	// Response events
	EventTypeResponseCreated         = "response.created"
	EventTypeResponseDone            = "response.done"
	EventTypeResponseCancelled       = "response.cancelled"
	EventTypeResponseOutputItemAdded = "response.output_item.added"

	// Response audio events
	EventTypeResponseAudioDelta = "response.audio.delta"

	// Response audio transcript events
	EventTypeResponseAudioTranscriptDelta = "response.audio_transcript.delta"
	EventTypeResponseAudioTranscriptDone  = "response.audio_transcript.done"
)

// Relay notices, sent by the glue proxy on the legacy byte-relay path.
const (
	EventTypeRelayConnect      = "connect"
	EventTypeRelayConnected    = "connected"
	EventTypeRelayDisconnected = "disconnected"
)

// Control channel label used by the remote endpoint.
const ChannelLabel = "oai-events"

// Voices.
const (
	VoiceAlloy   = "alloy"
	VoiceAsh     = "ash"
	VoiceBallad  = "ballad"
	VoiceCoral   = "coral"
	VoiceEcho    = "echo"
	VoiceSage    = "sage"
	VoiceShimmer = "shimmer"
	VoiceVerse   = "verse"
)

// Audio formats accepted by the remote endpoint.
const (
	AudioFormatPCM16    = "pcm16"
	AudioFormatG711ULaw = "g711_ulaw"
	AudioFormatG711ALaw = "g711_alaw"
)

// Turn detection modes.
const VADServerVAD = "server_vad"

// DefaultModel is used when the caller does not pick one.
const DefaultModel = "gpt-realtime-mini"

// DefaultInstructions is sent when a session opens without instructions.
const DefaultInstructions = "You are a helpful voice assistant. Keep your answers short and conversational."
