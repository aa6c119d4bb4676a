// Package realtime speaks the control protocol of a realtime speech model
// session.
//
// # Negotiation
//
// A Negotiator exchanges a local SDP offer for the remote answer. Direct
// talks to the model endpoint with a multipart request; Proxy goes through
// a glue server that holds the same request logic:
//
//	n := realtime.NewDirect(realtime.WithHTTPClient(httpClient))
//	answer, err := n.Negotiate(ctx, realtime.Offer{
//	    SDP:        localSDP,
//	    Credential: apiKey,
//	    Model:      realtime.DefaultModel,
//	    Voice:      realtime.VoiceAlloy,
//	})
//
// # Control channel
//
// ControlChannel wraps the "oai-events" data channel. Outbound messages are
// typed (SessionUpdate, ResponseCancel); inbound payloads are parsed into a
// closed set of Message variants:
//
//	msg, err := realtime.Parse(data)
//	switch m := msg.(type) {
//	case realtime.ResponseCreated:
//	case realtime.APIError:
//	    if m.Err.Transient() { ... }
//	case realtime.Unrecognized:
//	    slog.Debug("unhandled event", "type", m.Type)
//	}
package realtime
