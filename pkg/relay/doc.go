// Package relay implements the legacy websocket control path and the glue
// server that fronts the remote realtime API.
//
// The Server exposes:
//
//	GET  /ws-proxy        byte relay to the realtime websocket
//	POST /realtime/calls  SDP offer forwarding (JSON in, application/sdp out)
//	GET  /healthz         liveness probe
//	GET  /metrics         prometheus collectors
//
// A /ws-proxy client first sends {"type":"connect","apiKey":...,"model":...,
// "voice":...}. The server answers {"type":"connected"} once the upstream
// websocket is open, relays frames both ways, and reports
// {"type":"disconnected","code":...,"reason":...} when upstream closes.
//
// The Client speaks that protocol. Losing the relay is never fatal to a
// session: the peer connection carries the call.
package relay
