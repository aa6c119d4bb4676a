// Package transport binds a session to a pion/webrtc peer connection.
//
// A Peer owns one PeerConnection with a single outbound G.711 µ-law audio
// track, the inbound audio track of the remote side and the "oai-events"
// data channel. Every callback is forwarded through a Handler; the caller is
// expected to serialize them (the session posts each one into its event
// loop).
//
// Offer creation waits for ICE gathering to finish, so the returned SDP
// carries every candidate and can be exchanged in a single HTTP round trip.
package transport
