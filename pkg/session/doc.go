// Package session runs realtime voice sessions.
//
// A Manager owns at most one active Session. Each Session is driven by a
// single event-loop goroutine: transport callbacks, control channel
// messages, timer ticks and API calls are posted to the loop as typed
// events and handled one at a time, so Session fields need no locks.
// Blocking work (opening the microphone, gathering ICE candidates and
// exchanging the SDP offer, ICE restarts) runs in helper goroutines that
// post their result back.
//
// Lifecycle:
//
//	Idle -> AcquiringMedia -> Negotiating -> Connected <-> Recovering
//	                                  \           \          \
//	                                   +-----------+----------+--> Failed -> Closed
//
// Teardown is the only cancellation path. It releases the local media,
// the transport, the control channel and the timers, in that order, and
// is safe to reach from any state and more than once.
package session
