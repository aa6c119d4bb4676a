package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerExposesCollectors(t *testing.T) {
	Interruptions.Inc()
	StateTransitions.WithLabelValues("connected").Inc()
	ControlMessages.WithLabelValues("out", "response.cancel").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"callmanager_interruptions_total",
		`callmanager_state_transitions_total{state="connected"}`,
		`callmanager_control_messages_total{direction="out",type="response.cancel"}`,
		"callmanager_sessions_active",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("missing %s", want)
		}
	}
}
