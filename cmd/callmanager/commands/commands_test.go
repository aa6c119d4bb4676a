package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rafq345/callmanager/pkg/cli"
	"github.com/rafq345/callmanager/pkg/diag"
	"github.com/rafq345/callmanager/pkg/journal"
	"github.com/rafq345/callmanager/pkg/kv"
	"github.com/rafq345/callmanager/pkg/media/wavdev"
	"github.com/rafq345/callmanager/pkg/realtime"
	"github.com/rafq345/callmanager/pkg/session"
)

// setupTestEnv points HOME and the config file at a temp dir.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv(cli.EnvConfig, filepath.Join(dir, "config.yaml"))
	t.Setenv(cli.EnvAPIKey, "")
	return dir
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	globalConfig = nil
	rootCmd.SetOut(&outBuf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	stdout = outBuf.String()
	stderr = errBuf.String()
	if err != nil {
		exitCode = 1
		stderr += err.Error()
	}
	resetFlags(rootCmd)
	return
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Changed = false
		f.Value.Set(f.DefValue)
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, code := runCmd(t, args...)
	if code != 0 {
		t.Fatalf("%v: exit %d: %s", args, code, stderr)
	}
	return stdout
}

func writeWAV(t *testing.T, path string, rate int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	err = enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           make([]int, rate/10),
		SourceBitDepth: 16,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

// ---------------------------------------------------------------------------
// version

func TestVersion(t *testing.T) {
	setupTestEnv(t)
	stdout := mustRun(t, "version")
	if !strings.Contains(stdout, "callmanager") {
		t.Fatalf("expected 'callmanager', got: %s", stdout)
	}
}

func TestVersionJSON(t *testing.T) {
	setupTestEnv(t)
	stdout := mustRun(t, "version", "--format", "json")
	if !strings.Contains(stdout, `"version"`) {
		t.Fatalf("expected JSON, got: %s", stdout)
	}
}

func TestBadFormat(t *testing.T) {
	setupTestEnv(t)
	_, stderr, code := runCmd(t, "version", "--format", "xml")
	if code == 0 || !strings.Contains(stderr, "unsupported output format") {
		t.Fatalf("exit %d, stderr %q", code, stderr)
	}
}

// ---------------------------------------------------------------------------
// config

func TestConfigWorkflow(t *testing.T) {
	setupTestEnv(t)

	if out := mustRun(t, "config", "list"); !strings.Contains(out, "No contexts configured") {
		t.Errorf("empty list: %s", out)
	}
	mustRun(t, "config", "add-context", "dev")
	out := mustRun(t, "config", "set", "dev", "api_key", "sk-1234567890abcdef")
	if strings.Contains(out, "sk-1234567890abcdef") {
		t.Errorf("set printed the raw key: %s", out)
	}
	mustRun(t, "config", "set", "dev", "voice", "verse")

	out = mustRun(t, "config", "list")
	for _, want := range []string{"dev", "*", "verse", "sk-1***********cdef"} {
		if !strings.Contains(out, want) {
			t.Errorf("list missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, "config", "view")
	if !strings.Contains(out, "voice: verse") || strings.Contains(out, "sk-1234567890abcdef") {
		t.Errorf("view:\n%s", out)
	}

	out = mustRun(t, "config", "view", "dev", "--format", "json")
	var ctx map[string]any
	if err := json.Unmarshal([]byte(out), &ctx); err != nil {
		t.Fatalf("view json: %v\n%s", err, out)
	}
	if ctx["voice"] != "verse" {
		t.Errorf("view json = %v", ctx)
	}

	if _, _, code := runCmd(t, "config", "use-context", "missing"); code == 0 {
		t.Error("use-context of a missing context should fail")
	}
	mustRun(t, "config", "delete", "dev")
	if out := mustRun(t, "config", "list"); !strings.Contains(out, "No contexts configured") {
		t.Errorf("list after delete: %s", out)
	}
}

func TestConfigSetUnknownKey(t *testing.T) {
	setupTestEnv(t)
	mustRun(t, "config", "add-context", "dev")
	_, stderr, code := runCmd(t, "config", "set", "dev", "base_url", "x")
	if code == 0 || !strings.Contains(stderr, "unknown key") {
		t.Fatalf("exit %d, stderr %q", code, stderr)
	}
}

// ---------------------------------------------------------------------------
// devices

func TestDevices(t *testing.T) {
	setupTestEnv(t)
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "greeting.wav"), 16000)

	out := mustRun(t, "devices", "--dir", dir)
	for _, want := range []string{"audioinput", "greeting", "16000 Hz", "audiooutput", wavdev.DefaultSink} {
		if !strings.Contains(out, want) {
			t.Errorf("devices missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "No microphones") {
		t.Errorf("unexpected hint:\n%s", out)
	}
}

func TestDevicesEmpty(t *testing.T) {
	setupTestEnv(t)
	out := mustRun(t, "devices", "--dir", t.TempDir())
	if !strings.Contains(out, "No microphones") {
		t.Errorf("expected hint:\n%s", out)
	}
}

func TestDevicesFromContext(t *testing.T) {
	setupTestEnv(t)
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "office.wav"), 24000)
	mustRun(t, "config", "add-context", "dev")
	mustRun(t, "config", "set", "dev", "devices_dir", dir)

	out := mustRun(t, "devices", "--format", "json")
	if !strings.Contains(out, `"office"`) {
		t.Errorf("devices json:\n%s", out)
	}
}

// ---------------------------------------------------------------------------
// sessions

func seedJournal(t *testing.T, dir string, records ...*journal.Record) {
	t.Helper()
	store, err := kv.OpenBadger(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	j := journal.New(store)
	for _, r := range records {
		if err := j.Put(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSessions(t *testing.T) {
	setupTestEnv(t)
	dir := t.TempDir()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	seedJournal(t, dir,
		&journal.Record{
			ID: "sess-old", Model: realtime.DefaultModel, Voice: "alloy",
			StartedAt: start, EndedAt: start.Add(90 * time.Second),
			FinalState: "closed",
		},
		&journal.Record{
			ID: "sess-new", Model: realtime.DefaultModel, Voice: "verse",
			StartedAt: start.Add(time.Hour), EndedAt: start.Add(time.Hour + 5*time.Second),
			FinalState: "closed", Reason: "session: connection failed", Reconnects: 2,
			Diagnostics: []diag.Entry{{Time: start, Level: diag.LevelError, Message: "connection failed"}},
		},
	)

	out := mustRun(t, "sessions", "list", "--journal", dir)
	iNew, iOld := strings.Index(out, "sess-new"), strings.Index(out, "sess-old")
	if iNew < 0 || iOld < 0 || iNew > iOld {
		t.Errorf("list should show newest first:\n%s", out)
	}
	if !strings.Contains(out, "1m30s") {
		t.Errorf("list missing duration:\n%s", out)
	}

	out = mustRun(t, "sessions", "show", "sess-new", "--journal", dir)
	for _, want := range []string{"verse", "Reconnects:", "Diagnostics", "connection failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("show missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, "sessions", "show", "sess-old", "--journal", dir, "--format", "json")
	var rec map[string]any
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("show json: %v\n%s", err, out)
	}
	if rec["id"] != "sess-old" || rec["final_state"] != "closed" {
		t.Errorf("show json = %v", rec)
	}

	if _, _, code := runCmd(t, "sessions", "show", "nope", "--journal", dir); code == 0 {
		t.Error("show of an unknown session should fail")
	}

	out = mustRun(t, "sessions", "prune", "--keep", "1", "--journal", dir)
	if !strings.Contains(out, "removed 1") {
		t.Errorf("prune: %s", out)
	}
	out = mustRun(t, "sessions", "list", "--journal", dir)
	if strings.Contains(out, "sess-old") || !strings.Contains(out, "sess-new") {
		t.Errorf("list after prune:\n%s", out)
	}
}

func TestSessionsEmpty(t *testing.T) {
	setupTestEnv(t)
	out := mustRun(t, "sessions", "list", "--journal", t.TempDir())
	if !strings.Contains(out, "No sessions recorded") {
		t.Errorf("list: %s", out)
	}
}

// ---------------------------------------------------------------------------
// connect

func TestConnectRequiresKey(t *testing.T) {
	setupTestEnv(t)
	_, stderr, code := runCmd(t, "connect", "--no-journal")
	if code == 0 || !strings.Contains(stderr, "no API key") {
		t.Fatalf("exit %d, stderr %q", code, stderr)
	}
}

func TestConnectUnknownContext(t *testing.T) {
	setupTestEnv(t)
	_, stderr, code := runCmd(t, "connect", "-c", "missing", "--no-journal")
	if code == 0 || !strings.Contains(stderr, `context "missing" not found`) {
		t.Fatalf("exit %d, stderr %q", code, stderr)
	}
}

func TestConnectWithoutMicrophone(t *testing.T) {
	setupTestEnv(t)
	t.Setenv(cli.EnvAPIKey, "sk-test")
	_, stderr, code := runCmd(t, "connect", "--no-journal", "--devices", t.TempDir())
	if code == 0 || !strings.Contains(stderr, "no such device") {
		t.Fatalf("exit %d, stderr %q", code, stderr)
	}
}

func TestResolveParams(t *testing.T) {
	setupTestEnv(t)
	dir := t.TempDir()
	prompt := filepath.Join(dir, "prompt.txt")
	os.WriteFile(prompt, []byte("From file."), 0644)

	tests := []struct {
		name  string
		ctx   cli.Context
		flags func()
		want  session.Params
	}{
		{
			name: "context only",
			ctx:  cli.Context{APIKey: "k", Microphone: "m", Instructions: "Be brief."},
			want: session.Params{Credential: "k", MicrophoneID: "m", Instructions: "Be brief."},
		},
		{
			name: "flags override",
			ctx:  cli.Context{APIKey: "k", Microphone: "m", Voice: "alloy", InstructionsFile: prompt},
			flags: func() {
				connectFlags.mic = "other"
				connectFlags.voice = "verse"
				connectFlags.instructions = "Inline."
			},
			want: session.Params{Credential: "k", MicrophoneID: "other", Voice: "verse", Instructions: "Inline."},
		},
		{
			name:  "instructions file flag",
			ctx:   cli.Context{APIKey: "k", Instructions: "ignored"},
			flags: func() { connectFlags.instructionsFile = prompt; connectFlags.relay = "ws://x/ws-proxy" },
			want:  session.Params{Credential: "k", Instructions: "From file.", RelayURL: "ws://x/ws-proxy"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer resetFlags(rootCmd)
			if tt.flags != nil {
				tt.flags()
			}
			ctx := tt.ctx
			got, err := resolveParams(&ctx)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHandleCallCommand(t *testing.T) {
	m, err := session.NewManager(session.Options{
		Devices:    &wavdev.Catalog{Dir: t.TempDir()},
		Negotiator: realtime.NewDirect(),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	var buf bytes.Buffer
	pr := &printer{w: &buf, styles: cli.NewStyles(cli.DefaultTheme), ended: make(chan struct{})}

	tests := []struct {
		line     string
		wantQuit bool
		wantOut  string
	}{
		{"", false, ""},
		{"mute", false, "not connected"},
		{"prompt be brief", false, "not ready"},
		{"prompt", false, "not ready"},
		{"state", false, "idle"},
		{"dance", false, "unknown command"},
		{"quit", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			buf.Reset()
			if got := handleCallCommand(m, pr, tt.line); got != tt.wantQuit {
				t.Errorf("quit = %v, want %v", got, tt.wantQuit)
			}
			if !strings.Contains(buf.String(), tt.wantOut) {
				t.Errorf("output %q, want %q", buf.String(), tt.wantOut)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// diag

func TestDiag(t *testing.T) {
	setupTestEnv(t)
	path := filepath.Join(t.TempDir(), "call.diag")
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	err := writeDiagnostics(path, []diag.Entry{
		{Time: at, Level: diag.LevelInfo, Message: "data channel open"},
		{Time: at.Add(time.Second), Level: diag.LevelWarn, Message: "no outbound audio"},
	})
	if err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, "diag", path)
	if !strings.Contains(out, "data channel open") || !strings.Contains(out, "no outbound audio") {
		t.Errorf("diag:\n%s", out)
	}

	out = mustRun(t, "diag", path, "--format", "json")
	var entries []map[string]any
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("diag json: %v\n%s", err, out)
	}
	if len(entries) != 2 || entries[1]["level"] != "warn" {
		t.Errorf("diag json = %v", entries)
	}

	bad := filepath.Join(t.TempDir(), "bad.diag")
	os.WriteFile(bad, []byte{0xc1}, 0644)
	if _, _, code := runCmd(t, "diag", bad); code == 0 {
		t.Error("diag of a corrupt file should fail")
	}
}
