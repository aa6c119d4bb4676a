package commands

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rafq345/callmanager/pkg/cli"
	"github.com/rafq345/callmanager/pkg/diag"
	"github.com/rafq345/callmanager/pkg/journal"
	"github.com/rafq345/callmanager/pkg/media/wavdev"
	"github.com/rafq345/callmanager/pkg/realtime"
	"github.com/rafq345/callmanager/pkg/session"
)

var connectFlags struct {
	context          string
	mic              string
	speaker          string
	instructions     string
	instructionsFile string
	model            string
	voice            string
	devicesDir       string
	proxy            string
	relay            string
	noJournal        bool
	diagOut          string
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Place a voice call",
	Long: `Place a call with the settings of a context. Flags override the context.

The microphone is a WAV file in the devices directory, replayed in real
time and looped; the model's audio is recorded under <devices>/out/.

While the call runs, type a command and press enter:
  mute              disable the microphone track
  unmute            enable it again
  prompt <text>     replace the instructions
  state             print the session state
  log               print the diagnostics log
  quit              hang up (Ctrl-C does the same)

Examples:
  callmanager connect
  callmanager connect --mic greeting --instructions "Speak like a pirate."
  callmanager connect -c prod -f prompt.txt --relay ws://localhost:8080/ws-proxy`,
	RunE: runConnect,
}

// resolveParams merges the context with the flags.
func resolveParams(ctx *cli.Context) (session.Params, error) {
	c := *ctx
	overrides := []struct {
		dst *string
		src string
	}{
		{&c.Microphone, connectFlags.mic},
		{&c.Speaker, connectFlags.speaker},
		{&c.Model, connectFlags.model},
		{&c.Voice, connectFlags.voice},
		{&c.ProxyURL, connectFlags.proxy},
		{&c.RelayURL, connectFlags.relay},
	}
	for _, o := range overrides {
		if o.src != "" {
			*o.dst = o.src
		}
	}
	if connectFlags.instructions != "" {
		c.Instructions, c.InstructionsFile = connectFlags.instructions, ""
	}
	if connectFlags.instructionsFile != "" {
		c.InstructionsFile = connectFlags.instructionsFile
	}

	p := session.Params{
		Credential:   c.Credential(),
		Model:        c.Model,
		Voice:        c.Voice,
		MicrophoneID: c.Microphone,
		SpeakerID:    c.Speaker,
		RelayURL:     c.RelayURL,
	}
	if p.Credential == "" {
		return p, fmt.Errorf("no API key: set api_key in the context or $%s", cli.EnvAPIKey)
	}
	instructions, err := c.ResolveInstructions()
	if err != nil {
		return p, err
	}
	p.Instructions = instructions
	*ctx = c
	return p, nil
}

func loadContext(name string) (*cli.Context, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	if name == "" && cfg.CurrentContext == "" {
		return &cli.Context{}, nil
	}
	ctx, err := cfg.ResolveContext(name)
	if err != nil {
		return nil, err
	}
	cp := *ctx
	return &cp, nil
}

// printer writes session events to the terminal.
type printer struct {
	mu     sync.Mutex
	w      io.Writer
	styles cli.Styles
	ended  chan struct{}
	once   sync.Once
}

func (p *printer) StateChanged(id string, from, to session.State) {
	p.mu.Lock()
	fmt.Fprintf(p.w, "%s %s -> %s\n", p.styles.Help.Render("state"), from, p.styles.State(to.String()))
	p.mu.Unlock()
	if to == session.StateClosed {
		p.once.Do(func() { close(p.ended) })
	}
}

func (p *printer) Notice(n session.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	style := p.styles.Warn
	if n.Fatal {
		style = p.styles.Error
	}
	fmt.Fprintln(p.w, style.Render("! "+n.Err.Error()))
}

func (p *printer) Transcript(t session.Transcript) {
	if !t.Final {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s %s\n", p.styles.Label.Render(string(t.Role)+":"), t.Text)
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

func runConnect(cmd *cobra.Command, args []string) error {
	ctxCfg, err := loadContext(connectFlags.context)
	if err != nil {
		return err
	}
	params, err := resolveParams(ctxCfg)
	if err != nil {
		return err
	}
	dir, err := resolveDevicesDir(connectFlags.devicesDir, ctxCfg)
	if err != nil {
		return err
	}

	var negotiator realtime.Negotiator = realtime.NewDirect()
	if ctxCfg.ProxyURL != "" {
		negotiator = realtime.NewProxy(ctxCfg.ProxyURL)
	}

	var j *journal.Journal
	if !connectFlags.noJournal {
		jj, store, err := openJournal()
		if err != nil {
			slog.Warn("session journal disabled", "error", err)
		} else {
			defer store.Close()
			j = jj
		}
	}

	out := cmd.OutOrStdout()
	pr := &printer{w: out, styles: cli.NewStyles(cli.DefaultTheme), ended: make(chan struct{})}
	m, err := session.NewManager(session.Options{
		Devices:    &wavdev.Catalog{Dir: dir, Loop: true, Realtime: true},
		Negotiator: negotiator,
		Journal:    j,
		Observer:   pr,
		Logger:     slog.Default(),
	})
	if err != nil {
		return err
	}
	defer m.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pr.printf("connecting (microphone %q, devices %s)...\n", params.MicrophoneID, dir)
	if err := m.Connect(ctx, params); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	pr.printf("call started, session %s; type 'quit' or press Ctrl-C to hang up\n", m.SessionID())

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(cmd.InOrStdin())
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-pr.ended:
			break loop
		case line, ok := <-lines:
			if !ok {
				// stdin closed: keep the call running until a signal.
				lines = nil
				continue
			}
			if quit := handleCallCommand(m, pr, line); quit {
				break loop
			}
		}
	}

	m.Disconnect()
	pr.printf("call ended, session %s (%s)\n", m.SessionID(), m.State())
	if connectFlags.diagOut != "" {
		if err := writeDiagnostics(connectFlags.diagOut, m.Diagnostics()); err != nil {
			return err
		}
		pr.printf("diagnostics written to %s\n", connectFlags.diagOut)
	}
	return nil
}

func writeDiagnostics(path string, entries []diag.Entry) error {
	data, err := diag.Encode(entries)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// handleCallCommand runs one stdin command and reports whether to hang up.
func handleCallCommand(m *session.Manager, pr *printer, line string) bool {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	var err error
	switch verb {
	case "":
	case "quit", "exit", "hangup":
		return true
	case "mute":
		if err = m.Mute(true); err == nil {
			pr.printf("microphone muted\n")
		}
	case "unmute":
		if err = m.Mute(false); err == nil {
			pr.printf("microphone unmuted\n")
		}
	case "prompt":
		if err = m.UpdateInstructions(rest); err == nil {
			pr.printf("instructions updated\n")
		}
	case "state":
		pr.printf("%s\n", pr.styles.State(m.State().String()))
	case "log":
		pr.mu.Lock()
		pr.styles.WriteEntries(pr.w, m.Diagnostics())
		pr.mu.Unlock()
	default:
		pr.printf("unknown command %q (mute, unmute, prompt <text>, state, log, quit)\n", verb)
	}
	if err != nil {
		pr.printf("%s\n", pr.styles.Error.Render(err.Error()))
	}
	return false
}

func init() {
	f := connectCmd.Flags()
	f.StringVarP(&connectFlags.context, "context", "c", "", "context name (default: current)")
	f.StringVar(&connectFlags.mic, "mic", "", "microphone id")
	f.StringVar(&connectFlags.speaker, "speaker", "", "speaker sink id")
	f.StringVarP(&connectFlags.instructions, "instructions", "i", "", "instructions text")
	f.StringVarP(&connectFlags.instructionsFile, "file", "f", "", "read instructions from a file")
	f.StringVar(&connectFlags.model, "model", "", "model (default "+realtime.DefaultModel+")")
	f.StringVar(&connectFlags.voice, "voice", "", "voice (default "+realtime.VoiceAlloy+")")
	f.StringVar(&connectFlags.devicesDir, "devices", "", "WAV device directory")
	f.StringVar(&connectFlags.proxy, "proxy", "", "negotiate through a glue server at this base URL")
	f.StringVar(&connectFlags.relay, "relay", "", "also open the legacy websocket relay at this URL")
	f.BoolVar(&connectFlags.noJournal, "no-journal", false, "do not record the session")
	f.StringVar(&connectFlags.diagOut, "diag-out", "", "write the diagnostics log to this file after the call")
	rootCmd.AddCommand(connectCmd)
}
