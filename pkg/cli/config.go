package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".callmanager"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"

	// EnvConfig overrides the config file path.
	EnvConfig = "CALLMANAGER_CONFIG"
	// EnvAPIKey fills in a context without an api_key.
	EnvAPIKey = "OPENAI_API_KEY"
)

// Config represents the main configuration structure
type Config struct {
	// CurrentContext is the name of the currently active context
	CurrentContext string `json:"current_context,omitempty" yaml:"current_context,omitempty"`

	// Contexts is a map of context name to context configuration
	Contexts map[string]*Context `json:"contexts,omitempty" yaml:"contexts,omitempty"`

	// configPath is the path to the config file
	configPath string
}

// Context is one named set of call settings.
type Context struct {
	// Name is the context name
	Name string `json:"name" yaml:"name"`

	// APIKey is the credential sent with SDP offers.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model and Voice select the remote model; empty uses the defaults.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	Voice string `json:"voice,omitempty" yaml:"voice,omitempty"`

	// Instructions is the system prompt. InstructionsFile, when set, is read
	// instead.
	Instructions     string `json:"instructions,omitempty" yaml:"instructions,omitempty"`
	InstructionsFile string `json:"instructions_file,omitempty" yaml:"instructions_file,omitempty"`

	// Microphone and Speaker are device ids in DevicesDir.
	Microphone string `json:"microphone,omitempty" yaml:"microphone,omitempty"`
	Speaker    string `json:"speaker,omitempty" yaml:"speaker,omitempty"`
	DevicesDir string `json:"devices_dir,omitempty" yaml:"devices_dir,omitempty"`

	// ProxyURL negotiates through a glue server instead of calling the API
	// directly.
	ProxyURL string `json:"proxy_url,omitempty" yaml:"proxy_url,omitempty"`

	// RelayURL opens the legacy websocket relay next to the call.
	RelayURL string `json:"relay_url,omitempty" yaml:"relay_url,omitempty"`
}

// ContextKeys lists the keys accepted by Context.Set, in display order.
var ContextKeys = []string{
	"api_key", "model", "voice", "instructions", "instructions_file",
	"microphone", "speaker", "devices_dir", "proxy_url", "relay_url",
}

func (ctx *Context) field(key string) (*string, error) {
	switch key {
	case "api_key":
		return &ctx.APIKey, nil
	case "model":
		return &ctx.Model, nil
	case "voice":
		return &ctx.Voice, nil
	case "instructions":
		return &ctx.Instructions, nil
	case "instructions_file":
		return &ctx.InstructionsFile, nil
	case "microphone":
		return &ctx.Microphone, nil
	case "speaker":
		return &ctx.Speaker, nil
	case "devices_dir":
		return &ctx.DevicesDir, nil
	case "proxy_url":
		return &ctx.ProxyURL, nil
	case "relay_url":
		return &ctx.RelayURL, nil
	}
	return nil, fmt.Errorf("unknown key %q (valid: %s)", key, strings.Join(ContextKeys, ", "))
}

// Get returns the value of key.
func (ctx *Context) Get(key string) (string, error) {
	p, err := ctx.field(key)
	if err != nil {
		return "", err
	}
	return *p, nil
}

// Set assigns value to key. An empty value clears it.
func (ctx *Context) Set(key, value string) error {
	p, err := ctx.field(key)
	if err != nil {
		return err
	}
	*p = value
	return nil
}

// Credential returns the API key, falling back to $OPENAI_API_KEY.
func (ctx *Context) Credential() string {
	if ctx.APIKey != "" {
		return ctx.APIKey
	}
	return os.Getenv(EnvAPIKey)
}

// ResolveInstructions returns the instructions text, reading
// InstructionsFile when it is set.
func (ctx *Context) ResolveInstructions() (string, error) {
	if ctx.InstructionsFile == "" {
		return ctx.Instructions, nil
	}
	data, err := os.ReadFile(ctx.InstructionsFile)
	if err != nil {
		return "", fmt.Errorf("failed to read instructions: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ConfigPath returns the config file path: $CALLMANAGER_CONFIG or
// ~/.callmanager/config.yaml.
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultBaseDir, DefaultConfigFile), nil
}

// LoadConfig loads or creates the configuration at ConfigPath.
func LoadConfig() (*Config, error) {
	p, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigWithPath(p)
}

// LoadConfigWithPath loads configuration from a custom path
func LoadConfigWithPath(configPath string) (*Config, error) {
	// Ensure config directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	for name, ctx := range cfg.Contexts {
		if ctx == nil {
			cfg.Contexts[name] = &Context{Name: name}
			continue
		}
		ctx.Name = name
	}
	cfg.configPath = configPath
	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the config directory path
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AddContext adds a new context. The first context becomes current.
func (c *Config) AddContext(name string, ctx *Context) error {
	if name == "" {
		return fmt.Errorf("context name cannot be empty")
	}
	if _, ok := c.Contexts[name]; ok {
		return fmt.Errorf("context %q already exists", name)
	}
	ctx.Name = name
	c.Contexts[name] = ctx
	if c.CurrentContext == "" {
		c.CurrentContext = name
	}
	return c.Save()
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext sets the current context
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// SetValue sets key on the named context and saves.
func (c *Config) SetValue(name, key, value string) error {
	ctx, err := c.GetContext(name)
	if err != nil {
		return err
	}
	if err := ctx.Set(key, value); err != nil {
		return err
	}
	return c.Save()
}

// GetContext returns a specific context
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// GetCurrentContext returns the current context
func (c *Config) GetCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}
	return c.GetContext(c.CurrentContext)
}

// ResolveContext returns the context by name, or current context if name is empty
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name == "" {
		return c.GetCurrentContext()
	}
	return c.GetContext(name)
}

// ListContexts returns all context names, sorted.
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// MaskAPIKey masks the API key for display
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
