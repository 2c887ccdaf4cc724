// Package config loads client settings from a plain key-value file and can
// watch it for changes so a running client picks up edits without a
// restart.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/quillmud/mudterm"
)

// Config holds the client settings. Zero values are filled from Default.
type Config struct {
	Host string
	Port int

	Width           int
	Height          int
	ScrollbackLines int

	Term     string
	Compress bool

	// Option policy knobs: whether to accept the server driving echo and
	// suppress-go-ahead.
	AcceptEcho bool
	AcceptSGA  bool
}

// Default returns the settings used when the file omits a key.
func Default() Config {
	return Config{
		Port:            23,
		Width:           80,
		Height:          24,
		ScrollbackLines: 5000,
		Compress:        true,
		AcceptSGA:       true,
	}
}

// Policy builds the telnet negotiation policy the settings describe.
func (c Config) Policy() *mudterm.TelnetPolicy {
	p := mudterm.DefaultTelnetPolicy()
	p.Remote[mudterm.TelOptEcho] = c.AcceptEcho
	p.Remote[mudterm.TelOptSGA] = c.AcceptSGA
	return &p
}

// Session builds a session config from the settings.
func (c Config) Session() mudterm.SessionConfig {
	return mudterm.SessionConfig{
		Width:         c.Width,
		Height:        c.Height,
		CapacityLines: c.Height + c.ScrollbackLines,
		Policy:        c.Policy(),
		Compress:      c.Compress,
	}
}

// Load reads a config file. Lines are "key value" pairs; blank lines and
// lines starting with # are skipped. Unknown keys are errors so typos do
// not silently fall back to defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg := Default()
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, " ")
		if !found {
			return Config{}, fmt.Errorf("%s:%d: expected \"key value\"", path, lineNo)
		}
		value = strings.TrimSpace(value)
		if err := cfg.set(key, value); err != nil {
			return Config{}, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) set(key, value string) error {
	switch key {
	case "host":
		c.Host = value
	case "port":
		return intKey(&c.Port, value)
	case "width":
		return intKey(&c.Width, value)
	case "height":
		return intKey(&c.Height, value)
	case "scrollback_lines":
		return intKey(&c.ScrollbackLines, value)
	case "term":
		c.Term = value
	case "compress":
		return boolKey(&c.Compress, value)
	case "accept_echo":
		return boolKey(&c.AcceptEcho, value)
	case "accept_sga":
		return boolKey(&c.AcceptSGA, value)
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

func intKey(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("not a number: %q", value)
	}
	*dst = n
	return nil
}

func boolKey(dst *bool, value string) error {
	switch value {
	case "on", "true", "yes", "1":
		*dst = true
	case "off", "false", "no", "0":
		*dst = false
	default:
		return fmt.Errorf("not a boolean: %q", value)
	}
	return nil
}

// Validate rejects geometry the scrollback cannot host.
func (c Config) Validate() error {
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("invalid dimensions %dx%d", c.Width, c.Height)
	}
	if c.ScrollbackLines <= c.Height {
		return fmt.Errorf("scrollback_lines %d too small for height %d", c.ScrollbackLines, c.Height)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}
