// Copyright 2026 Aiku AI

package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/jsonc"
	"maunium.net/go/mautrix/id"
)

// Defaults applied when neither the config file nor the invocation
// parameters provide a value.
const (
	DefaultConfigFilename = "matrixchat-notify-config.json"
	DefaultHomeserver     = "https://matrix.org"
	DefaultTemplate       = "${DRONE_BUILD_STATUS}"
)

// DefaultPassEnvironment is the whitelist applied when no pass_environment
// setting is given anywhere.
var DefaultPassEnvironment = []string{"DRONE_*"}

// settingsKeys lists the documented settings, in the order they are
// checked for PLUGIN_* overrides.
var settingsKeys = []string{
	"accesstoken",
	"deviceid",
	"devicename",
	"homeserver",
	"markdown",
	"pass_environment",
	"password",
	"roomid",
	"template",
	"userid",
}

// Configuration validation errors.
var (
	ErrMissingUserID   = errors.New("userid not found in configuration")
	ErrInvalidUserID   = errors.New("userid must be a full Matrix user ID (starting with '@')")
	ErrMissingRoomID   = errors.New("roomid not found in configuration")
	ErrRoomAlias       = errors.New("roomid must be a room ID (starting with '!'), not a room alias")
	ErrNoCredentials   = errors.New("no password or accesstoken found in configuration")
	ErrBothCredentials = errors.New("password and accesstoken are mutually exclusive")
)

// StringList is a []string that also accepts a single JSON string, since
// pass_environment may be written either way in the config file.
type StringList []string

func (sl *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*sl = StringList{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*sl = StringList(list)
	return nil
}

// Settings holds the raw configuration merged from the config file and
// PLUGIN_* invocation parameters. Field names match the documented
// setting keys.
type Settings struct {
	AccessToken     string     `json:"accesstoken"`
	DeviceID        string     `json:"deviceid"`
	DeviceName      string     `json:"devicename"`
	Homeserver      string     `json:"homeserver"`
	Markdown        string     `json:"markdown"`
	PassEnvironment StringList `json:"pass_environment"`
	Password        string     `json:"password"`
	RoomID          string     `json:"roomid"`
	Template        string     `json:"template"`
	UserID          string     `json:"userid"`
}

// LoadSettings reads the config file (if it exists) and applies PLUGIN_*
// overrides from the given environment snapshot. A missing config file is
// not an error: CI systems commonly configure the plugin via invocation
// parameters alone.
func LoadSettings(filename string, environ map[string]string, log zerolog.Logger) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Debug().Str("path", filename).Msg("No configuration file found")
	case err != nil:
		return nil, fmt.Errorf("could not read configuration: %w", err)
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), s); err != nil {
			return nil, fmt.Errorf("could not parse configuration: %w", err)
		}
	}

	s.applyOverrides(environ)

	for _, key := range settingsKeys {
		if s.get(key) == "" {
			log.Debug().Str("setting", key).Msg("Configuration setting not set or empty")
		}
	}
	return s, nil
}

// applyOverrides replaces file values with PLUGIN_<SETTING> invocation
// parameters. Presence wins, even for empty values, matching how CI
// systems pass plugin settings.
func (s *Settings) applyOverrides(environ map[string]string) {
	for _, key := range settingsKeys {
		val, ok := environ["PLUGIN_"+strings.ToUpper(key)]
		if !ok {
			continue
		}
		switch key {
		case "accesstoken":
			s.AccessToken = val
		case "deviceid":
			s.DeviceID = val
		case "devicename":
			s.DeviceName = val
		case "homeserver":
			s.Homeserver = val
		case "markdown":
			s.Markdown = val
		case "pass_environment":
			s.PassEnvironment = StringList{val}
		case "password":
			s.Password = val
		case "roomid":
			s.RoomID = val
		case "template":
			s.Template = val
		case "userid":
			s.UserID = val
		}
	}
}

func (s *Settings) get(key string) string {
	switch key {
	case "accesstoken":
		return s.AccessToken
	case "deviceid":
		return s.DeviceID
	case "devicename":
		return s.DeviceName
	case "homeserver":
		return s.Homeserver
	case "markdown":
		return s.Markdown
	case "pass_environment":
		return strings.Join(s.PassEnvironment, ",")
	case "password":
		return s.Password
	case "roomid":
		return s.RoomID
	case "template":
		return s.Template
	case "userid":
		return s.UserID
	}
	return ""
}

// PatternList expands the configured whitelist entries: each entry may be
// a comma-separated list of names or glob patterns. Empty entries are
// dropped. Returns the default whitelist when nothing is configured.
func (s *Settings) PatternList() []string {
	if s.PassEnvironment == nil {
		return DefaultPassEnvironment
	}
	var patterns []string
	for _, entry := range s.PassEnvironment {
		for _, p := range strings.Split(entry, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
	}
	return patterns
}

// TemplateString returns the configured message template or the default.
func (s *Settings) TemplateString() string {
	if s.Template == "" {
		return DefaultTemplate
	}
	return s.Template
}

// MarkdownEnabled reports whether the markdown flag holds a truthy value.
// Accepted truthy values are yes, y, true and on, case-insensitive.
func (s *Settings) MarkdownEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(s.Markdown)) {
	case "yes", "y", "true", "on":
		return true
	}
	return false
}

// Auth is the resolved authentication mode, either PasswordAuth or
// TokenAuth. Exactly one mode survives configuration finalization.
type Auth interface {
	authMode() string
}

// PasswordAuth performs a standard m.login.password exchange.
type PasswordAuth struct {
	Password   string
	DeviceName string
}

func (PasswordAuth) authMode() string { return "password" }

// TokenAuth reuses a pre-issued access token, skipping the login
// exchange. DeviceID and DeviceName are optional. DeviceName carries the
// devicename setting so the resolved variant holds the full configured
// device identity, but it is never transmitted in this mode: only a
// password login exchange can set a device display name.
type TokenAuth struct {
	Token      string
	DeviceID   string
	DeviceName string
}

func (TokenAuth) authMode() string { return "accesstoken" }

// Config is the finalized, validated configuration. Immutable once built.
type Config struct {
	Homeserver      string
	UserID          id.UserID
	Room            id.RoomID
	Auth            Auth
	Template        string
	Markdown        bool
	PassEnvironment []string
}

// Finalize validates the merged settings and resolves the authentication
// variant. All validation happens here, before any network activity.
func (s *Settings) Finalize() (*Config, error) {
	if s.UserID == "" {
		return nil, ErrMissingUserID
	}
	if !strings.HasPrefix(s.UserID, "@") {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidUserID, s.UserID)
	}
	if s.RoomID == "" {
		return nil, ErrMissingRoomID
	}
	if strings.HasPrefix(s.RoomID, "#") {
		return nil, fmt.Errorf("%w: got %q", ErrRoomAlias, s.RoomID)
	}
	if !strings.HasPrefix(s.RoomID, "!") {
		return nil, fmt.Errorf("%w: got %q", ErrRoomAlias, s.RoomID)
	}

	var auth Auth
	switch {
	case s.Password == "" && s.AccessToken == "":
		return nil, ErrNoCredentials
	case s.Password != "" && s.AccessToken != "":
		return nil, ErrBothCredentials
	case s.AccessToken != "":
		auth = TokenAuth{
			Token:      s.AccessToken,
			DeviceID:   s.DeviceID,
			DeviceName: s.DeviceName,
		}
	default:
		auth = PasswordAuth{
			Password:   s.Password,
			DeviceName: s.DeviceName,
		}
	}

	patterns := s.PatternList()
	for _, p := range patterns {
		if err := validatePattern(p); err != nil {
			return nil, fmt.Errorf("invalid pass_environment pattern %q: %w", p, err)
		}
	}

	homeserver := s.Homeserver
	if homeserver == "" {
		homeserver = DefaultHomeserver
	}

	return &Config{
		Homeserver:      homeserver,
		UserID:          id.UserID(s.UserID),
		Room:            id.RoomID(s.RoomID),
		Auth:            auth,
		Template:        s.TemplateString(),
		Markdown:        s.MarkdownEnabled(),
		PassEnvironment: patterns,
	}, nil
}

// validatePattern checks glob pattern syntax. Matching a pattern against
// itself forces path.Match to scan every chunk, so malformed character
// classes surface as path.ErrBadPattern.
func validatePattern(p string) error {
	_, err := path.Match(p, p)
	return err
}
