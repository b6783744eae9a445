package registry

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"mcpctl/internal/fsutil"
)

// ServerType discriminates the Server union.
type ServerType string

const (
	// ServerTypeLocalStdio is a locally installed server spoken to over stdio.
	ServerTypeLocalStdio ServerType = "local_stdio"
	// ServerTypeLocalSSE is a locally installed server serving SSE on a port.
	ServerTypeLocalSSE ServerType = "local_sse"
	// ServerTypeRemoteSSE is a remote server reached over the network.
	ServerTypeRemoteSSE ServerType = "remote_sse"
)

// IsLocal reports whether the type describes a locally installed server.
func (t ServerType) IsLocal() bool {
	return t == ServerTypeLocalStdio || t == ServerTypeLocalSSE
}

// IsRemote reports whether the type describes a remote server.
func (t ServerType) IsRemote() bool {
	return t == ServerTypeRemoteSSE
}

const namePattern = `^[A-Za-z0-9]+(-[A-Za-z0-9]+)*$`

var nameRegexp = regexp.MustCompile(namePattern)

// ValidateName checks a server name against the accepted naming pattern.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return &InvalidNameError{Name: name}
	}
	return nil
}

// Server is the tagged union of locally installed and remote servers,
// discriminated by Type. Exactly one of Local or Remote is populated;
// callers must discriminate via AsLocal/AsRemote (or Type) before touching
// variant fields.
type Server struct {
	Name      string     `json:"name"`
	Type      ServerType `json:"server_type"`
	Disabled  bool       `json:"disabled,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Local  *LocalConfig  `json:"local,omitempty"`
	Remote *RemoteConfig `json:"remote,omitempty"`
}

// LocalConfig is the variant payload for locally installed servers.
type LocalConfig struct {
	// SourceDir is the staged source tree under the managed root.
	SourceDir string `json:"source_dir"`
	// VenvDir is the isolated runtime directory under the managed root.
	VenvDir string `json:"venv_dir"`
	// RequirementsFile is the dependency manifest used at install time, if any.
	RequirementsFile string `json:"requirements_file,omitempty"`
	// Port is the SSE listen port. Zero means unset; it is set iff the
	// server type is local_sse.
	Port int `json:"port,omitempty"`
	// WrapperPath is the generated launch script, set after generation.
	WrapperPath string `json:"wrapper_path,omitempty"`
	// ConfigFile is an optional server-specific config file.
	ConfigFile string `json:"config_file,omitempty"`
}

// RemoteConfig is the variant payload for remote servers.
type RemoteConfig struct {
	// URL is the normalized streaming endpoint.
	URL string `json:"url"`
	// APIKey is stored opaquely; mcpctl never interprets it.
	APIKey string `json:"api_key,omitempty"`
}

// clonePayloads returns a copy of the server with its variant payloads
// duplicated, so the copy shares no mutable state with the original.
func (s Server) clonePayloads() Server {
	if s.Local != nil {
		local := *s.Local
		s.Local = &local
	}
	if s.Remote != nil {
		remote := *s.Remote
		s.Remote = &remote
	}
	return s
}

// AsLocal returns the local payload and whether the server is a local variant.
func (s *Server) AsLocal() (*LocalConfig, bool) {
	if s.Type.IsLocal() && s.Local != nil {
		return s.Local, true
	}
	return nil, false
}

// AsRemote returns the remote payload and whether the server is a remote variant.
func (s *Server) AsRemote() (*RemoteConfig, bool) {
	if s.Type.IsRemote() && s.Remote != nil {
		return s.Remote, true
	}
	return nil, false
}

// NewLocalServer constructs a local Server record. The type is inferred
// from the port: a non-zero port means SSE, zero means stdio.
func NewLocalServer(name string, local LocalConfig) Server {
	serverType := ServerTypeLocalStdio
	if local.Port > 0 {
		serverType = ServerTypeLocalSSE
	}
	now := time.Now().UTC()
	return Server{
		Name:      name,
		Type:      serverType,
		CreatedAt: now,
		UpdatedAt: now,
		Local:     &local,
	}
}

// NewRemoteServer constructs a remote Server record with a normalized URL.
func NewRemoteServer(name, rawURL, apiKey string) (Server, error) {
	normalized, err := NormalizeRemoteURL(rawURL)
	if err != nil {
		return Server{}, err
	}
	now := time.Now().UTC()
	return Server{
		Name:      name,
		Type:      ServerTypeRemoteSSE,
		CreatedAt: now,
		UpdatedAt: now,
		Remote:    &RemoteConfig{URL: normalized, APIKey: apiKey},
	}, nil
}

// NormalizeRemoteURL validates that raw is a well-formed HTTP(S) URL and
// normalizes it to end in the SSE streaming suffix.
func NormalizeRemoteURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", &InvalidURLError{URL: raw, Reason: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", &InvalidURLError{URL: raw}
	}
	if parsed.Host == "" {
		return "", &InvalidURLError{URL: raw}
	}
	if !strings.HasSuffix(parsed.Path, "/sse") {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/") + "/sse"
	}
	return parsed.String(), nil
}

// Validate checks the record's internal consistency. When managedRoot is
// non-empty, local source and venv directories must reside under it; the
// cleanup logic trusts this to never delete unrelated user files.
func (s *Server) Validate(managedRoot string) error {
	if err := ValidateName(s.Name); err != nil {
		return err
	}

	switch s.Type {
	case ServerTypeLocalStdio, ServerTypeLocalSSE:
		if s.Local == nil {
			return fmt.Errorf("server %q: type %s requires a local payload", s.Name, s.Type)
		}
		if s.Remote != nil {
			return fmt.Errorf("server %q: local server must not carry a remote payload", s.Name)
		}
		if s.Type == ServerTypeLocalSSE && s.Local.Port <= 0 {
			return fmt.Errorf("server %q: type %s requires a port", s.Name, s.Type)
		}
		if s.Type == ServerTypeLocalStdio && s.Local.Port != 0 {
			return fmt.Errorf("server %q: type %s must not set a port", s.Name, s.Type)
		}
		if managedRoot != "" {
			if !fsutil.IsSubpath(managedRoot, s.Local.SourceDir) {
				return fmt.Errorf("server %q: source_dir %s is outside the managed root %s", s.Name, s.Local.SourceDir, managedRoot)
			}
			if !fsutil.IsSubpath(managedRoot, s.Local.VenvDir) {
				return fmt.Errorf("server %q: venv_dir %s is outside the managed root %s", s.Name, s.Local.VenvDir, managedRoot)
			}
		}
	case ServerTypeRemoteSSE:
		if s.Remote == nil {
			return fmt.Errorf("server %q: type %s requires a remote payload", s.Name, s.Type)
		}
		if s.Local != nil {
			return fmt.Errorf("server %q: remote server must not carry a local payload", s.Name)
		}
		if _, err := NormalizeRemoteURL(s.Remote.URL); err != nil {
			return err
		}
	default:
		return fmt.Errorf("server %q: unsupported server type %q (supported: %s, %s, %s)",
			s.Name, s.Type, ServerTypeLocalStdio, ServerTypeLocalSSE, ServerTypeRemoteSSE)
	}

	return nil
}
