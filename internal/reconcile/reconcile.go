package reconcile

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"mcpctl/internal/config"
	"mcpctl/internal/registry"
	"mcpctl/pkg/logging"
)

// EntryType is the server type inferred from an external config entry.
type EntryType string

const (
	// EntryTypeRemote is inferred from the presence of a url.
	EntryTypeRemote EntryType = "remote"
	// EntryTypeStdio is inferred from the presence of a command.
	EntryTypeStdio EntryType = "stdio"
	// EntryTypeUnknown means neither url nor command was present.
	EntryTypeUnknown EntryType = "unknown"
)

// SourceStatus records the independently-checked state of one external
// editor configuration file. A malformed file degrades to zero servers with
// the error recorded; it never aborts the reconciliation.
type SourceStatus struct {
	// Name is the config source identifier (e.g. "cline").
	Name string
	// Path is the file location.
	Path string
	// Exists reports whether the file is present.
	Exists bool
	// Empty reports whether the file is present but has no content.
	Empty bool
	// Err holds the parse or read error message, if any.
	Err string
	// ServerCount is the number of mcpServers entries read.
	ServerCount int
}

// ServerRow is one merged external server entry with its provenance.
type ServerRow struct {
	// Name is the server name as it appears in the external config(s).
	Name string
	// Type is the inferred server type.
	Type EntryType
	// Disabled reports whether any source marks the entry disabled.
	Disabled bool
	// Registered reports whether the name is also in the mcpctl registry.
	Registered bool
	// Sources lists every config source the entry appeared in.
	Sources []string
}

// Report is the structured reconciliation result. It carries no
// presentation formatting; callers render it however they need.
type Report struct {
	// SourceStatuses holds per-file check results in input order.
	SourceStatuses []SourceStatus
	// Servers are the merged external entries, sorted by name.
	Servers []ServerRow
	// Orphaned are names registered in mcpctl but absent from every
	// external config.
	Orphaned []string
	// Unmanaged are names present in some external config but not
	// registered in mcpctl.
	Unmanaged []string
}

// externalFile is the consumed (never written) editor config schema.
type externalFile struct {
	MCPServers map[string]externalEntry `json:"mcpServers"`
}

type externalEntry struct {
	URL      string `json:"url,omitempty"`
	Command  string `json:"command,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
	APIKey   string `json:"apiKey,omitempty"`
}

// Reconcile compares the registry against zero or more external editor
// configuration files and produces the orphaned/unmanaged set differences
// plus per-server provenance.
func Reconcile(reg *registry.Registry, sources []config.EditorConfig) *Report {
	report := &Report{}
	merged := make(map[string]*ServerRow)

	for _, source := range sources {
		status := SourceStatus{Name: source.Name, Path: source.Path}
		entries := readSource(source, &status)
		report.SourceStatuses = append(report.SourceStatuses, status)

		for name, entry := range entries {
			row, seen := merged[name]
			if !seen {
				row = &ServerRow{Name: name, Type: inferType(entry)}
				merged[name] = row
			}
			if entry.Disabled {
				row.Disabled = true
			}
			row.Sources = append(row.Sources, source.Name)
		}
	}

	registered := reg.Names()
	externalNames := make(map[string]struct{}, len(merged))
	for name, row := range merged {
		externalNames[name] = struct{}{}
		_, row.Registered = registered[name]
		sort.Strings(row.Sources)
		report.Servers = append(report.Servers, *row)
	}
	sort.Slice(report.Servers, func(i, j int) bool { return report.Servers[i].Name < report.Servers[j].Name })

	for name := range registered {
		if _, inExternal := externalNames[name]; !inExternal {
			report.Orphaned = append(report.Orphaned, name)
		}
	}
	for name := range externalNames {
		if _, inRegistry := registered[name]; !inRegistry {
			report.Unmanaged = append(report.Unmanaged, name)
		}
	}
	sort.Strings(report.Orphaned)
	sort.Strings(report.Unmanaged)

	return report
}

// readSource checks one external config file and returns its entries.
// Existence, non-emptiness and JSON validity are recorded independently in
// status; any failure yields zero entries.
func readSource(source config.EditorConfig, status *SourceStatus) map[string]externalEntry {
	data, err := os.ReadFile(source.Path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Debug("Reconcile", "Config source %s not present at %s", source.Name, source.Path)
			return nil
		}
		status.Exists = true
		status.Err = fmt.Sprintf("read failed: %v", err)
		return nil
	}
	status.Exists = true

	if len(data) == 0 {
		status.Empty = true
		return nil
	}

	var parsed externalFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		status.Err = fmt.Sprintf("parse failed: %v", err)
		logging.Warn("Reconcile", "Config source %s at %s is malformed: %v", source.Name, source.Path, err)
		return nil
	}

	status.ServerCount = len(parsed.MCPServers)
	return parsed.MCPServers
}

func inferType(entry externalEntry) EntryType {
	switch {
	case entry.URL != "":
		return EntryTypeRemote
	case entry.Command != "":
		return EntryTypeStdio
	default:
		return EntryTypeUnknown
	}
}
