package pyenv

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"mcpctl/pkg/logging"
)

// WrapperData carries everything the generated launch script embeds.
type WrapperData struct {
	// ServerName is the registered server name.
	ServerName string
	// Python is the resolved interpreter inside the server's runtime.
	Python string
	// EntryPoint is the absolute path of the server's main module.
	EntryPoint string
	// WorkDir is the directory the server runs from.
	WorkDir string
	// ModulePath, when set, is prepended to PYTHONPATH.
	ModulePath string
}

const wrapperTemplate = `#!/bin/sh
# Launch wrapper for MCP server {{ .ServerName }}. Generated by mcpctl; do not edit.
{{- if .ModulePath }}
PYTHONPATH={{ .ModulePath | squote }}${PYTHONPATH:+:$PYTHONPATH}
export PYTHONPATH
{{- end }}
cd {{ .WorkDir | squote }} || exit 1
exec {{ .Python | squote }} {{ .EntryPoint | squote }} "$@"
`

var wrapperTmpl = template.Must(
	template.New("wrapper").Funcs(sprig.TxtFuncMap()).Parse(wrapperTemplate))

// GenerateWrapper renders the launch script for a local server and writes
// it executable at path. Returns the written path.
func GenerateWrapper(path string, data WrapperData) (string, error) {
	var buf bytes.Buffer
	if err := wrapperTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render wrapper script for %s: %w", data.ServerName, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create wrapper directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0755); err != nil {
		return "", fmt.Errorf("failed to write wrapper script %s: %w", path, err)
	}

	logging.Info("Pyenv", "Generated wrapper script %s for server %s", path, data.ServerName)
	return path, nil
}
