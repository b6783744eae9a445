package runner

import "fmt"

// RemoteServerNotRunnableError indicates an attempt to run a remote server.
// Remote servers are reached over the network and never spawned locally.
type RemoteServerNotRunnableError struct {
	// Name is the server name.
	Name string
}

func (e *RemoteServerNotRunnableError) Error() string {
	return fmt.Sprintf("server %q is a remote server and cannot be run locally", e.Name)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *RemoteServerNotRunnableError) Is(target error) bool {
	_, ok := target.(*RemoteServerNotRunnableError)
	return ok
}

// ServerDisabledError indicates an attempt to run a disabled server.
type ServerDisabledError struct {
	// Name is the server name.
	Name string
}

func (e *ServerDisabledError) Error() string {
	return fmt.Sprintf("server %q is disabled", e.Name)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *ServerDisabledError) Is(target error) bool {
	_, ok := target.(*ServerDisabledError)
	return ok
}

// SourceMissingError indicates a registered server whose source directory
// no longer exists on disk.
type SourceMissingError struct {
	// Name is the server name.
	Name string
	// Path is the missing source directory.
	Path string
}

func (e *SourceMissingError) Error() string {
	return fmt.Sprintf("source directory %s for server %q does not exist (reinstall the server)", e.Path, e.Name)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *SourceMissingError) Is(target error) bool {
	_, ok := target.(*SourceMissingError)
	return ok
}

// RuntimeMissingError indicates a registered server whose isolated runtime
// no longer exists on disk.
type RuntimeMissingError struct {
	// Name is the server name.
	Name string
	// Path is the missing runtime directory.
	Path string
}

func (e *RuntimeMissingError) Error() string {
	return fmt.Sprintf("runtime directory %s for server %q does not exist (reinstall the server)", e.Path, e.Name)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *RuntimeMissingError) Is(target error) bool {
	_, ok := target.(*RuntimeMissingError)
	return ok
}

// InvalidTransportError indicates a transport outside the accepted set.
type InvalidTransportError struct {
	// Transport is the rejected transport value.
	Transport string
}

func (e *InvalidTransportError) Error() string {
	return fmt.Sprintf("invalid transport %q (supported: %s, %s)", e.Transport, TransportStdio, TransportSSE)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *InvalidTransportError) Is(target error) bool {
	_, ok := target.(*InvalidTransportError)
	return ok
}

// EntryPointNotFoundError indicates that neither main.py nor src/main.py
// exists under the server's source directory.
type EntryPointNotFoundError struct {
	// Name is the server name.
	Name string
	// SourceDir is the directory that was searched.
	SourceDir string
}

func (e *EntryPointNotFoundError) Error() string {
	return fmt.Sprintf("no entry point for server %q: neither main.py nor src/main.py exists under %s", e.Name, e.SourceDir)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *EntryPointNotFoundError) Is(target error) bool {
	_, ok := target.(*EntryPointNotFoundError)
	return ok
}

// ServerExitError indicates the child server process exited non-zero. It
// carries the exit code and the captured output streams.
type ServerExitError struct {
	// Name is the server name.
	Name string
	// Code is the child's exit code.
	Code int
	// Stdout is the captured standard output.
	Stdout string
	// Stderr is the captured standard error.
	Stderr string
}

func (e *ServerExitError) Error() string {
	return fmt.Sprintf("server %q exited with code %d", e.Name, e.Code)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *ServerExitError) Is(target error) bool {
	_, ok := target.(*ServerExitError)
	return ok
}
