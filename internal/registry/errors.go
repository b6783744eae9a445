package registry

import "fmt"

// InvalidNameError indicates a server name that does not match the accepted
// naming pattern.
type InvalidNameError struct {
	// Name is the rejected server name.
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid server name %q: must match %s (letters, digits, single hyphens)", e.Name, namePattern)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *InvalidNameError) Is(target error) bool {
	_, ok := target.(*InvalidNameError)
	return ok
}

// InvalidURLError indicates a remote server URL that is not a well-formed
// HTTP(S) URL.
type InvalidURLError struct {
	// URL is the rejected URL string.
	URL string
	// Reason is the underlying parse or validation error, if any.
	Reason error
}

func (e *InvalidURLError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("invalid server URL %q: %v", e.URL, e.Reason)
	}
	return fmt.Sprintf("invalid server URL %q: must be an http(s) URL", e.URL)
}

// Unwrap returns the underlying error.
func (e *InvalidURLError) Unwrap() error { return e.Reason }

// Is allows errors.Is() to work with wrapped errors.
func (e *InvalidURLError) Is(target error) bool {
	_, ok := target.(*InvalidURLError)
	return ok
}

// DuplicateServerError indicates an Add with a name that is already
// registered.
type DuplicateServerError struct {
	// Name is the conflicting server name.
	Name string
}

func (e *DuplicateServerError) Error() string {
	return fmt.Sprintf("server %q is already registered", e.Name)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *DuplicateServerError) Is(target error) bool {
	_, ok := target.(*DuplicateServerError)
	return ok
}

// ServerNotFoundError indicates a lookup for a name that is not registered.
type ServerNotFoundError struct {
	// Name is the missing server name.
	Name string
}

func (e *ServerNotFoundError) Error() string {
	return fmt.Sprintf("server %q is not registered", e.Name)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *ServerNotFoundError) Is(target error) bool {
	_, ok := target.(*ServerNotFoundError)
	return ok
}

// CorruptRegistryError indicates the registry file exists but could not be
// parsed. This is deliberately distinct from the file being absent: an
// absent file is a safe first-run default, a corrupt one is a hard stop so
// the registry is never silently reset to empty.
type CorruptRegistryError struct {
	// Path is the registry file location.
	Path string
	// Reason is the underlying parse error.
	Reason error
}

func (e *CorruptRegistryError) Error() string {
	return fmt.Sprintf("registry file %s exists but cannot be parsed: %v (restore a backup or remove the file to start fresh)", e.Path, e.Reason)
}

// Unwrap returns the underlying error.
func (e *CorruptRegistryError) Unwrap() error { return e.Reason }

// Is allows errors.Is() to work with wrapped errors.
func (e *CorruptRegistryError) Is(target error) bool {
	_, ok := target.(*CorruptRegistryError)
	return ok
}
