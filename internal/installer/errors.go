package installer

import "fmt"

// ServerAlreadyExistsError indicates an install for a name that is already
// registered and force was not requested.
type ServerAlreadyExistsError struct {
	// Name is the conflicting server name.
	Name string
}

func (e *ServerAlreadyExistsError) Error() string {
	return fmt.Sprintf("server %q is already installed (use --force to reinstall)", e.Name)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *ServerAlreadyExistsError) Is(target error) bool {
	_, ok := target.(*ServerAlreadyExistsError)
	return ok
}

// SourceNotFoundError indicates a local install whose source directory does
// not exist.
type SourceNotFoundError struct {
	// Path is the missing source directory.
	Path string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source directory %s does not exist", e.Path)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *SourceNotFoundError) Is(target error) bool {
	_, ok := target.(*SourceNotFoundError)
	return ok
}
