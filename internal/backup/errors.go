package backup

import "fmt"

// FileNotFoundError indicates a backup source or backup file that does not
// exist.
type FileNotFoundError struct {
	// Path is the missing file.
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file %s does not exist", e.Path)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *FileNotFoundError) Is(target error) bool {
	_, ok := target.(*FileNotFoundError)
	return ok
}

// CorruptBackupError indicates a backup file whose content is not valid
// JSON. Restore refuses to touch the target when the backup is corrupt.
type CorruptBackupError struct {
	// Path is the backup file.
	Path string
	// Reason describes why parsing failed, if known.
	Reason error
}

func (e *CorruptBackupError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("backup file %s is not valid JSON: %v", e.Path, e.Reason)
	}
	return fmt.Sprintf("backup file %s is not valid JSON", e.Path)
}

// Unwrap returns the underlying error.
func (e *CorruptBackupError) Unwrap() error { return e.Reason }

// Is allows errors.Is() to work with wrapped errors.
func (e *CorruptBackupError) Is(target error) bool {
	_, ok := target.(*CorruptBackupError)
	return ok
}
