package gen

import (
	"errors"
	"os"
	"path/filepath"
)

// WriteDebugUnformatted writes the unformatted source of a FormatError next
// to the intended output, with a suffix that keeps it out of the package.
// It returns the sidecar path, or "" when err carries no source.
func WriteDebugUnformatted(err error) (string, error) {
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Unit == "" {
		return "", nil
	}

	if err := os.MkdirAll(filepath.Dir(fe.Unit), dirPerm); err != nil {
		return "", err
	}

	p := fe.Unit + ".unformatted"

	return p, os.WriteFile(p, fe.Source, filePerm)
}
