package engine

import (
	"errors"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DefaultPath is searched when PATH is unset.
const DefaultPath = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

// ErrNotFound is the error resulting if a path search failed to find an executable file.
var ErrNotFound = exec.ErrNotFound

func findExecutable(fsys afero.Fs, file string) error {
	d, err := fsys.Stat(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case err != nil:
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return fs.ErrPermission
}

// LookPath searches for an executable named file in the directories named by
// path. If file contains a slash, it is tried directly and the path is not
// consulted. The result may be an absolute path or a path relative to the
// current directory.
//
// A file that exists but isn't executable results in fs.ErrPermission.
func LookPath(fsys afero.Fs, path, file string) (string, error) {
	if strings.Contains(file, "/") {
		err := findExecutable(fsys, file)
		if err == nil {
			return file, nil
		}
		return "", err
	}
	if path == "" {
		path = DefaultPath
	}

	var permErr error
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		switch err := findExecutable(fsys, path); {
		case err == nil:
			return path, nil
		case errors.Is(err, fs.ErrPermission) && permErr == nil:
			permErr = err
		}
	}
	if permErr != nil {
		return "", permErr
	}
	return "", ErrNotFound
}
