// Package enginetest provides a deterministic OS for engine tests.
package enginetest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/josephlewis42/gsh/core/engine"
	"github.com/spf13/afero"
)

// TestOS is an engine.OS with its own environment and working directory.
// Exit and Exec record their calls instead of acting on the test process.
type TestOS struct {
	*engine.MapEnv

	Fs   afero.Fs
	Pid  int
	Uid  int
	Host string
	// ExecErr is returned by Exec.
	ExecErr error

	mu    sync.Mutex
	wd    string
	exits []int
	execs [][]string
}

var _ engine.OS = (*TestOS)(nil)

// New creates a TestOS rooted at dir on the host filesystem with a minimal
// environment.
func New(dir string) *TestOS {
	env := engine.NewMapEnvFromEnvList([]string{
		"HOME=" + dir,
		"PATH=" + engine.DefaultPath,
		"PWD=" + dir,
	})
	return &TestOS{
		MapEnv: env,
		Fs:     afero.NewOsFs(),
		Pid:    4242,
		Uid:    1000,
		Host:   "gsh-test.local",
		wd:     dir,
	}
}

// Getwd implements engine.OS.Getwd.
func (t *TestOS) Getwd() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wd, nil
}

// Chdir implements engine.OS.Chdir.
func (t *TestOS) Chdir(dir string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !filepath.IsAbs(dir) {
		dir = filepath.Join(t.wd, dir)
	}
	if ok, err := afero.IsDir(t.Fs, dir); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%s: not a directory", dir)
	}
	t.wd = filepath.Clean(dir)
	return nil
}

// Getpid implements engine.OS.Getpid.
func (t *TestOS) Getpid() int {
	return t.Pid
}

// Getuid implements engine.OS.Getuid.
func (t *TestOS) Getuid() int {
	return t.Uid
}

// Hostname implements engine.OS.Hostname.
func (t *TestOS) Hostname() (string, error) {
	return t.Host, nil
}

// Exit implements engine.OS.Exit.
func (t *TestOS) Exit(code int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exits = append(t.exits, code)
}

// Exec implements engine.OS.Exec.
func (t *TestOS) Exec(path string, argv []string, envv []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.execs = append(t.execs, append([]string{path}, argv...))
	return t.ExecErr
}

// Exits returns the codes passed to Exit.
func (t *TestOS) Exits() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]int(nil), t.exits...)
}

// Execs returns the path and argv of every Exec call.
func (t *TestOS) Execs() [][]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][]string(nil), t.execs...)
}

// NewEngine creates an engine running against t whose output and error
// streams are captured in the returned buffers.
func (t *TestOS) NewEngine() (*engine.Engine, *Buffer, *Buffer) {
	stdout, stderr := &Buffer{}, &Buffer{}
	e := engine.New(t, engine.NewStreams(nil, stdout, stderr))
	e.Fs = t.Fs
	return e, stdout, stderr
}

// Buffer is a bytes.Buffer that can be written by several processes at once.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
