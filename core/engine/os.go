package engine

import (
	"os"

	"golang.org/x/sys/unix"
)

// Environment variables the engine reads or maintains.
const (
	EnvHome   = "HOME"
	EnvPWD    = "PWD"
	EnvOldPWD = "OLDPWD"
	EnvPath   = "PATH"
)

// OS is the part of the operating system the engine runs against. Processes
// launched by the engine inherit its environment and working directory.
type OS interface {
	Getenv(key string) string
	LookupEnv(key string) (string, bool)
	Setenv(key, value string) error
	// Environ returns a copy of the environment in "key=value" form.
	Environ() []string

	Getwd() (string, error)
	Chdir(dir string) error
	Getpid() int
	Getuid() int
	Hostname() (string, error)

	// Exit terminates the shell process.
	Exit(code int)
	// Exec replaces the image of the shell process. It only returns on
	// failure.
	Exec(path string, argv []string, envv []string) error
}

// HostOS is the OS of the running process.
type HostOS struct{}

var _ OS = HostOS{}

// Getenv implements OS.Getenv.
func (HostOS) Getenv(key string) string {
	return os.Getenv(key)
}

// LookupEnv implements OS.LookupEnv.
func (HostOS) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Setenv implements OS.Setenv.
func (HostOS) Setenv(key, value string) error {
	return os.Setenv(key, value)
}

// Environ implements OS.Environ.
func (HostOS) Environ() []string {
	return os.Environ()
}

// Getwd implements OS.Getwd.
func (HostOS) Getwd() (string, error) {
	return os.Getwd()
}

// Chdir implements OS.Chdir.
func (HostOS) Chdir(dir string) error {
	return os.Chdir(dir)
}

// Getpid implements OS.Getpid.
func (HostOS) Getpid() int {
	return os.Getpid()
}

// Getuid implements OS.Getuid.
func (HostOS) Getuid() int {
	return os.Getuid()
}

// Hostname implements OS.Hostname.
func (HostOS) Hostname() (string, error) {
	return os.Hostname()
}

// Exit implements OS.Exit.
func (HostOS) Exit(code int) {
	os.Exit(code)
}

// Exec implements OS.Exec.
func (HostOS) Exec(path string, argv []string, envv []string) error {
	return unix.Exec(path, argv, envv)
}
