package engine

import (
	"sort"
	"strings"
	"sync"
)

// NewMapEnvFromEnvList creates a new environment from "key=value" pairs.
func NewMapEnvFromEnvList(environ []string) *MapEnv {
	out := &MapEnv{}
	for _, e := range environ {
		key, value, _ := strings.Cut(e, "=")
		out.Setenv(key, value)
	}
	return out
}

// MapEnv is an in-memory environment.
type MapEnv struct {
	rw  sync.RWMutex
	env map[string]string
}

// Setenv sets the value of the environment variable named by the key.
func (m *MapEnv) Setenv(key, value string) error {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
	return nil
}

// LookupEnv retrieves the value of the environment variable named by the key.
func (m *MapEnv) LookupEnv(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Getenv retrieves the value of the environment variable named by the key.
// It returns the value, which will be empty if the variable is not present.
func (m *MapEnv) Getenv(key string) string {
	val, _ := m.LookupEnv(key)
	return val
}

// Environ returns the variables in sorted "key=value" form.
func (m *MapEnv) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	var out []string
	for k, v := range m.env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
