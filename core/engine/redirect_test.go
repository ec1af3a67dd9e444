package engine_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/gsh/core/engine"
	"github.com/josephlewis42/gsh/core/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedirect(t *testing.T) {
	cases := map[string]struct {
		existing string
		cmd      *node.Redirected
		want     string
	}{
		"write-creates": {
			cmd:  redirected(node.Write, nil, "f", "printf", "new"),
			want: "new",
		},
		"write-truncates": {
			existing: "old contents",
			cmd:      redirected(node.Write, nil, "f", "printf", "new"),
			want:     "new",
		},
		"append": {
			existing: "old,",
			cmd:      redirected(node.Append, nil, "f", "printf", "new"),
			want:     "old,new",
		},
		"append-creates": {
			cmd:  redirected(node.Append, nil, "f", "printf", "new"),
			want: "new",
		},
		"stderr": {
			cmd:  redirected(node.Write, node.FD(node.Stderr), "f", "sh", "-c", "echo out; echo err >&2"),
			want: "err\n",
		},
		"readwrite-creates": {
			cmd:  redirected(node.ReadWrite, nil, "f", "cat"),
			want: "",
		},
		"readwrite-stdout": {
			existing: "xxxxx",
			cmd:      redirected(node.ReadWrite, node.FD(node.Stdout), "f", "printf", "ab"),
			want:     "abxxx",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			env := newTestEnv(t)
			path := filepath.Join(env.dir, "f")
			if tc.existing != "" {
				require.NoError(t, os.WriteFile(path, []byte(tc.existing), 0644))
			}

			status := env.engine.Run(tc.cmd)
			assert.True(t, status.Succeeded(), env.stderr.String())

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestRedirectRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	payload := "bytes \x00\xff with\nnewlines\n"

	status := env.engine.Run(redirected(node.Write, nil, "data", "printf", "%s", payload))
	require.True(t, status.Succeeded())

	out, err := env.engine.Capture(redirected(node.Read, nil, "data", "cat"))
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestRedirectReadMissing(t *testing.T) {
	env := newTestEnv(t)

	status := env.engine.Run(redirected(node.Read, nil, "missing", "cat"))

	assert.Equal(t, node.Failure, status)
	assert.Contains(t, env.stderr.String(), "missing")
	assert.Empty(t, env.events.commands(), "the stage is never spawned")
}

func TestRedirectUnsupportedCombination(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.Execute(redirected(node.Read, node.FD(node.Stdout), "f", "cat"), env.engine.Streams)
	assert.ErrorIs(t, err, engine.ErrUnsupportedRedirect)

	_, err = os.Stat(filepath.Join(env.dir, "f"))
	assert.True(t, os.IsNotExist(err))
}

func TestRedirectUnsupportedDescriptor(t *testing.T) {
	_, err := node.NewRedirectSpec(node.Write, node.FD(3), "f")
	assert.ErrorIs(t, err, node.ErrUnsupportedDescriptor)
}
