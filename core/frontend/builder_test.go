package frontend

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/josephlewis42/gsh/core/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ignoreBuild = cmpopts.IgnoreFields(node.Deferred{}, "Build")

// fakeCapturer returns canned output keyed by the formatted node.
type fakeCapturer struct {
	outputs  map[string]string
	captured []string
}

func (f *fakeCapturer) Capture(n node.Node) (string, error) {
	src, err := node.Format(n)
	if err != nil {
		return "", err
	}
	f.captured = append(f.captured, src)
	out, ok := f.outputs[src]
	if !ok {
		return "", fmt.Errorf("%s: no such command", src)
	}
	return out, nil
}

type fixture struct {
	builder  *Builder
	capturer *fakeCapturer
	reported []error
}

func newFixture() *fixture {
	f := &fixture{capturer: &fakeCapturer{outputs: map[string]string{
		"whoami":      "root\n",
		"hostname":    "  honey\n",
		`printf '\n'`: "\n",
	}}}
	env := map[string]string{
		"HOME": "/home/gsh",
		"USER": "gsh",
		"?":    "3",
	}
	f.builder = &Builder{
		IsBuiltin: func(name string) bool { return name == "cd" || name == "exit" },
		Env:       func(name string) string { return env[name] },
		Aliases:   map[string]string{"ll": "ls -l", "greet": "echo 'hello world'"},
		Capturer:  f.capturer,
		Report:    func(err error) { f.reported = append(f.reported, err) },
	}
	return f
}

func (f *fixture) build(t *testing.T, src string) (node.Node, error) {
	t.Helper()
	file, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, file.Stmts, 1)
	return f.builder.Build(file.Stmts[0])
}

func simple(words ...string) *node.Simple {
	s, err := node.NewSimple(words...)
	if err != nil {
		panic(err)
	}
	return s
}

func redirected(mode node.RedirectMode, fd *int, path string, words ...string) *node.Redirected {
	spec, err := node.NewRedirectSpec(mode, fd, path)
	if err != nil {
		panic(err)
	}
	return &node.Redirected{Launch: *simple(words...), Redirect: spec}
}

func deferred(src string) *node.Deferred {
	return &node.Deferred{Source: src}
}

func TestBuild(t *testing.T) {
	cases := map[string]struct {
		src  string
		want node.Node
	}{
		"simple":        {"echo hi", simple("echo", "hi")},
		"quotes":        {`echo 'a b' "c $USER" d\ e`, simple("echo", "a b", "c gsh", "d e")},
		"ansi-c-quotes": {`printf $'a\tb'`, simple("printf", "a\tb")},
		"status-param":  {`echo $?`, simple("echo", "3")},
		"unset-param":   {`echo "[$NOPE]"`, simple("echo", "[]")},
		"tilde":         {"ls ~/bin", simple("ls", "/home/gsh/bin")},
		"no-globbing":   {"ls *.go", simple("ls", "*.go")},
		"builtin":       {"cd /tmp", &node.Builtin{Args: []string{"cd", "/tmp"}}},
		"quoted-builtin-name": {
			`"exit" 2`, &node.Builtin{Args: []string{"exit", "2"}},
		},
		"write":     {"ls > out.txt", redirected(node.Write, nil, "out.txt", "ls")},
		"clobber":   {"ls >| out.txt", redirected(node.Write, nil, "out.txt", "ls")},
		"append":    {"echo x >> log", redirected(node.Append, nil, "log", "echo", "x")},
		"read":      {"cat < in", redirected(node.Read, nil, "in", "cat")},
		"readwrite": {"cat <> rw", redirected(node.ReadWrite, nil, "rw", "cat")},
		"stderr":    {"cat 2> err", redirected(node.Write, node.FD(2), "err", "cat")},
		"expanded-target": {
			"cat > ~/out", redirected(node.Write, nil, "/home/gsh/out", "cat"),
		},
		"pipeline": {
			"a | b | c",
			&node.Pipeline{Stages: []node.Stage{simple("a"), simple("b"), simple("c")}},
		},
		"pipeline-builtin-stage": {
			"a | cd",
			&node.Pipeline{Stages: []node.Stage{simple("a"), &node.Builtin{Args: []string{"cd"}}}},
		},
		"negated-pipeline": {
			"! a | b",
			&node.Pipeline{Stages: []node.Stage{simple("a"), simple("b")}, Negated: true},
		},
		"negated-command": {
			"! a",
			&node.Pipeline{Stages: []node.Stage{simple("a")}, Negated: true},
		},
		"and-or": {
			"a && b || c",
			&node.AndOrList{First: simple("a"), Rest: []node.AndOr{
				{Connective: node.And, Node: deferred("b")},
				{Connective: node.Or, Node: deferred("c")},
			}},
		},
		"and-or-pipeline-first": {
			"a | b && c",
			&node.AndOrList{
				First: &node.Pipeline{Stages: []node.Stage{simple("a"), simple("b")}},
				Rest:  []node.AndOr{{Connective: node.And, Node: deferred("c")}},
			},
		},
		"and-or-negated-first": {
			"! a && b",
			&node.AndOrList{
				First: &node.Pipeline{Stages: []node.Stage{simple("a")}, Negated: true},
				Rest:  []node.AndOr{{Connective: node.And, Node: deferred("b")}},
			},
		},
		"subshell": {
			"(cd /tmp; pwd)",
			&node.Subshell{Nodes: []node.Node{deferred("cd /tmp"), deferred("pwd")}},
		},
		"block": {
			"{ a; b && c; }",
			&node.AndOrList{First: simple("a"), Rest: []node.AndOr{
				{Connective: node.Sequence, Node: deferred("b && c")},
			}},
		},
		"single-block": {"{ a; }", simple("a")},
		"alias": {
			"ll /tmp", simple("ls", "-l", "/tmp"),
		},
		"alias-quoted-value": {
			"greet again", simple("echo", "hello world", "again"),
		},
		"alias-quoted-name": {
			"'ll' /tmp", simple("ll", "/tmp"),
		},
		"alias-not-argument": {
			"echo ll", simple("echo", "ll"),
		},
		"substitution": {
			"echo $(whoami)@$(hostname)", simple("echo", "root@honey"),
		},
		"quoted-substitution": {
			`echo "[$(whoami)]"`, simple("echo", "[root]"),
		},
		"backquotes": {
			"echo `whoami`", simple("echo", "root"),
		},
		"substitution-whitespace-output": {
			`echo "[$(printf '\n')]"`, simple("echo", "[]"),
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			f := newFixture()
			got, err := f.build(t, tc.src)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got, ignoreBuild); diff != "" {
				t.Errorf("Build(%q) mismatch (-want +got):\n%s", tc.src, diff)
			}
			assert.Empty(t, f.reported)
		})
	}
}

func TestBuildUnimplemented(t *testing.T) {
	cases := map[string]struct {
		src     string
		feature string
	}{
		"background":           {"sleep 1 &", "background jobs"},
		"dup-out":              {"echo x >&2", "descriptor duplication"},
		"dup-in":               {"cat <&3", "descriptor duplication"},
		"heredoc":              {"cat <<EOF\nx\nEOF", "here-documents"},
		"herestring":           {"cat <<< x", "here-strings"},
		"redirect-all":         {"ls &> out", "&> redirects"},
		"multiple-redirects":   {"cat < in > out", "multiple redirects"},
		"assignment":           {"X=1 env", "variable assignments"},
		"bare-redirect":        {"> out", "redirects without a command"},
		"if":                   {"if true; then a; fi", "if statements"},
		"while":                {"while true; do a; done", "while loops"},
		"until":                {"until true; do a; done", "until loops"},
		"for":                  {"for i in a b; do echo $i; done", "for loops"},
		"case":                 {"case x in x) a;; esac", "case statements"},
		"function":             {"f() { a; }", "function declarations"},
		"test":                 {"[[ -f x ]]", "test expressions"},
		"arithmetic":           {"echo $((1 + 2))", "arithmetic expansion"},
		"param-default":        {"echo ${X:-y}", "parameter expansion operators"},
		"param-length":         {"echo ${#X}", "parameter expansion operators"},
		"process-substitution": {"diff <(a) b", "process substitution"},
		"pipe-all":             {"a |& b", "piping standard error"},
		"builtin-redirect":     {"cd x > out", "redirecting builtins"},
		"compound-redirect":    {"(a) > out", "redirecting compound commands"},
		"compound-stage":       {"{ a; b; } | c", "compound commands in pipelines"},
		"negated-subshell":     {"! (a)", "negated compound commands"},
		"negated-unimplemented": {
			"! a > x < y", "multiple redirects",
		},
		"stage-unimplemented": {"a | b >&2", "descriptor duplication"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			f := newFixture()
			got, err := f.build(t, tc.src)
			require.NoError(t, err)

			var u *node.Unimplemented
			require.True(t, errors.As(asError(got), &u), "got %T", got)
			assert.Equal(t, tc.feature, u.Feature)
			assert.NotEmpty(t, u.Source)
			assert.Empty(t, f.capturer.captured, "unsupported commands run no substitutions")
		})
	}
}

func asError(n node.Node) error {
	if err, ok := n.(error); ok {
		return err
	}
	return nil
}

func TestBuildErrors(t *testing.T) {
	cases := map[string]struct {
		src     string
		wantErr error
	}{
		"descriptor-3":    {"cat 3> out", node.ErrUnsupportedDescriptor},
		"empty-target":    {"cat > $NOPE", ErrAmbiguousRedirect},
		"empty-substring": {`cat > "$(printf '\n')"`, ErrAmbiguousRedirect},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			f := newFixture()
			_, err := f.build(t, tc.src)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSubstitute(t *testing.T) {
	t.Run("statements-concatenated", func(t *testing.T) {
		f := newFixture()
		got, err := f.build(t, "echo $(whoami; hostname)")
		require.NoError(t, err)
		assert.Equal(t, simple("echo", "roothoney"), got)
	})

	t.Run("failure-is-empty", func(t *testing.T) {
		f := newFixture()
		got, err := f.build(t, "echo x$(nosuch)y")
		require.NoError(t, err)
		assert.Equal(t, simple("echo", "xy"), got)
		require.Len(t, f.reported, 1)
		assert.Contains(t, f.reported[0].Error(), "nosuch")
	})

	t.Run("unimplemented-reported", func(t *testing.T) {
		f := newFixture()
		got, err := f.build(t, "echo $(a &)")
		require.NoError(t, err)
		assert.Equal(t, simple("echo", ""), got)
		require.Len(t, f.reported, 1)
	})

	t.Run("no-capturer", func(t *testing.T) {
		f := newFixture()
		f.builder.Capturer = nil
		got, err := f.build(t, "echo $(whoami)")
		require.NoError(t, err)
		assert.Equal(t, simple("echo", ""), got)
		assert.Equal(t, []error{ErrNoCapturer}, f.reported)
	})

	t.Run("nested-command", func(t *testing.T) {
		f := newFixture()
		f.capturer.outputs["echo root"] = "root\n"
		got, err := f.build(t, "id $(echo $(whoami))")
		require.NoError(t, err)
		assert.Equal(t, simple("id", "root"), got)
		assert.Equal(t, []string{"whoami", "echo root"}, f.capturer.captured)
	})
}

func TestDeferredSkipsSubstitution(t *testing.T) {
	f := newFixture()

	got, err := f.build(t, "false && echo $(whoami)")
	require.NoError(t, err)
	assert.Empty(t, f.capturer.captured)

	list, ok := got.(*node.AndOrList)
	require.True(t, ok)
	second := list.Rest[0].Node.(*node.Deferred)

	built, err := second.Build()
	require.NoError(t, err)
	assert.Equal(t, simple("echo", "root"), built)
	assert.Equal(t, []string{"whoami"}, f.capturer.captured)
}

func TestIsIncomplete(t *testing.T) {
	cases := map[string]bool{
		"echo 'abc":      true,
		`echo "abc`:      true,
		"a &&":           true,
		"a |":            true,
		"(a":             true,
		"if true; then":  true,
		"a )":            false,
		"a ;;":           false,
	}

	for src, want := range cases {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			require.Error(t, err)
			assert.Equal(t, want, IsIncomplete(err))
		})
	}
}

func TestSource(t *testing.T) {
	file, err := Parse("a   &&  b 'c d'   > out")
	require.NoError(t, err)
	assert.Equal(t, "a && b 'c d' >out", Source(file.Stmts[0]))
}
