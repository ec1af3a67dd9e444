package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/josephlewis42/gsh/core/node"
	"github.com/pborman/getopt/v2"
)

// BuiltinContext is the environment a builtin runs in.
type BuiltinContext struct {
	Engine  *Engine
	Streams Streams
}

// BuiltinFunc is the entrypoint of a builtin. args[0] is the name the builtin
// was invoked by. A returned error is reported by the engine, the status is
// used as-is.
type BuiltinFunc func(ctx *BuiltinContext, args []string) (node.Status, error)

// Builtin is an operation that runs inside the shell process.
type Builtin struct {
	// Use holds a one line usage string.
	Use string
	// Short holds a one line description of the builtin.
	Short string
	Main  BuiltinFunc
}

// AllBuiltins holds every builtin the shell ships with.
var AllBuiltins = make(map[string]Builtin)

// BuiltinNames returns the sorted names in the registry.
func BuiltinNames(builtins map[string]Builtin) []string {
	var names []string
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Cd is the cd shell builtin
func Cd(ctx *BuiltinContext, args []string) (node.Status, error) {
	sys := ctx.Engine.OS
	switch len(args) {
	case 1:
		home := sys.Getenv(EnvHome)
		if home == "" {
			return node.Failure, errors.New("HOME not set")
		}
		args = append(args, home)
	case 2:
	default:
		return node.Failure, errors.New("too many arguments")
	}

	old, _ := sys.Getwd()
	if err := sys.Chdir(ctx.Engine.resolve(args[1])); err != nil {
		return node.Failure, err
	}
	wd, err := sys.Getwd()
	if err != nil {
		return node.Failure, err
	}
	sys.Setenv(EnvOldPWD, old)
	sys.Setenv(EnvPWD, wd)
	return node.Success, nil
}

// Pwd is the pwd shell builtin
func Pwd(ctx *BuiltinContext, args []string) (node.Status, error) {
	opts := getopt.New()
	logical := opts.Bool('L', "print the value of $PWD if it names the current working directory")
	physical := opts.Bool('P', "print the physical directory, without any symbolic links")

	if err := opts.Getopt(args, nil); err != nil {
		fmt.Fprintln(ctx.Streams.Stderr, "usage: pwd [-LP]")
		opts.PrintOptions(ctx.Streams.Stderr)
		return node.StatusFromCode(2), err
	}
	if opts.NArgs() > 0 {
		return node.Failure, errors.New("too many arguments")
	}

	wd, err := ctx.Engine.OS.Getwd()
	if err != nil {
		return node.Failure, err
	}

	switch {
	case *physical && !*logical:
		if wd, err = filepath.EvalSymlinks(wd); err != nil {
			return node.Failure, err
		}
	default:
		if pwd := ctx.Engine.OS.Getenv(EnvPWD); samePath(pwd, wd) {
			wd = pwd
		}
	}

	fmt.Fprintln(ctx.Streams.Stdout, wd)
	return node.Success, nil
}

// samePath reports whether the logical path refers to the physical one.
func samePath(logical, physical string) bool {
	if !filepath.IsAbs(logical) {
		return false
	}
	a, err := filepath.EvalSymlinks(logical)
	if err != nil {
		return false
	}
	b, err := filepath.EvalSymlinks(physical)
	if err != nil {
		return false
	}
	return a == b
}

// Exec is the exec shell builtin, on success it doesn't return.
func Exec(ctx *BuiltinContext, args []string) (node.Status, error) {
	if len(args) < 2 {
		return node.Failure, errors.New("no program given")
	}
	failure := ctx.Engine.ReplaceImage(args[1], args[1:])
	if errors.Is(failure, ErrNotFound) {
		return node.StatusFromCode(127), failure
	}
	return node.StatusFromCode(126), failure
}

// Exit quits the shell
func Exit(ctx *BuiltinContext, args []string) (node.Status, error) {
	code := 0
	switch len(args) {
	case 1:
	case 2:
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return node.StatusFromCode(2), fmt.Errorf("%s: numeric argument required", args[1])
		}
		code = int(uint8(n))
	default:
		return node.Failure, errors.New("too many arguments")
	}

	ctx.Engine.OS.Exit(code)
	return node.StatusFromCode(code), nil
}

// Help lists the builtins.
func Help(ctx *BuiltinContext, args []string) (node.Status, error) {
	opts := getopt.New()
	short := opts.Bool('s', "output only a short usage synopsis for each topic")
	if err := opts.Getopt(args, nil); err != nil {
		fmt.Fprintln(ctx.Streams.Stderr, "usage: help [-s] [pattern ...]")
		opts.PrintOptions(ctx.Streams.Stderr)
		return node.StatusFromCode(2), err
	}

	builtins := ctx.Engine.Builtins
	topics := opts.Args()
	if len(topics) == 0 {
		topics = BuiltinNames(builtins)
	}

	w := ctx.Streams.Stdout
	if opts.NArgs() == 0 && !*short {
		fmt.Fprintln(w, "These shell commands are defined internally.  Type `help' to see this list.")
		fmt.Fprintln(w, "Type `help name' to find out more about the function `name'.")
		fmt.Fprintln(w)
	}

	status := node.Success
	for _, topic := range topics {
		builtin, ok := builtins[topic]
		if !ok {
			fmt.Fprintf(ctx.Streams.Stderr, "help: no help topics match `%s'\n", topic)
			status = node.Failure
			continue
		}
		if *short {
			fmt.Fprintf(w, "%s: %s\n", topic, builtin.Use)
			continue
		}
		fmt.Fprintf(w, "%-24s %s\n", builtin.Use, builtin.Short)
	}
	return status, nil
}

func init() {
	AllBuiltins["cd"] = Builtin{Use: "cd [dir]", Short: "Change the shell working directory.", Main: Cd}
	AllBuiltins["pwd"] = Builtin{Use: "pwd [-LP]", Short: "Print the name of the current working directory.", Main: Pwd}
	AllBuiltins["exec"] = Builtin{Use: "exec command [arguments ...]", Short: "Replace the shell with the given command.", Main: Exec}
	AllBuiltins["exit"] = Builtin{Use: "exit [n]", Short: "Exit the shell.", Main: Exit}
	AllBuiltins["help"] = Builtin{Use: "help [-s] [pattern ...]", Short: "Display information about builtin commands.", Main: Help}
}
