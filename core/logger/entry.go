package logger

// LogEntry is a single event in the log. Exactly one of the event fields is
// set.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	RunCommand        *RunCommand        `json:"run_command,omitempty"`
	UnknownCommand    *UnknownCommand    `json:"unknown_command,omitempty"`
	InvalidInvocation *InvalidInvocation `json:"invalid_invocation,omitempty"`
	Unimplemented     *Unimplemented     `json:"unimplemented,omitempty"`
	SubshellExit      *SubshellExit      `json:"subshell_exit,omitempty"`
}

// GetLogType returns the event held by the entry or nil if none is set.
func (le *LogEntry) GetLogType() LogType {
	switch {
	case le.RunCommand != nil:
		return le.RunCommand
	case le.UnknownCommand != nil:
		return le.UnknownCommand
	case le.InvalidInvocation != nil:
		return le.InvalidInvocation
	case le.Unimplemented != nil:
		return le.Unimplemented
	case le.SubshellExit != nil:
		return le.SubshellExit
	default:
		return nil
	}
}

// LogType is implemented by every event that can be stored in a LogEntry.
type LogType interface {
	attach(le *LogEntry)
}

// RunCommand is logged when a program exits.
type RunCommand struct {
	Command             []string `json:"command"`
	ResolvedCommandPath string   `json:"resolved_command_path"`
	ExitCode            int      `json:"exit_code"`
	Signal              string   `json:"signal,omitempty"`
}

// UnknownCommand is logged when a program can't be launched.
type UnknownCommand struct {
	Command      []string `json:"command"`
	ErrorMessage string   `json:"error_message"`
}

// InvalidInvocation is logged when a builtin is called incorrectly.
type InvalidInvocation struct {
	Command []string `json:"command"`
	Error   string   `json:"error"`
}

// Unimplemented is logged when the input used an unsupported construct.
type Unimplemented struct {
	Feature string `json:"feature"`
	Source  string `json:"source,omitempty"`
}

// SubshellExit is logged when an isolated subshell terminates.
type SubshellExit struct {
	ExitCode int    `json:"exit_code"`
	Error    string `json:"error,omitempty"`
}

func (e *RunCommand) attach(le *LogEntry)        { le.RunCommand = e }
func (e *UnknownCommand) attach(le *LogEntry)    { le.UnknownCommand = e }
func (e *InvalidInvocation) attach(le *LogEntry) { le.InvalidInvocation = e }
func (e *Unimplemented) attach(le *LogEntry)     { le.Unimplemented = e }
func (e *SubshellExit) attach(le *LogEntry)      { le.SubshellExit = e }
