package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonLinesRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewJsonLinesLogRecorder(buf)
	log.Now = func() time.Time {
		return time.Date(2006, 1, 2, 3, 4, 5, 0, time.UTC)
	}

	session := log.NewSession()
	require.NotEmpty(t, session.SessionID())

	require.NoError(t, session.Record(&RunCommand{
		Command:             []string{"ls", "-l"},
		ResolvedCommandPath: "/bin/ls",
		ExitCode:            0,
	}))
	require.NoError(t, session.Record(&UnknownCommand{Command: []string{"nope"}, ErrorMessage: "not found"}))
	require.NoError(t, log.Sessionless().Record(&Unimplemented{Feature: "here-documents"}))

	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))

	var entries []*LogEntry
	require.NoError(t, ReadJSONLinesLog(buf, func(le *LogEntry) {
		entries = append(entries, le)
	}))
	require.Len(t, entries, 3)

	assert.Equal(t, session.SessionID(), entries[0].SessionID)
	assert.Equal(t, int64(1136171045000000), entries[0].TimestampMicros)
	assert.Equal(t, "/bin/ls", entries[0].RunCommand.ResolvedCommandPath)
	assert.IsType(t, &UnknownCommand{}, entries[1].GetLogType())
	assert.Empty(t, entries[2].SessionID)
	assert.Equal(t, "here-documents", entries[2].Unimplemented.Feature)
}

func TestReport(t *testing.T) {
	var report Report
	for _, le := range []*LogEntry{
		{SessionID: "a", RunCommand: &RunCommand{Command: []string{"ls"}, ResolvedCommandPath: "/bin/ls"}},
		{SessionID: "a", RunCommand: &RunCommand{Command: []string{"false"}, ResolvedCommandPath: "/bin/false", ExitCode: 1}},
		{SessionID: "b", UnknownCommand: &UnknownCommand{Command: []string{"nope"}}},
		{SessionID: "b", InvalidInvocation: &InvalidInvocation{Command: []string{"exit"}, Error: "bad code"}},
		{SessionID: "b", InvalidInvocation: &InvalidInvocation{Command: []string{"exit"}, Error: "bad code"}},
		{Unimplemented: &Unimplemented{Feature: "background jobs"}},
		{SubshellExit: &SubshellExit{ExitCode: 3}},
		{},
	} {
		report.Update(le)
	}

	assert.Equal(t, 8, report.LogEntries)
	assert.Equal(t, 2, report.Sessions.Get("a"))
	assert.Equal(t, 1, report.RunCommand.CommandNames.Get("ls"))
	assert.Equal(t, 1, report.RunCommand.ExitCodes.Get("1"))
	assert.Equal(t, 1, report.UnknownCommand.CommandNames.Get("nope"))
	assert.Equal(t, 2, report.InvalidInvocation.Invocations.Get("exit", "bad code"))
	assert.Equal(t, 1, report.Unimplemented.Features.Get("background jobs"))
	assert.Equal(t, []string{"a", "b"}, report.Sessions.Keys())
	assert.Equal(t, 1, report.Subshell.Count)

	_, err := json.Marshal(&report)
	assert.NoError(t, err)
}

func TestPathCounterMarshal(t *testing.T) {
	ctr := NewPathCounter("command", "error")
	ctr.Increment("cd", "no such file")
	ctr.Increment("cd", "no such file")
	ctr.Increment("exit", "bad code")

	out, err := json.Marshal(ctr)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"count": 2, "event": {"command": "cd", "error": "no such file"}},
		{"count": 1, "event": {"command": "exit", "error": "bad code"}}
	]`, string(out))
}
