package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog_FormatsEntry(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)

	Warn(CatFederation, "repository lookup failed", "repository_id", "repo-managed", "kind", "Plugin")

	line := buf.String()
	require.Contains(t, line, "[WARN] [federation] repository lookup failed")
	require.Contains(t, line, "repository_id=repo-managed kind=Plugin")
	require.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
}

func TestLog_OddFieldCount(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)

	Info(CatAPI, "request", "method", "Plugin.get", "orphan")

	require.Contains(t, buf.String(), "method=Plugin.get orphan=<missing>")
}

func TestLog_MinLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelWarn)

	Debug(CatDB, "hidden")
	Info(CatDB, "hidden")
	Error(CatDB, "shown")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "[ERROR] [db] shown")
}

func TestLog_ErrorErr(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)

	ErrorErr(CatRegistry, "tag listing failed", errors.New("timeout"), "image", "cloudforet/plugin")
	ErrorErr(CatRegistry, "nil error", nil)

	require.Contains(t, buf.String(), "image=cloudforet/plugin error=timeout")
	require.Contains(t, buf.String(), "error=<nil>")
}

func TestLog_Disabled(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	SetEnabled(false)
	defer SetEnabled(true)

	Error(CatDB, "dropped")

	require.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, LevelWarn, ParseLevel("warning"))
	require.Equal(t, LevelError, ParseLevel("error"))
	require.Equal(t, LevelInfo, ParseLevel("whatever"))
}
