package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type bufferCloser struct {
	sync.Mutex
	bytes.Buffer
}

func (b *bufferCloser) Write(p []byte) (int, error) {
	b.Lock()
	defer b.Unlock()
	return b.Buffer.Write(p)
}

func (b *bufferCloser) Close() error { return nil }

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		ok       bool
	}{
		{input: "trace", expected: LevelTrace, ok: true},
		{input: "DBG", expected: LevelDebug, ok: true},
		{input: "Warn", expected: LevelWarn, ok: true},
		{input: "critical", expected: LevelCritical, ok: true},
		{input: "off", expected: LevelOff, ok: true},
		{input: "verbose", expected: LevelInfo, ok: false},
	}
	for _, test := range tests {
		level, ok := LevelFromString(test.input)
		require.Equal(t, test.ok, ok, test.input)
		require.Equal(t, test.expected, level, test.input)
	}
	require.Equal(t, "ERR", LevelError.String())
	require.Equal(t, "OFF", Level(42).String())
}

func TestBackend(t *testing.T) {
	backend := NewBackendWithFlags(0)
	all, warnings := &bufferCloser{}, &bufferCloser{}
	require.NoError(t, backend.AddLogWriter(all, LevelTrace))
	require.NoError(t, backend.AddLogWriter(warnings, LevelWarn))
	require.NoError(t, backend.Run())
	require.Error(t, backend.Run(), "a running backend was started twice")
	require.Error(t, backend.AddLogWriter(&bufferCloser{}, LevelInfo))

	log := backend.Logger("TEST")
	log.SetLevel(LevelDebug)
	log.Tracef("dropped %d", 1)
	log.Debugf("flushed %d blocks", 3)
	log.Warn("cache full")
	backend.Close()

	lines := strings.Split(strings.TrimSpace(all.String()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasSuffix(lines[0], "[DBG] TEST: flushed 3 blocks"), lines[0])
	require.True(t, strings.HasSuffix(lines[1], "[WRN] TEST: cache full"), lines[1])
	require.Equal(t, lines[1], strings.TrimSpace(warnings.String()))
}

func TestAddLogFileRotation(t *testing.T) {
	backend := NewBackend()
	logFile := t.TempDir() + "/logs/test.log"
	require.Error(t, backend.AddLogFile(logFile, LevelInfo, Rotation{ThresholdKB: 0, MaxRolls: 1}))
	require.Error(t, backend.AddLogFile(logFile, LevelInfo, Rotation{ThresholdKB: 10, MaxRolls: -1}))
	require.NoError(t, backend.AddLogFile(logFile, LevelInfo, DefaultRotation))
}

func TestParseAndSetDebugLevels(t *testing.T) {
	defer SetLogLevels("info")

	require.NoError(t, ParseAndSetDebugLevels("debug"))
	rewardsLog, ok := Get(SubsystemTags.REWD)
	require.True(t, ok)
	require.Equal(t, LevelDebug, rewardsLog.Level())

	require.NoError(t, ParseAndSetDebugLevels("REWD=trace,RWDB=warn"))
	require.Equal(t, LevelTrace, rewardsLog.Level())
	storeLog, _ := Get(SubsystemTags.RWDB)
	require.Equal(t, LevelWarn, storeLog.Level())

	require.Error(t, ParseAndSetDebugLevels("loud"))
	require.Error(t, ParseAndSetDebugLevels("REWD"))
	require.Error(t, ParseAndSetDebugLevels("NOPE=info"))
	require.Error(t, ParseAndSetDebugLevels("REWD=loud"))
	require.Contains(t, SupportedSubsystems(), SubsystemTags.FEED)
}
