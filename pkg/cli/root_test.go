package cli

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

// captureStdout redirects command output for the duration of the test
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

// quietLogger silences command logging for the duration of the test
func quietLogger(t *testing.T) {
	t.Helper()
	old := logger.Out
	logger.SetOutput(io.Discard)
	t.Cleanup(func() { logger.SetOutput(old) })
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	// Test basic properties
	assert.Equal(t, "specbook", root.Name)
	assert.Equal(t, "Specbook - An API Specification Catalog CLI", root.Description)
	assert.NotNil(t, root.Subcommands)
	assert.NotNil(t, root.Flags)

	// Test that all expected subcommands are registered
	expectedCommands := []string{"import", "export", "inspect", "publish", "migrate"}
	for _, cmdName := range expectedCommands {
		assert.Contains(t, root.Subcommands, cmdName, "Expected subcommand %s to be registered", cmdName)
		assert.NotNil(t, root.Subcommands[cmdName].Run)
	}
	assert.Equal(t, len(expectedCommands), len(root.Subcommands))
}

func TestCommandUsage(t *testing.T) {
	out := captureStdout(t)

	err := NewRootCommand().usage()

	assert.NoError(t, err)
	output := out.String()
	assert.Contains(t, output, "Usage: specbook <command> [args]")
	assert.Contains(t, output, "Commands:")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("export")), bytes.Index(out.Bytes(), []byte("import")), "commands are listed alphabetically")
}

func TestCommandExecute_NoArgs(t *testing.T) {
	out := captureStdout(t)

	oldArgs := os.Args
	os.Args = []string{"specbook"}
	defer func() { os.Args = oldArgs }()

	assert.NoError(t, NewRootCommand().Execute())
	assert.Contains(t, out.String(), "Usage: specbook <command> [args]")
}

func TestCommandExecute_HelpFlag(t *testing.T) {
	for _, flag := range []string{"-h", "--help"} {
		t.Run(flag, func(t *testing.T) {
			out := captureStdout(t)
			assert.NoError(t, NewRootCommand().ExecuteArgs([]string{flag}))
			assert.Contains(t, out.String(), "Usage: specbook <command> [args]")
		})
	}
}

func TestCommandExecute_SubcommandWithArgs(t *testing.T) {
	root := NewRootCommand()

	var receivedArgs []string
	root.Subcommands["test"] = &Command{
		Name:        "test",
		Description: "Test command",
		Run: func(args []string) error {
			receivedArgs = args
			return nil
		},
	}

	err := root.ExecuteArgs([]string{"test", "-spec", "3", "extra"})

	assert.NoError(t, err)
	assert.Equal(t, []string{"-spec", "3", "extra"}, receivedArgs)
}

func TestCommandExecute_UnknownCommand(t *testing.T) {
	err := NewRootCommand().ExecuteArgs([]string{"nonexistent"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command: nonexistent")
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, newLogger("debug").GetLevel())
	assert.Equal(t, logrus.WarnLevel, newLogger("warning").GetLevel())
	assert.Equal(t, logrus.InfoLevel, newLogger("").GetLevel())
	assert.Equal(t, logrus.InfoLevel, newLogger("loud").GetLevel())
}
