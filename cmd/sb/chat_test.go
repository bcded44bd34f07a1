package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestChatCmd_ScriptedConversation(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	// Missing config falls back to defaults; stdin is not a terminal here,
	// so no prompt characters appear in the output.
	cmd.SetIn(strings.NewReader("hi\n1\n"))
	cmd.SetArgs([]string{"chat", "--config", "does-not-exist.yaml", "--name", "Tester"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("chat command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Hello Tester!") {
		t.Errorf("missing greeting in output: %s", out)
	}
	if !strings.Contains(out, "Pension Information") {
		t.Errorf("missing pension info response: %s", out)
	}
}

func TestServeCmd_RequiresPlatform(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/switchboard.yaml"
	if err := os.WriteFile(path, []byte("company: Acme\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"serve", "--config", path})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "platform") {
		t.Errorf("err = %v, want platform configuration error", err)
	}
}
