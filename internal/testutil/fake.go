// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

const (
	fakeSuffix  = ".fake.toml"
	callsSuffix = ".calls.toml"
)

type (
	// Fake describes how a fake external command behaves when invoked.
	Fake struct {
		// Stdout is written verbatim to standard output.
		Stdout string `toml:"stdout,omitempty"`
		// Stderr is written verbatim to standard error.
		Stderr string `toml:"stderr,omitempty"`
		// Exit is the process exit status.
		Exit int `toml:"exit,omitempty"`
		// Env lists environment variables whose values are recorded with
		// each invocation.
		Env []string `toml:"env,omitempty"`
	}

	// Invocation is one recorded run of a fake command.
	Invocation struct {
		Args []string          `toml:"args"`
		Dir  string            `toml:"dir"`
		Env  map[string]string `toml:"env,omitempty"`
	}

	invocationLog struct {
		Call []Invocation `toml:"call"`
	}
)

// FakeCommand installs a fake external command called name in dir and returns
// its path. The fake is the running test binary linked under name; the test
// package's TestMain must call FakeMain for it to take effect.
func FakeCommand(t testing.TB, dir, name string, fake Fake) string {
	t.Helper()
	SkipOnWindows(t)

	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("failed to locate test binary: %v", err)
	}
	data, err := toml.Marshal(fake)
	if err != nil {
		t.Fatalf("failed to encode fake %s: %v", name, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path+fakeSuffix, data, 0o644); err != nil {
		t.Fatalf("failed to write fake %s: %v", name, err)
	}
	if err := os.Symlink(exe, path); err != nil {
		t.Fatalf("failed to link fake %s: %v", name, err)
	}
	return path
}

// Invocations returns every recorded run of the fake command at path, oldest
// first. A fake that never ran yields an empty slice.
func Invocations(t testing.TB, path string) []Invocation {
	t.Helper()
	data, err := os.ReadFile(path + callsSuffix)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("failed to read invocations of %s: %v", path, err)
	}
	var log invocationLog
	if err := toml.Unmarshal(data, &log); err != nil {
		t.Fatalf("failed to decode invocations of %s: %v", path, err)
	}
	return log.Call
}

// FakeMain turns the process into a fake command when the test binary was
// started through a link created by FakeCommand. It returns normally
// otherwise. Call it first thing in TestMain.
func FakeMain() {
	path := os.Args[0]
	if !strings.ContainsRune(path, os.PathSeparator) {
		resolved, err := exec.LookPath(path)
		if err != nil {
			return
		}
		path = resolved
	}

	data, err := os.ReadFile(path + fakeSuffix)
	if err != nil {
		return
	}
	var fake Fake
	if err := toml.Unmarshal(data, &fake); err != nil {
		fmt.Fprintf(os.Stderr, "fake %s: %v\n", path, err)
		os.Exit(125)
	}
	if err := record(path, fake); err != nil {
		fmt.Fprintf(os.Stderr, "fake %s: %v\n", path, err)
		os.Exit(125)
	}

	_, _ = os.Stdout.WriteString(fake.Stdout)
	_, _ = os.Stderr.WriteString(fake.Stderr)
	os.Exit(fake.Exit)
}

func record(path string, fake Fake) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	call := Invocation{Args: os.Args[1:], Dir: dir}
	if call.Args == nil {
		call.Args = []string{}
	}
	for _, key := range fake.Env {
		if v, ok := os.LookupEnv(key); ok {
			if call.Env == nil {
				call.Env = make(map[string]string)
			}
			call.Env[key] = v
		}
	}

	data, err := toml.Marshal(invocationLog{Call: []Invocation{call}})
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path+callsSuffix, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
