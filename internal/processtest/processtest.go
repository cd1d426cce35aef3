// Package processtest writes stub executables for tests that exercise external tools.
package processtest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// SkipUnlessShell skips tests that rely on "#!/bin/sh" stubs.
func SkipUnlessShell(t testing.TB) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub executables need a POSIX shell")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

// WriteScript creates an executable shell script called name in dir, returning its path.
func WriteScript(t testing.TB, dir string, name string, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("failed to write stub %s: %v", name, err)
	}
	return path
}

// StubDir creates a fresh directory and makes it the only entry on PATH for the rest of the test, so that only stubs
// (and shell builtins) can be found by name.
func StubDir(t testing.TB) string {
	t.Helper()
	SkipUnlessShell(t)
	dir := t.TempDir()
	t.Setenv("PATH", dir)
	return dir
}

// ReadArgs reads back an argument list written one-per-line by a stub using RecordArgs.
func ReadArgs(t testing.TB, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read recorded args: %v", err)
	}
	var args []string
	start := 0
	for i, b := range data {
		if b == 0 {
			args = append(args, string(data[start:i]))
			start = i + 1
		}
	}
	return args
}

// RecordArgs is a script fragment that writes each argument, NUL-terminated, to the file at path.
func RecordArgs(path string) string {
	return `for arg in "$@"; do printf '%s\0' "$arg"; done > '` + path + `'`
}
