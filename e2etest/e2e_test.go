package main_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

var shassemblePath string

// TestMain builds the shassemble binary once before running all tests
func TestMain(m *testing.M) {
	tempDir, err := os.MkdirTemp("", "shassemble-test")
	if err != nil {
		panic("Failed to create temp directory: " + err.Error())
	}

	execName := "shassemble"
	if runtime.GOOS == "windows" {
		execName += ".exe"
	}
	shassemblePath = filepath.Join(tempDir, execName)
	cmd := exec.Command("go", "build", "-o", shassemblePath, "./cmd/shassemble")
	cmd.Dir = ".." // Go up one level to reach the root directory
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("Failed to build shassemble: " + err.Error())
	}

	code := m.Run()
	if err := os.RemoveAll(tempDir); err != nil {
		panic("Failed to remove temp directory: " + err.Error())
	}
	os.Exit(code)
}

// run executes shassemble in dir and returns stdout.
func run(t *testing.T, dir string, args ...string) string {
	t.Helper()
	var stdout bytes.Buffer
	cmd := exec.Command(shassemblePath, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("shassemble %s failed: %v", strings.Join(args, " "), err)
	}
	return stdout.String()
}

const library = `# BEGIN BOILERPLATE
echo boilerplate
# END BOILERPLATE

foo() {
  echo foo
}

bar() {
  echo bar
}
`

const manifest = `library: functions.sh
placeholder: "@@BODY@@"
artifacts:
  - name: install
    template: install.sh.in
    functions: [bar, foo]
  - name: uninstall
    template: uninstall.sh.in
    functions: [foo]
`

func TestGenerateInstallAndUninstall(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"functions.sh":           library,
		"install.sh.in":          "#!/bin/sh\n@@BODY@@\nbar\nfoo\n",
		"uninstall.sh.in":        "#!/bin/sh\n@@BODY@@\nfoo\n",
		".config/shassemble.yml": manifest,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	run(t, dir, "check")
	run(t, dir, "gen", "--verbose")

	install, err := os.ReadFile(filepath.Join(dir, "dist", "install.sh"))
	if err != nil {
		t.Fatalf("Failed to read install script: %v", err)
	}
	want := "#!/bin/sh\necho boilerplate\nbar() {\n  echo bar\n}\nfoo() {\n  echo foo\n}\nbar\nfoo\n"
	if string(install) != want {
		t.Errorf("install script mismatch\n got: %q\nwant: %q", install, want)
	}

	stdout := run(t, dir, "gen", "-a", "uninstall", "-o", "-")
	if stdout != "#!/bin/sh\necho boilerplate\nfoo() {\n  echo foo\n}\nfoo\n" {
		t.Errorf("unexpected uninstall script on stdout: %q", stdout)
	}

	if runtime.GOOS == "windows" {
		t.Skip("generated scripts need a POSIX shell")
	}
	out, err := exec.Command("sh", filepath.Join(dir, "dist", "install.sh")).Output()
	if err != nil {
		t.Fatalf("Failed to run install script: %v", err)
	}
	if string(out) != "boilerplate\nbar\nfoo\n" {
		t.Errorf("install script output = %q", out)
	}
}

func TestScaffoldProject(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("generated scripts need a POSIX shell")
	}
	dir := t.TempDir()

	run(t, dir, "init", "--scaffold")
	run(t, dir, "check", "--strict")
	run(t, dir, "gen")

	for _, artifact := range []string{"install", "uninstall"} {
		out, err := exec.Command("sh", filepath.Join(dir, "dist", artifact+".sh")).Output()
		if err != nil {
			t.Fatalf("Failed to run %s script: %v", artifact, err)
		}
		if !strings.Contains(string(out), artifact+"ing") {
			t.Errorf("%s script output = %q", artifact, out)
		}
	}
}
