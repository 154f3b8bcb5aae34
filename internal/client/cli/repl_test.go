package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubExec records which commands the REPL dispatched.
type stubExec struct {
	loggedIn bool
	calls    []string
}

func (s *stubExec) isLoggedIn() bool { return s.loggedIn }

func (s *stubExec) record(name string) error {
	s.calls = append(s.calls, name)
	return nil
}

func (s *stubExec) Register(ctx context.Context) error { return s.record("register") }
func (s *stubExec) Login(ctx context.Context) error    { return s.record("login") }
func (s *stubExec) Logout(ctx context.Context) error   { return s.record("logout") }
func (s *stubExec) Whoami(ctx context.Context) error   { return s.record("whoami") }
func (s *stubExec) List(ctx context.Context) error     { return s.record("list") }
func (s *stubExec) Add(ctx context.Context) error      { return s.record("add") }
func (s *stubExec) Delete(ctx context.Context) error   { return s.record("delete") }
func (s *stubExec) Summary(ctx context.Context) error  { return s.record("summary") }

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	old := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimRight(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = old })
	return &lines
}

func runScript(t *testing.T, exec *stubExec, script string) []string {
	t.Helper()
	out := captureOutput(t)
	scanner := bufio.NewScanner(strings.NewReader(script))
	runREPL(context.Background(), exec, func() string { return "" }, scanner)
	return *out
}

func TestREPL_DispatchesCommands(t *testing.T) {
	exec := &stubExec{loggedIn: true}
	runScript(t, exec, "list\nadd\nsummary\nlogout\nexit\n")

	assert.Equal(t, []string{"list", "add", "summary", "logout"}, exec.calls)
}

func TestREPL_ShortListAlias(t *testing.T) {
	exec := &stubExec{loggedIn: true}
	runScript(t, exec, "l\nquit\n")

	assert.Equal(t, []string{"list"}, exec.calls)
}

func TestREPL_UnknownCommandReported(t *testing.T) {
	exec := &stubExec{}
	out := runScript(t, exec, "frobnicate\nexit\n")

	joined := strings.Join(out, "\n")
	assert.Contains(t, joined, "Unknown command: frobnicate")
	assert.Empty(t, exec.calls)
}

func TestREPL_HelpDependsOnAuthState(t *testing.T) {
	out := runScript(t, &stubExec{loggedIn: false}, "help\nexit\n")
	assert.Contains(t, strings.Join(out, "\n"), "register, login, exit")

	out = runScript(t, &stubExec{loggedIn: true}, "help\nexit\n")
	assert.Contains(t, strings.Join(out, "\n"), "logout, exit")
}

func TestREPL_EmptyLinesSkipped(t *testing.T) {
	exec := &stubExec{}
	runScript(t, exec, "\n   \nlogin\nexit\n")

	assert.Equal(t, []string{"login"}, exec.calls)
}

func TestREPL_ExitsOnEOF(t *testing.T) {
	exec := &stubExec{}
	runScript(t, exec, "whoami\n") // no exit, scanner just runs dry

	assert.Equal(t, []string{"whoami"}, exec.calls)
}
