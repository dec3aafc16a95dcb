package cli

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
)

func TestNewRootCmd_hasSubcommands(t *testing.T) {
	root := NewRootCmd("test")
	if root == nil {
		t.Fatal("NewRootCmd returned nil")
	}
	cmds := root.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}
	for _, want := range []string{"start", "stop", "status", "doctor", "report", "users", "sync", "reset", "apikey"} {
		if !names[want] {
			t.Errorf("expected subcommand %q", want)
		}
	}
}

func TestNewRootCmd_versionFlag(t *testing.T) {
	root := NewRootCmd("1.2.3")
	if root.Version != "1.2.3" {
		t.Errorf("Version: got %q", root.Version)
	}
}

func TestNewRootCmd_hasHomeAndConfigFlags(t *testing.T) {
	root := NewRootCmd("")
	for _, name := range []string{"home", "config"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Fatalf("expected --%s persistent flag", name)
		}
	}
}

func TestApikeyGenerate(t *testing.T) {
	root := NewRootCmd("")
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--home", t.TempDir(), "apikey", "generate"})
	if err := root.Execute(); err != nil {
		t.Fatalf("apikey generate: %v", err)
	}
	out := buf.String()
	hexKey := regexp.MustCompile(`(?m)^  ([a-f0-9]{64})$`)
	if !hexKey.MatchString(out) {
		t.Errorf("output should contain a 64-char hex key on its own line; got:\n%s", out)
	}
	if !strings.Contains(out, "AEGIS_API_KEY") {
		t.Errorf("output should mention AEGIS_API_KEY")
	}
	if !strings.Contains(out, "X-API-Key") {
		t.Errorf("output should mention X-API-Key")
	}
}

// run executes the root command against home and returns stdout, stderr and the error.
func run(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd("test")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--home", home}, args...))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DATABASE_URL", "REDIS_ADDR", "AEGIS_API_KEY", "SLACK_WEBHOOK_URL", ActorEnv} {
		t.Setenv(k, "")
	}
}

func TestReportCommands(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()

	out, _, err := run(t, home, "report", "list")
	if err != nil {
		t.Fatalf("report list: %v", err)
	}
	for _, id := range []string{"AW-2023-001", "AW-2023-002", "AW-2023-003", "AW-2023-004"} {
		if !strings.Contains(out, id) {
			t.Errorf("report list missing %s:\n%s", id, out)
		}
	}

	out, _, err = run(t, home, "report", "list", "--search", "privacy")
	if err != nil || !strings.Contains(out, "AW-2023-003") || strings.Contains(out, "AW-2023-001") {
		t.Fatalf("report list --search: %v\n%s", err, out)
	}

	if _, _, err := run(t, home, "report", "list", "--status", "closed"); err == nil {
		t.Fatal("expected error for invalid --status")
	}

	if _, _, err := run(t, home, "report", "assign", "AW-2023-003", "inv-1"); err == nil {
		t.Fatal("assign without --as should fail")
	}

	out, _, err = run(t, home, "report", "--as", "ethics-1", "assign", "AW-2023-003", "David Lee")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !strings.Contains(out, "[under_review]") || !strings.Contains(out, "David Lee") {
		t.Fatalf("assign output: %s", out)
	}

	if _, _, err := run(t, home, "report", "--as", "inv-1", "note", "AW-2023-003", "Requested", "server", "logs"); err != nil {
		t.Fatalf("note: %v", err)
	}

	out, _, err = run(t, home, "report", "show", "AW-2023-003")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Requested server logs") || !strings.Contains(out, "Assigned to David Lee") {
		t.Fatalf("show output:\n%s", out)
	}

	out, _, err = run(t, home, "users", "reports", "inv-1")
	if err != nil || !strings.Contains(out, "AW-2023-003") {
		t.Fatalf("users reports: %v\n%s", err, out)
	}

	out, _, err = run(t, home, "report", "counts")
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if !regexp.MustCompile(`under review\s+2`).MatchString(out) || !regexp.MustCompile(`Total\s+4`).MatchString(out) {
		t.Fatalf("counts output:\n%s", out)
	}
}

func TestReportSubmitAndReset(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()

	out, _, err := run(t, home, "report", "submit", "--title", "Kickbacks", "--summary", "Vendor paying buyers", "--category", "Fraud")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	m := regexp.MustCompile(`Submitted (AW-\d{4}-\d{3})`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("submit output: %s", out)
	}

	if _, _, err := run(t, home, "report", "submit", "--type", "manual"); err == nil {
		t.Fatal("submit without title and summary should fail")
	}

	out, _, _ = run(t, home, "report", "list", "--search", "kickbacks")
	if !strings.Contains(out, m[1]) {
		t.Fatalf("submitted report not listed:\n%s", out)
	}

	out, _, err = run(t, home, "reset", "--yes")
	if err != nil || !strings.Contains(out, "Reset.") {
		t.Fatalf("reset: %v\n%s", err, out)
	}
	out, _, _ = run(t, home, "report", "list", "--search", "kickbacks")
	if !strings.Contains(out, "No reports found.") {
		t.Fatalf("report survived reset:\n%s", out)
	}
}

func TestUsersCommands(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()

	out, _, err := run(t, home, "users", "list", "--investigators")
	if err != nil {
		t.Fatalf("users list: %v", err)
	}
	if strings.Contains(out, "ethics-1") || !strings.Contains(out, "inv-2") {
		t.Fatalf("users list --investigators:\n%s", out)
	}

	if _, _, err := run(t, home, "users", "init"); err != nil {
		t.Fatalf("users init: %v", err)
	}
	if _, _, err := run(t, home, "users", "init"); err == nil {
		t.Fatal("second users init without --force should fail")
	}
	if _, _, err := run(t, home, "users", "push"); err == nil {
		t.Fatal("users push on sqlite should fail")
	}
}

func TestSyncLocalBackend(t *testing.T) {
	clearEnv(t)
	out, _, err := run(t, t.TempDir(), "sync")
	if err != nil || !strings.Contains(out, "nothing to sync") {
		t.Fatalf("sync: %v\n%s", err, out)
	}
}

func TestDoctor(t *testing.T) {
	clearEnv(t)
	out, _, err := run(t, t.TempDir(), "doctor")
	if err != nil || !strings.Contains(out, "ok (backend sqlite)") {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
}
