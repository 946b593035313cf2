package fleet

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"clashlb/launcher/pkg/instance"
)

func testPlan(root string) *Plan {
	instances := []instance.Instance{
		{Index: 0, Dir: filepath.Join(root, "clash_0"), LogPath: filepath.Join(root, "clash_0", "output.log")},
		{Index: 1, Dir: filepath.Join(root, "clash_1"), LogPath: filepath.Join(root, "clash_1", "output.log")},
	}
	return BuildPlan(root, instances, filepath.Join(root, "haproxy.cfg"), Binaries{Clash: "clash", HAProxy: "haproxy"})
}

func TestBuildPlan(t *testing.T) {
	root := "/work"
	plan := testPlan(root)

	if plan.PIDFile.Path != "/work/pids.txt" {
		t.Errorf("PIDFile = %q", plan.PIDFile.Path)
	}

	steps := plan.Steps()
	if len(steps) != 3 {
		t.Fatalf("len(Steps()) = %d, want 3", len(steps))
	}

	first := steps[0]
	if first.Role != RoleInstance || first.Binary != "clash" {
		t.Errorf("steps[0] = %+v", first)
	}
	if want := []string{"-d", "/work/clash_0"}; !reflect.DeepEqual(first.Args, want) {
		t.Errorf("steps[0].Args = %v, want %v", first.Args, want)
	}
	if first.LogPath != "/work/clash_0/output.log" {
		t.Errorf("steps[0].LogPath = %q", first.LogPath)
	}

	last := steps[2]
	if last.Role != RoleBalancer || last.Index != -1 {
		t.Errorf("last step = %+v, want balancer", last)
	}
	if want := []string{"-f", "/work/haproxy.cfg"}; !reflect.DeepEqual(last.Args, want) {
		t.Errorf("balancer args = %v, want %v", last.Args, want)
	}
	if last.LogPath != "/work/haproxy.log" {
		t.Errorf("balancer log = %q", last.LogPath)
	}
}

func TestBuildPlan_RelativeRoot(t *testing.T) {
	cwd := t.TempDir()
	t.Chdir(cwd)

	plan := testPlan("work")
	if want := filepath.Join(cwd, "work"); plan.Root != want {
		t.Errorf("Root = %q, want %q", plan.Root, want)
	}
	if want := filepath.Join(cwd, "work", PIDFileName); plan.PIDFile.Path != want {
		t.Errorf("PIDFile = %q, want %q", plan.PIDFile.Path, want)
	}

	for _, step := range plan.Steps() {
		if !filepath.IsAbs(step.Dir) {
			t.Errorf("%s %d: Dir %q is relative", step.Role, step.Index, step.Dir)
		}
		if !filepath.IsAbs(step.LogPath) {
			t.Errorf("%s %d: LogPath %q is relative", step.Role, step.Index, step.LogPath)
		}
		if len(step.Args) != 2 || !filepath.IsAbs(step.Args[1]) {
			t.Errorf("%s %d: Args %q must name an absolute path", step.Role, step.Index, step.Args)
		}
	}

	inst := plan.Steps()[1]
	if want := filepath.Join(cwd, "work", "clash_1"); inst.Dir != want || inst.Args[1] != want {
		t.Errorf("instance 1 Dir = %q Args = %q, want %q", inst.Dir, inst.Args, want)
	}
	if want := filepath.Join(cwd, "work", "haproxy.cfg"); plan.Balancer.Args[1] != want {
		t.Errorf("balancer config = %q, want %q", plan.Balancer.Args[1], want)
	}
}

func TestPlan_Script(t *testing.T) {
	script := testPlan("/work").Script()

	lines := strings.Split(strings.TrimSpace(script), "\n")
	if lines[0] != "#!/usr/bin/env bash" {
		t.Errorf("shebang = %q", lines[0])
	}
	if !strings.Contains(lines[1], "xargs kill") {
		t.Errorf("line 1 = %q, want kill of previous pids", lines[1])
	}
	if lines[2] != "rm -f '/work/pids.txt'" {
		t.Errorf("line 2 = %q", lines[2])
	}
	// 3 header lines, then 2 lines per spawn.
	if len(lines) != 3+2*3 {
		t.Fatalf("script has %d lines:\n%s", len(lines), script)
	}
	if !strings.Contains(lines[7], "'haproxy' '-f' '/work/haproxy.cfg'") {
		t.Errorf("balancer line = %q", lines[7])
	}
	if lines[8] != "echo $! >> '/work/pids.txt'" {
		t.Errorf("last line = %q", lines[8])
	}
}

func TestPlan_WriteScript(t *testing.T) {
	root := t.TempDir()
	plan := testPlan(root)

	path, err := plan.WriteScript()
	if err != nil {
		t.Fatalf("WriteScript() error = %v", err)
	}
	if path != filepath.Join(root, ScriptFileName) {
		t.Errorf("path = %q", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != plan.Script() {
		t.Error("written script differs from Script()")
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "'plain'"},
		{"with space", "'with space'"},
		{"it's", `'it'\''s'`},
	}
	for _, tt := range tests {
		if got := shellQuote(tt.in); got != tt.want {
			t.Errorf("shellQuote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
