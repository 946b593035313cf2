package fleet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clashlb/launcher/pkg/instance"
)

// File names under the work root.
const (
	ScriptFileName      = "launch.sh"
	BalancerLogFileName = "haproxy.log"
)

// Binaries names the executables the plan starts.
type Binaries struct {
	Clash   string
	HAProxy string
}

// Plan is the ordered launch procedure for one generation of the fleet.
type Plan struct {
	Root      string
	PIDFile   PIDFile
	Instances []SpawnSpec
	Balancer  SpawnSpec
}

// BuildPlan derives the launch procedure from the materialized instances
// and the rendered load-balancer configuration. Every path in the plan is
// made absolute, since each process runs from its own directory.
func BuildPlan(root string, instances []instance.Instance, balancerConfig string, bins Binaries) *Plan {
	root = absPath(root)
	specs := make([]SpawnSpec, len(instances))
	for i, inst := range instances {
		dir := absPath(inst.Dir)
		specs[i] = SpawnSpec{
			Role:    RoleInstance,
			Index:   inst.Index,
			Binary:  bins.Clash,
			Args:    []string{"-d", dir},
			Dir:     dir,
			LogPath: absPath(inst.LogPath),
		}
	}
	return &Plan{
		Root:      root,
		PIDFile:   PIDFile{Path: filepath.Join(root, PIDFileName)},
		Instances: specs,
		Balancer: SpawnSpec{
			Role:    RoleBalancer,
			Index:   -1,
			Binary:  bins.HAProxy,
			Args:    []string{"-f", absPath(balancerConfig)},
			Dir:     root,
			LogPath: filepath.Join(root, BalancerLogFileName),
		},
	}
}

// absPath resolves p against the working directory, leaving it unchanged
// when that is unknown.
func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

// Steps returns every spawn in launch order.
func (p *Plan) Steps() []SpawnSpec {
	steps := make([]SpawnSpec, 0, len(p.Instances)+1)
	steps = append(steps, p.Instances...)
	return append(steps, p.Balancer)
}

// Script renders the plan as an equivalent bash script for operators who
// want to replay a launch by hand. The launcher itself never runs it.
func (p *Plan) Script() string {
	pidFile := shellQuote(p.PIDFile.Path)

	var sb strings.Builder
	sb.WriteString("#!/usr/bin/env bash\n")
	sb.WriteString(fmt.Sprintf("cat %s 2>/dev/null | xargs kill > /dev/null 2>&1\n", pidFile))
	sb.WriteString(fmt.Sprintf("rm -f %s\n", pidFile))
	for _, s := range p.Steps() {
		args := make([]string, len(s.Args))
		for i, a := range s.Args {
			args[i] = shellQuote(a)
		}
		sb.WriteString(fmt.Sprintf("(cd %s && exec %s %s) > %s 2>&1 &\n",
			shellQuote(s.Dir), shellQuote(s.Binary), strings.Join(args, " "), shellQuote(s.LogPath)))
		sb.WriteString(fmt.Sprintf("echo $! >> %s\n", pidFile))
	}
	return sb.String()
}

// WriteScript writes Script to <root>/launch.sh.
func (p *Plan) WriteScript() (string, error) {
	path := filepath.Join(p.Root, ScriptFileName)
	if err := os.WriteFile(path, []byte(p.Script()), 0o755); err != nil {
		return "", fmt.Errorf("failed to write launch script: %w", err)
	}
	return path, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
