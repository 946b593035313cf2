package instance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"clashlb/launcher/pkg/clash"
	"clashlb/launcher/pkg/partition"
)

const baseConfig = `
port: 7890
socks-port: 7891
redir-port: 7892
mixed-port: 7893
allow-lan: true
mode: rule
external-controller: 0.0.0.0:9090
secret: s3cret
proxies:
  - name: US-1
    type: ss
    server: us1.example.com
    port: 8388
    cipher: aes-128-gcm
    password: pw1
  - name: US-2
    type: ss
    server: us2.example.com
    port: 8388
    cipher: aes-128-gcm
    password: pw2
  - name: JP-1
    type: ss
    server: jp1.example.com
    port: 8388
    cipher: aes-128-gcm
    password: pw3
proxy-groups:
  - name: ProxyGroupX
    type: select
    proxies: [US-1, US-2, JP-1]
rules:
  - DOMAIN,example.com,ProxyGroupX
  - DOMAIN,internal.local,DIRECT
`

func parseBase(t *testing.T) *clash.Config {
	t.Helper()
	cfg, err := clash.Parse([]byte(baseConfig))
	if err != nil {
		t.Fatalf("failed to parse base config: %v", err)
	}
	return cfg
}

func prepare(t *testing.T, prefix string) (*clash.Config, []string, []partition.Bucket) {
	t.Helper()
	base := parseBase(t)
	buckets, err := partition.Partition(base.Proxies, prefix)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}
	return base, partition.RewriteRules(base.Rules, partition.GroupName), buckets
}

func TestDerive_NeutralizesControlPlane(t *testing.T) {
	base, rules, buckets := prepare(t, "US")

	cfg := Derive(base, rules, buckets[1], clash.ModeSOCKS5, 7001)

	if cfg.ExternalController != "" {
		t.Errorf("ExternalController = %q, want empty", cfg.ExternalController)
	}
	if cfg.RedirPort != 0 || cfg.Port != 0 || cfg.MixedPort != 0 || cfg.TProxyPort != 0 {
		t.Errorf("fixed ports not disabled: port=%d redir=%d mixed=%d tproxy=%d",
			cfg.Port, cfg.RedirPort, cfg.MixedPort, cfg.TProxyPort)
	}
	if cfg.AllowLAN {
		t.Error("AllowLAN = true, want false")
	}
	if cfg.SocksPort != 7001 {
		t.Errorf("SocksPort = %d, want 7001", cfg.SocksPort)
	}
	if len(cfg.ProxyGroups) != 1 || !reflect.DeepEqual(cfg.ProxyGroups[0].Proxies, []string{"US-2"}) {
		t.Errorf("ProxyGroups = %+v, want a single group holding US-2", cfg.ProxyGroups)
	}
	if len(cfg.Proxies) != 1 || cfg.Proxies[0].Name != "US-2" {
		t.Errorf("Proxies = %+v, want only US-2", cfg.Proxies)
	}
	if !reflect.DeepEqual(cfg.Rules, []string{"DOMAIN,example.com,defaults", "DOMAIN,internal.local,DIRECT"}) {
		t.Errorf("Rules = %v", cfg.Rules)
	}
	if cfg.Extra["secret"] != "s3cret" || cfg.Extra["mode"] != "rule" {
		t.Errorf("unknown keys not carried over: %v", cfg.Extra)
	}
}

func TestDerive_HTTPMode(t *testing.T) {
	base, rules, buckets := prepare(t, "")
	cfg := Derive(base, rules, buckets[0], clash.ModeHTTP, 8000)
	if cfg.Port != 8000 || cfg.SocksPort != 0 {
		t.Errorf("Port=%d SocksPort=%d, want 8000/0", cfg.Port, cfg.SocksPort)
	}
}

func TestDerive_BaseUnchanged(t *testing.T) {
	base, rules, buckets := prepare(t, "")
	before := base.Clone()

	for _, b := range buckets {
		cfg := Derive(base, rules, b, clash.ModeSOCKS5, Port(7000, b.Index))
		cfg.Proxies[0].Fields["server"] = "mutated"
		cfg.Extra["mode"] = "global"
	}

	if !reflect.DeepEqual(base, before) {
		t.Error("Derive modified the base configuration")
	}
}

func TestPorts(t *testing.T) {
	got := Ports(7000, 4)
	want := []int{7000, 7001, 7002, 7003}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Ports(7000, 4) = %v, want %v", got, want)
	}
}

func TestCheckPortRange(t *testing.T) {
	tests := []struct {
		start, n int
		wantErr  bool
	}{
		{7000, 3, false},
		{65535, 1, false},
		{65534, 3, true},
		{0, 1, true},
		{-5, 1, true},
	}
	for _, tt := range tests {
		err := CheckPortRange(tt.start, tt.n)
		if (err != nil) != tt.wantErr {
			t.Errorf("CheckPortRange(%d, %d) error = %v, wantErr %v", tt.start, tt.n, err, tt.wantErr)
		}
	}
}

func TestMaterialize_Scenario(t *testing.T) {
	root := t.TempDir()
	base, rules, buckets := prepare(t, "US")

	m := NewMaterializer(Options{Root: root, StartPort: 7000, Mode: clash.ModeSOCKS5}, nil)
	instances, err := m.Materialize(context.Background(), base, rules, buckets)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if len(instances) != 2 {
		t.Fatalf("len(instances) = %d, want 2", len(instances))
	}

	for i, want := range []struct {
		proxy string
		port  int
	}{{"US-1", 7000}, {"US-2", 7001}} {
		inst := instances[i]
		if inst.Index != i || inst.ProxyName != want.proxy || inst.Port != want.port {
			t.Errorf("instances[%d] = {%d %s %d}, want {%d %s %d}",
				i, inst.Index, inst.ProxyName, inst.Port, i, want.proxy, want.port)
		}
		if inst.Dir != filepath.Join(root, "clash_"+string(rune('0'+i))) {
			t.Errorf("instances[%d].Dir = %q", i, inst.Dir)
		}
		if inst.LogPath != filepath.Join(inst.Dir, LogFileName) {
			t.Errorf("instances[%d].LogPath = %q", i, inst.LogPath)
		}

		data, err := os.ReadFile(inst.ConfigPath)
		if err != nil {
			t.Fatalf("failed to read %s: %v", inst.ConfigPath, err)
		}
		back, err := clash.Parse(data)
		if err != nil {
			t.Fatalf("written config does not parse: %v", err)
		}
		if !reflect.DeepEqual(back, inst.Config) {
			t.Errorf("round trip mismatch for instance %d:\n got %+v\nwant %+v", i, back, inst.Config)
		}
		if back.SocksPort != want.port {
			t.Errorf("written socks-port = %d, want %d", back.SocksPort, want.port)
		}
		if len(back.ProxyGroups) != 1 || back.ProxyGroups[0].Proxies[0] != want.proxy {
			t.Errorf("written proxy group = %+v, want member %s", back.ProxyGroups, want.proxy)
		}
	}

	if _, err := os.Stat(filepath.Join(root, "clash_2")); !os.IsNotExist(err) {
		t.Error("unexpected third instance directory")
	}
}

func TestMaterialize_EmptyBuckets(t *testing.T) {
	root := filepath.Join(t.TempDir(), "work")
	m := NewMaterializer(Options{Root: root, StartPort: 7000, Mode: clash.ModeSOCKS5}, nil)
	_, err := m.Materialize(context.Background(), parseBase(t), nil, nil)
	if !errors.Is(err, partition.ErrEmptySelection) {
		t.Fatalf("Materialize(no buckets) error = %v, want ErrEmptySelection", err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Error("work root should not be created for an empty selection")
	}
}

func TestMaterialize_PortOverflow(t *testing.T) {
	base, rules, buckets := prepare(t, "")
	m := NewMaterializer(Options{Root: t.TempDir(), StartPort: 65534, Mode: clash.ModeSOCKS5}, nil)
	if _, err := m.Materialize(context.Background(), base, rules, buckets); err == nil {
		t.Fatal("Materialize() expected port range error")
	}
}

func TestMaterialize_IOErrorAborts(t *testing.T) {
	root := t.TempDir()
	// A regular file where instance 1's directory should go.
	if err := os.WriteFile(filepath.Join(root, "clash_1"), []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	base, rules, buckets := prepare(t, "")
	m := NewMaterializer(Options{Root: root, StartPort: 7000, Mode: clash.ModeSOCKS5, Concurrency: 1}, nil)
	instances, err := m.Materialize(context.Background(), base, rules, buckets)
	if err == nil {
		t.Fatal("Materialize() expected error")
	}
	if instances != nil {
		t.Errorf("instances = %v, want nil on failure", instances)
	}

	var merr *MaterializeError
	if !errors.As(err, &merr) {
		t.Fatalf("expected *MaterializeError, got %T: %v", err, err)
	}
	if merr.Index != 1 || merr.Op != "mkdir" {
		t.Errorf("MaterializeError = {Index:%d Op:%s}, want {Index:1 Op:mkdir}", merr.Index, merr.Op)
	}
}

func TestMaterialize_RootIsFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "root")
	if err := os.WriteFile(root, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	base, rules, buckets := prepare(t, "")
	m := NewMaterializer(Options{Root: root, StartPort: 7000, Mode: clash.ModeSOCKS5}, nil)
	_, err := m.Materialize(context.Background(), base, rules, buckets)
	var merr *MaterializeError
	if !errors.As(err, &merr) {
		t.Fatalf("expected *MaterializeError, got %T: %v", err, err)
	}
}

func TestMaterialize_InvalidDerivedConfig(t *testing.T) {
	root := t.TempDir()
	base, rules, buckets := prepare(t, "US")
	rules = append(rules, "  ")

	m := NewMaterializer(Options{Root: root, StartPort: 7000, Mode: clash.ModeSOCKS5}, nil)
	_, err := m.Materialize(context.Background(), base, rules, buckets)

	var merr *MaterializeError
	if !errors.As(err, &merr) {
		t.Fatalf("expected *MaterializeError, got %T: %v", err, err)
	}
	if merr.Op != "validate" {
		t.Errorf("Op = %q, want validate", merr.Op)
	}
	if !errors.Is(err, clash.ErrInvalidConfig) {
		t.Errorf("error %v does not match clash.ErrInvalidConfig", err)
	}
	if _, err := os.Stat(filepath.Join(root, "clash_0", ConfigFileName)); !os.IsNotExist(err) {
		t.Error("no instance config should be written for an invalid derivation")
	}
}
