package config

import (
	"sync"
	"testing"
)

func TestSetConfig(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	cfg := Defaults()
	cfg.WorkDir = "/srv/clash-lb"
	SetConfig(cfg)

	if got := GetConfig(); got != cfg {
		t.Fatalf("GetConfig() = %p, want %p", got, cfg)
	}
	if got := MustGetConfig().WorkDir; got != "/srv/clash-lb" {
		t.Errorf("WorkDir = %q, want /srv/clash-lb", got)
	}
}

func TestSetConfig_Concurrent(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetConfig(Defaults())
		}()
		go func() {
			defer wg.Done()
			_ = GetConfig()
		}()
	}
	wg.Wait()

	if GetConfig() == nil {
		t.Error("GetConfig() = nil after concurrent SetConfig")
	}
}

func TestMustGetConfig_Panics(t *testing.T) {
	SetConfig(nil)

	defer func() {
		if recover() == nil {
			t.Error("MustGetConfig() did not panic")
		}
	}()
	MustGetConfig()
}
