package config

import "testing"

func TestSetAndGetConfig(t *testing.T) {
	original := GetConfig()
	t.Cleanup(func() { SetConfig(original) })

	cfg := DefaultConfig()
	cfg.Retention.Days = 7
	SetConfig(cfg)

	got := GetConfig()
	if got == nil || got.Retention.Days != 7 {
		t.Errorf("GetConfig() = %+v, want the injected config", got)
	}
}

func TestMustGetConfig_PanicsUninitialized(t *testing.T) {
	original := GetConfig()
	t.Cleanup(func() { SetConfig(original) })

	SetConfig(nil)

	defer func() {
		if recover() == nil {
			t.Error("MustGetConfig() did not panic without initialization")
		}
	}()
	MustGetConfig()
}
