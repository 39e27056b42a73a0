package daemon

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Streak.EventsRequiredPerDay != 1 {
		t.Errorf("Streak.EventsRequiredPerDay = %d, want 1", cfg.Streak.EventsRequiredPerDay)
	}
	if cfg.Streak.FreezeBehavior != "no_freezes" {
		t.Errorf("Streak.FreezeBehavior = %q, want %q", cfg.Streak.FreezeBehavior, "no_freezes")
	}
}

func TestStreakConfigDefault(t *testing.T) {
	sc := StreakConfig{EventsRequiredPerDay: 2, LeewayHours: 3, FreezeBehavior: "auto_consume"}
	dc := sc.Default("daily")

	if dc.StreakKey != "daily" {
		t.Errorf("StreakKey = %q, want %q", dc.StreakKey, "daily")
	}
	if dc.EventsRequiredPerDay != 2 {
		t.Errorf("EventsRequiredPerDay = %d, want 2", dc.EventsRequiredPerDay)
	}
	if err := dc.Validate(); err != nil {
		t.Errorf("Default() produced invalid config: %v", err)
	}
}

func TestLoopstateHome_RespectsEnv(t *testing.T) {
	t.Setenv("LOOPSTATE_HOME", "/tmp/loopstate-test-home")
	if got := LoopstateHome(); got != "/tmp/loopstate-test-home" {
		t.Errorf("LoopstateHome() = %q, want %q", got, "/tmp/loopstate-test-home")
	}
}
