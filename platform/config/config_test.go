package config

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pipeline")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("ANALYTICS_TIMEZONE", "America/New_York")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetSpeedToLeadWindow() != 30*24*time.Hour {
		t.Fatalf("expected 30 day speed-to-lead window, got %s", cfg.GetSpeedToLeadWindow())
	}
	if cfg.GetAnalyticsLocation().String() != "America/New_York" {
		t.Fatalf("expected configured location, got %s", cfg.GetAnalyticsLocation())
	}
	if cfg.GetRescoreOnAttributeUpdate() {
		t.Fatalf("expected rescore policy to default to false")
	}
	if cfg.IsSnapshotEnabled() || cfg.IsMinIOEnabled() {
		t.Fatalf("expected optional backends to be disabled without endpoints")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pipeline")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("ANALYTICS_TIMEZONE", "Mars/Olympus_Mons")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestParseSourceSpend(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	data := []byte("sources:\n" +
		"  - id: " + a.String() + "\n    spendCents: 1000\n" +
		"  - id: " + b.String() + "\n    spendCents: 250\n" +
		"  - id: " + a.String() + "\n    spendCents: 500\n")

	spend, err := ParseSourceSpend(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spend[a] != 1500 || spend[b] != 250 {
		t.Fatalf("unexpected spend map %v", spend)
	}
}

func TestParseSourceSpendRejectsBadID(t *testing.T) {
	if _, err := ParseSourceSpend([]byte("sources:\n  - id: nope\n    spendCents: 1\n")); err == nil {
		t.Fatalf("expected error for invalid id")
	}
}

func TestLoadSourceSpendEmptyPath(t *testing.T) {
	spend, err := LoadSourceSpend("")
	if err != nil || len(spend) != 0 {
		t.Fatalf("expected empty map without error, got %v %v", spend, err)
	}
}
