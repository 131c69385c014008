package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const minimalConfig = `
username: pet@example.com
password: hunter2
database:
  path: /tmp/petkit-test.db
`

func TestLoadMinimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	accounts := cfg.Accounts()
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	acc := accounts[0]
	if acc.Username != "pet@example.com" {
		t.Errorf("unexpected username: %s", acc.Username)
	}
	if acc.APIBase != DefaultAPIBase {
		t.Errorf("expected default api base, got %s", acc.APIBase)
	}
	if acc.Interval() != 2*time.Minute {
		t.Errorf("expected 2m default interval, got %v", acc.Interval())
	}
}

func TestLoadMultipleAccounts(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
api_base: https://api.petkt.com/latest/
scan_interval: 300
feeding_amount: 20
accounts:
  - username: a@example.com
    password: secret-a
  - username: b@example.com
    password: secret-b
    scan_interval: 60
    feeding_amount: feeder_portion
database:
  path: /tmp/petkit-test.db
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	accounts := cfg.Accounts()
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}

	// Account entries inherit top-level defaults.
	if accounts[0].APIBase != "https://api.petkt.com/latest/" {
		t.Errorf("account 0 api base not inherited: %s", accounts[0].APIBase)
	}
	if accounts[0].Interval() != 5*time.Minute {
		t.Errorf("account 0 interval not inherited: %v", accounts[0].Interval())
	}
	if accounts[0].FeedingAmount.Literal != 20 {
		t.Errorf("account 0 feeding amount not inherited: %+v", accounts[0].FeedingAmount)
	}

	// Explicit per-account values win.
	if accounts[1].Interval() != time.Minute {
		t.Errorf("account 1 interval: %v", accounts[1].Interval())
	}
	if accounts[1].FeedingAmount.Ref != "feeder_portion" {
		t.Errorf("account 1 feeding amount ref: %+v", accounts[1].FeedingAmount)
	}
}

func TestAmountRefUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		literal int
		ref     string
	}{
		{"integer", "feeding_amount: 15", 15, ""},
		{"numeric string", `feeding_amount: "15"`, 15, ""},
		{"input name", "feeding_amount: portion_input", 0, "portion_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, minimalConfig+tt.yaml+"\n"))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			got := cfg.Accounts()[0].FeedingAmount
			if got.Literal != tt.literal || got.Ref != tt.ref {
				t.Errorf("got %+v, want literal=%d ref=%q", got, tt.literal, tt.ref)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PETKIT_DATABASE_PATH", "/override/petkit.db")
	t.Setenv("PETKIT_MQTT_PASSWORD", "broker-secret")
	t.Setenv("PETKIT_PASSWORD", "env-password")

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.Path != "/override/petkit.db" {
		t.Errorf("database path override not applied: %s", cfg.Database.Path)
	}
	if cfg.MQTT.Auth.Password != "broker-secret" {
		t.Errorf("mqtt password override not applied")
	}
	if cfg.Accounts()[0].Password != "env-password" {
		t.Errorf("account password override not applied")
	}
}

func TestValidateRejectsMissingAccount(t *testing.T) {
	_, err := Load(writeConfig(t, `
database:
  path: /tmp/petkit-test.db
`))
	if err == nil {
		t.Fatal("expected validation error for missing account")
	}
}

func TestValidateRejectsBadQoS(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
mqtt:
  qos: 3
`))
	if err == nil {
		t.Fatal("expected validation error for qos 3")
	}
}

func TestAPITimeouts(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
api:
  timeouts:
    read: 30
    write: 45
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.API.ReadTimeout(); got != 30*time.Second {
		t.Errorf("ReadTimeout() = %v, want 30s", got)
	}
	if got := cfg.API.WriteTimeout(); got != 45*time.Second {
		t.Errorf("WriteTimeout() = %v, want 45s", got)
	}

	// Unset values fall back to defaults even on a zero config.
	var zero APIConfig
	if got := zero.ReadTimeout(); got != 15*time.Second {
		t.Errorf("zero ReadTimeout() = %v, want 15s", got)
	}
	if got := zero.WriteTimeout(); got != 15*time.Second {
		t.Errorf("zero WriteTimeout() = %v, want 15s", got)
	}
	if got := zero.IdleTimeout(); got != 60*time.Second {
		t.Errorf("zero IdleTimeout() = %v, want 60s", got)
	}
}
