package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workforce.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
completion:
  base_url: https://api.example.com/v1
  model: test-model
`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Listen.Port != 8321 {
		t.Errorf("Listen.Port = %d, want 8321", cfg.Listen.Port)
	}
	if cfg.Completion.MaxReactionTokens != 220 {
		t.Errorf("MaxReactionTokens = %d, want 220", cfg.Completion.MaxReactionTokens)
	}
	if cfg.Completion.TimeoutSec != 8 {
		t.Errorf("TimeoutSec = %d, want 8", cfg.Completion.TimeoutSec)
	}
	if cfg.Relay.Topic != "workforce/alerts" {
		t.Errorf("Relay.Topic = %q", cfg.Relay.Topic)
	}
	if cfg.SMTP.Port != 587 {
		t.Errorf("SMTP.Port = %d, want 587", cfg.SMTP.Port)
	}
	if cfg.DataDir != "." {
		t.Errorf("DataDir = %q, want .", cfg.DataDir)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing base url",
			content: "completion:\n  model: m\n",
			wantErr: "base_url",
		},
		{
			name:    "missing model",
			content: "completion:\n  base_url: https://x\n",
			wantErr: "model",
		},
		{
			name: "admin without id",
			content: minimalConfig + `
admins:
  - name: Avery
`,
			wantErr: "id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
listen:
  port: 9000
completion:
  base_url: https://api.example.com/v1
  api_key: sk-test
  model: test-model
  timeout_sec: 12
relay:
  broker: mqtts://mq.example.com:8883
  topic: ops/workforce
smtp:
  host: smtp.example.com
  from: "Workforce <ops@example.com>"
  starttls: true
admins:
  - id: admin-1
    name: Avery
    email: avery@example.com
duty_users: [duty-1]
data_dir: /var/lib/workforce
log_level: debug
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Listen.Port != 9000 {
		t.Errorf("Listen.Port = %d", cfg.Listen.Port)
	}
	if cfg.Completion.TimeoutSec != 12 {
		t.Errorf("TimeoutSec = %d", cfg.Completion.TimeoutSec)
	}
	if cfg.Relay.Topic != "ops/workforce" {
		t.Errorf("Relay.Topic = %q", cfg.Relay.Topic)
	}
	if !cfg.SMTP.SMTPConfigured() {
		t.Error("SMTP should be configured")
	}
	if !cfg.SMTP.StartTLS {
		t.Error("StartTLS should be set")
	}
	if len(cfg.Admins) != 1 || cfg.Admins[0].Email != "avery@example.com" {
		t.Errorf("Admins = %+v", cfg.Admins)
	}
	if cfg.DutyUsers[0] != "duty-1" {
		t.Errorf("DutyUsers = %v", cfg.DutyUsers)
	}
	if got := cfg.DatabasePath(); got != "/var/lib/workforce/workforce.db" {
		t.Errorf("DatabasePath = %q", got)
	}
}

func TestFindConfig_ExplicitMustExist(t *testing.T) {
	if _, err := FindConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}

	path := writeConfig(t, minimalConfig)
	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != path {
		t.Errorf("FindConfig = %q, want %q", got, path)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"trace", false},
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"error", false},
		{"", false},
		{"verbose", true},
	}
	for _, tt := range tests {
		_, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}
