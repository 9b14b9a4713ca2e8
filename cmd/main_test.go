package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pterm/pterm"
)

func TestMain(m *testing.M) {
	pterm.DisableOutput()
	os.Exit(m.Run())
}

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LEDGER_SECRET", "cli-secret")
	t.Setenv("LEDGER_DIFFICULTY", "1")
	t.Setenv("LEDGER_SIGNER", "secret")
}

// TestDemoExportThenVerify records a few events, exports them and checks the
// export with the verify command.
func TestDemoExportThenVerify(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "chain.json")

	if err := run([]string{"demo", "-events", "3", "-seed", "7", "-export", path}); err != nil {
		t.Fatalf("demo: %v", err)
	}
	if err := run([]string{"verify", path}); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := run([]string{"verify", "-strict", path}); err != nil {
		t.Fatalf("strict verify: %v", err)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "chain.json")
	if err := run([]string{"demo", "-events", "2", "-seed", "1", "-export", path}); err != nil {
		t.Fatalf("demo: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var export map[string]any
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatal(err)
	}
	blocks := export["blocks"].([]any)
	payload := blocks[1].(map[string]any)["payload"].(map[string]any)
	payload["severity"] = "low-and-harmless"
	data, err = json.Marshal(export)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	err = run([]string{"verify", path})
	if !errors.Is(err, errChainInvalid) {
		t.Fatalf("expected an integrity failure, got %v", err)
	}
}

func TestVerifyWithWrongSecret(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "chain.json")
	if err := run([]string{"demo", "-events", "1", "-export", path}); err != nil {
		t.Fatalf("demo: %v", err)
	}

	t.Setenv("LEDGER_SECRET", "someone-else")
	err := run([]string{"verify", path})
	if !errors.Is(err, errChainInvalid) || !strings.Contains(err.Error(), "signature") {
		t.Fatalf("expected a signature failure, got %v", err)
	}
}

func TestRunErrors(t *testing.T) {
	setupEnv(t)
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"deal"}},
		{"verify without file", []string{"verify"}},
		{"verify missing file", []string{"verify", filepath.Join(t.TempDir(), "missing.json")}},
		{"bad public key", []string{"verify", "-pubkey", "zz", "chain.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(tt.args); err == nil {
				t.Fatalf("expected an error for %v", tt.args)
			}
		})
	}
}

func TestFormatDetails(t *testing.T) {
	got := formatDetails(map[string]any{"risk_score": 7, "description": "scan"})
	want := "description=scan risk_score=7"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
