package config

import (
	"testing"
)

func TestCreateMatchingConfigProfiles(t *testing.T) {
	tests := []struct {
		perfil     string
		wantJanela int
		wantErr    bool
	}{
		{"", 5, false},
		{"default", 5, false},
		{"strict", 1, false},
		{"relaxed", 10, false},
		{"aggressive", 0, true},
	}

	for _, tt := range tests {
		config, err := CreateMatchingConfig(MatchingOverrides{Perfil: tt.perfil})
		if tt.wantErr {
			if err == nil {
				t.Errorf("profile %q: expected error", tt.perfil)
			}
			continue
		}
		if err != nil {
			t.Errorf("profile %q: %v", tt.perfil, err)
			continue
		}
		if config.JanelaDias != tt.wantJanela {
			t.Errorf("profile %q: janela = %d, want %d", tt.perfil, config.JanelaDias, tt.wantJanela)
		}
	}
}

func TestCreateMatchingConfigOverrides(t *testing.T) {
	config, err := CreateMatchingConfig(MatchingOverrides{
		JanelaDias:             7,
		ToleranciaValorPercent: 2.5,
		ScoreAutoAceite:        80,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if config.JanelaDias != 7 {
		t.Errorf("janela = %d, want 7", config.JanelaDias)
	}
	if config.ToleranciaValorPercent != 2.5 {
		t.Errorf("tolerancia = %f, want 2.5", config.ToleranciaValorPercent)
	}
	if config.ScoreAutoAceite != 80 {
		t.Errorf("auto-aceite = %f, want 80", config.ScoreAutoAceite)
	}
	// Untouched defaults survive.
	if config.ScoreMinimo != 30 {
		t.Errorf("score minimo = %f, want default 30", config.ScoreMinimo)
	}
}

func TestCreateMatchingConfigRejectsInvalidOverride(t *testing.T) {
	// Auto-accept below the floor fails validation.
	if _, err := CreateMatchingConfig(MatchingOverrides{ScoreAutoAceite: 10}); err == nil {
		t.Error("auto-accept below the suggestion floor must be rejected")
	}
}

func TestOpenStoreMemory(t *testing.T) {
	st, err := OpenStore("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()
}

func TestSetupLogger(t *testing.T) {
	if err := SetupLogger(true, "json"); err != nil {
		t.Errorf("json format: %v", err)
	}
	if err := SetupLogger(false, ""); err != nil {
		t.Errorf("default format: %v", err)
	}
	if err := SetupLogger(false, "yaml"); err == nil {
		t.Error("unknown log format must be rejected")
	}
}
