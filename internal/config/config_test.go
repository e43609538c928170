package config

import "testing"

func TestDefaults_PassValidation(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("Defaults() failed validation: %v", err)
	}
}

func TestLoad_NoPathUsesDefaults(t *testing.T) {
	m, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.MaxVelocityMMPerSec != Defaults().MaxVelocityMMPerSec {
		t.Fatalf("got %v, want default", m.MaxVelocityMMPerSec)
	}
}

func TestValidate_RejectsNonPositiveVelocity(t *testing.T) {
	m := Defaults()
	m.MaxVelocityMMPerSec = 0
	if err := m.Validate(); err == nil {
		t.Fatal("expected validation error for zero max velocity")
	}
}

func TestValidate_RejectsWindowNotExceedingTail(t *testing.T) {
	m := Defaults()
	m.MaxWindowMoves = m.KeepTailMoves
	if err := m.Validate(); err == nil {
		t.Fatal("expected validation error when max_window_moves does not exceed keep_tail_moves")
	}
}
