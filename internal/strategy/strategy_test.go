package strategy

import (
	"context"
	"strings"
	"testing"
)

func TestOS_Run_CapturesStdoutAndExitCode(t *testing.T) {
	res := OS{}.Run(context.Background(), CommandLine{Command: "echo hello; exit 0"})
	if res.LaunchError != "" {
		t.Fatalf("unexpected launch error: %s", res.LaunchError)
	}
	if res.ReturnCode != 0 {
		t.Fatalf("expected exit 0, got %d", res.ReturnCode)
	}
	if !strings.Contains(string(res.Stdout), "hello") {
		t.Fatalf("expected stdout to contain hello, got %q", res.Stdout)
	}
}

func TestOS_Run_NonZeroExit(t *testing.T) {
	res := OS{}.Run(context.Background(), CommandLine{Command: "exit 7"})
	if res.ReturnCode != 7 {
		t.Fatalf("expected exit 7, got %d", res.ReturnCode)
	}
}

func TestOS_Run_TruncatesOversizeOutput(t *testing.T) {
	res := OS{}.Run(context.Background(), CommandLine{
		Command:    "printf '0123456789'",
		MaxCapture: 4,
	})
	want := "0123" + TruncationMarker
	if string(res.Stdout) != want {
		t.Fatalf("stdout = %q, want %q", res.Stdout, want)
	}
}

func TestSim_Run_NeverSpawnsAndAlwaysSucceeds(t *testing.T) {
	res := Sim{}.Run(context.Background(), CommandLine{Command: "this-should-never-run"})
	if res.ReturnCode != 0 {
		t.Fatalf("expected exit 0, got %d", res.ReturnCode)
	}
	if string(res.Stdout) != "simulated" {
		t.Fatalf("expected simulated stdout, got %q", res.Stdout)
	}
	if res.LaunchError != "" {
		t.Fatalf("unexpected launch error: %s", res.LaunchError)
	}
}
