package local

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kandev/orchestrator/internal/domain"
)

func TestSpawnPaneCapturesOutput(t *testing.T) {
	d := New(1, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := d.SpawnPane(ctx, 80, 24, domain.PaneConfig{"command": "printf hello"})
	if err != nil {
		t.Fatalf("SpawnPane: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	buf := make([]byte, 4096)
	var collected strings.Builder
	for time.Now().Before(deadline) {
		n, err := p.Read(buf)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		collected.Write(buf[:n])
		if strings.Contains(collected.String(), "hello") {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !strings.Contains(collected.String(), "hello") {
		t.Fatalf("expected output to contain hello, got %q", collected.String())
	}
}

func TestSpawnPaneReportsExitStatus(t *testing.T) {
	d := New(1, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := d.SpawnPane(ctx, 80, 24, domain.PaneConfig{"command": "exit 0"})
	if err != nil {
		t.Fatalf("SpawnPane: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && p.IsAlive() {
		time.Sleep(10 * time.Millisecond)
	}
	if p.IsAlive() {
		t.Fatal("expected pane to have exited")
	}
	if code, ok := p.ExitStatus(); !ok || code != 0 {
		t.Fatalf("expected exit code 0, got %d ok=%v", code, ok)
	}
}

func TestSpawnPaneKillStopsProcess(t *testing.T) {
	d := New(1, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := d.SpawnPane(ctx, 80, 24, domain.PaneConfig{"command": "sleep 30"})
	if err != nil {
		t.Fatalf("SpawnPane: %v", err)
	}
	if err := p.Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && p.IsAlive() {
		time.Sleep(10 * time.Millisecond)
	}
	if p.IsAlive() {
		t.Fatal("expected killed pane to report not alive")
	}
}

func TestListAndRemovePane(t *testing.T) {
	d := New(1, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := d.SpawnPane(ctx, 80, 24, domain.PaneConfig{"command": "exit 0"})
	if err != nil {
		t.Fatalf("SpawnPane: %v", err)
	}

	if len(d.ListPanes()) != 1 {
		t.Fatalf("expected 1 tracked pane, got %d", len(d.ListPanes()))
	}
	if err := d.RemovePane(p.PaneID()); err != nil {
		t.Fatalf("RemovePane: %v", err)
	}
	if len(d.ListPanes()) != 0 {
		t.Fatalf("expected pane removed, got %d", len(d.ListPanes()))
	}
}
