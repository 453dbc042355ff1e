package engine

import (
	"testing"
	"time"
)

const testMonitorTick = time.Second

func TestMonitorAllowedActionsEmptySetAllowsEverything(t *testing.T) {
	m := NewMonitor(nil, testMonitorTick)
	if !m.isAllowed("anything") {
		t.Error("expected an empty allowlist to permit every action type")
	}
}

func TestMonitorAllowedActionsRestrictsToSet(t *testing.T) {
	m := NewMonitor(nil, testMonitorTick)
	m.SetAllowedActions([]string{"fire", "scan"})

	if !m.isAllowed("fire") {
		t.Error("expected fire to be allowed")
	}
	if m.isAllowed("surrender") {
		t.Error("expected surrender to be disallowed")
	}
}

func TestMonitorCheckAppendedActionDoubleMove(t *testing.T) {
	m := NewMonitor(nil, testMonitorTick)
	ev := m.checkAppendedAction("mallory", false, "fire", "witness", 1)
	if ev == nil {
		t.Fatal("expected evidence for a move out of turn")
	}
	if ev.Kind != "DOUBLE_MOVE" {
		t.Errorf("expected DOUBLE_MOVE, got %v", ev.Kind)
	}
}

func TestMonitorCheckAppendedActionInvalidMove(t *testing.T) {
	m := NewMonitor(nil, testMonitorTick)
	m.SetAllowedActions([]string{"fire"})
	ev := m.checkAppendedAction("mallory", true, "surrender", "witness", 1)
	if ev == nil {
		t.Fatal("expected evidence for a disallowed action type")
	}
	if ev.Kind != "INVALID_MOVE" {
		t.Errorf("expected INVALID_MOVE, got %v", ev.Kind)
	}
}

func TestMonitorCheckAppendedActionAllowed(t *testing.T) {
	m := NewMonitor(nil, testMonitorTick)
	if ev := m.checkAppendedAction("bob", true, "fire", "witness", 1); ev != nil {
		t.Errorf("expected no evidence for an in-turn, allowed action, got %v", ev)
	}
}
