package crypto

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateIdentityGeneratesOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")

	identity, err := LoadOrCreateIdentity(path)
	if err != nil {
		t.Fatalf("LoadOrCreateIdentity: %v", err)
	}

	reloaded, err := LoadOrCreateIdentity(path)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}

	if identity.ParticipantID() != reloaded.ParticipantID() {
		t.Errorf("expected the same identity across reloads, got %q then %q", identity.ParticipantID(), reloaded.ParticipantID())
	}
}

func TestLoadOrCreateIdentityRejectsTamperedPublicKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")

	identity, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	if err := SaveIdentity(path, identity); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	otherIdentity, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	tampered := bytes.Replace(data, []byte(identity.ParticipantID()), []byte(otherIdentity.ParticipantID()), 1)
	if err := os.WriteFile(path, tampered, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadOrCreateIdentity(path); err == nil {
		t.Error("expected a mismatched public key in the key file to be rejected")
	}
}
