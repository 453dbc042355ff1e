package crypto

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const keyFilePerm = 0600

// keyFile is the on-disk shape of a saved identity: the private scalar
// and its derived public key, the latter kept as a cross-check:
// LoadOrCreateIdentity rejects a file whose public key does not match
// the identity it rebuilds from the private scalar.
type keyFile struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
}

// LoadOrCreateIdentity loads the identity keyed at path, generating and
// saving a fresh one if the file does not yet exist.
//
// Grounded on privval/file_pv.go's FilePV.loadKey/saveKey (generate on
// first run, JSON key file with 0600 permissions); the per-height/round
// LastSignState double-sign guard that accompanied that key file has no
// analogue here, since double-move detection for this protocol lives in
// the ledger's turn/nonce rules, not in a per-signer progress file.
func LoadOrCreateIdentity(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		identity, err := GenerateIdentity()
		if err != nil {
			return nil, err
		}
		if err := SaveIdentity(path, identity); err != nil {
			return nil, err
		}
		return identity, nil
	}
	if err != nil {
		return nil, fmt.Errorf("crypto: reading key file: %w", err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("crypto: parsing key file: %w", err)
	}

	raw, err := hex.DecodeString(kf.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("crypto: decoding private key: %w", err)
	}
	identity, err := IdentityFromPrivateKeyBytes(raw)
	if err != nil {
		return nil, err
	}
	if identity.ParticipantID() != kf.PublicKey {
		return nil, fmt.Errorf("crypto: key file public key does not match its private key")
	}
	return identity, nil
}

// SaveIdentity writes identity's private key to path in a JSON key file
// with owner-only permissions.
func SaveIdentity(path string, identity *Identity) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("crypto: creating key directory: %w", err)
	}

	kf := keyFile{
		PrivateKey: hex.EncodeToString(identity.PrivateKeyBytes()),
		PublicKey:  identity.ParticipantID(),
	}
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("crypto: marshaling key file: %w", err)
	}
	if err := os.WriteFile(path, data, keyFilePerm); err != nil {
		return fmt.Errorf("crypto: writing key file: %w", err)
	}
	return nil
}
