package cipher

import "os"

// HostSeed returns the seed bytes the vault derives its process-lifetime
// AES key and IV from: the user's home directory concatenated with a
// platform-specific CPU brand string probe. Binding the key to both values
// means a credential file copied to another machine cannot be decrypted
// without re-prompting, which is the vault's whole usability contract.
func HostSeed() ([]byte, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	brand := cpuBrandString()
	return []byte(home + brand), nil
}

// NewFromHost builds a Cipher from HostSeed(). This is what production
// callers use; tests construct a Cipher directly from a fixed seed so
// ciphertexts are reproducible across machines.
func NewFromHost() (*Cipher, error) {
	seed, err := HostSeed()
	if err != nil {
		return nil, err
	}
	return New(seed)
}
