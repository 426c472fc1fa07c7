package cryptox

import "sync"

// The pepper is a process-wide secret appended to every password before
// hashing. It is optional: an empty pepper degrades to plain Argon2id.
// Set it once at startup, before any hashing happens; hashes created with
// one pepper never verify under another.

var (
	pepperMu    sync.RWMutex
	pepperValue string
)

// SetPepper installs the process-wide password pepper.
func SetPepper(p string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()
	pepperValue = p
}

func pepper() string {
	pepperMu.RLock()
	defer pepperMu.RUnlock()
	return pepperValue
}
