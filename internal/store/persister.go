package store

import (
	"fmt"
	"strings"
)

// Backend names accepted by OpenPersister.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// OpenPersister returns the persister for a configured backend.
func OpenPersister(backend, path string) (Persister, error) {
	switch strings.ToLower(backend) {
	case "", BackendJSON:
		return NewJSONFile(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown knowledge backend %q", backend)
	}
}
