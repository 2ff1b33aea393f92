// internal/state/interface.go
package state

// Interface is the durable local storage contract: a string key-value store
// with synchronous writes.
type Interface interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
