//go:build !sqlite

package storage

import "fmt"

func newSQLiteStore(path string) (Store, error) {
	return nil, fmt.Errorf("sqlite backend for %s not compiled in; rebuild with -tags sqlite", path)
}
