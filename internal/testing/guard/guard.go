// Package guard switches the binaries into test mode when imported from a
// test, so calling main does not dial Postgres or Redis.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("KITCHENBOARD_TEST_MODE") == "" {
			_ = os.Setenv("KITCHENBOARD_TEST_MODE", "1")
		}
	})
}
