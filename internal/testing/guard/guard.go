// Package guard flips the runtime into test mode when imported, so
// test binaries never start servers or workers by accident.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("GYMOPS_TEST_MODE") == "" {
			_ = os.Setenv("GYMOPS_TEST_MODE", "1")
		}
	})
}
