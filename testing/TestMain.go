package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("WINCAP_TEST_MODE", "1")
		if os.Getenv("WINCAP_LOG_FORMAT") == "" {
			_ = os.Setenv("WINCAP_LOG_FORMAT", "pretty")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
