package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("WORKLOG_TEST_MODE") == "" {
			_ = os.Setenv("WORKLOG_TEST_MODE", "1")
		}
	})
}
