package logging

import (
	"sync"
	"testing"

	"github.com/vvka-141/pglode/pkg/pglode"
)

// Interface compliance.
var (
	_ pglode.Logger = (*ConsoleLogger)(nil)
	_ pglode.Logger = (*NullLogger)(nil)
)

func TestConsoleLoggerConcurrency(t *testing.T) {
	logger := NewConsoleLogger(true)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Verbose("verbose %d", n)
			logger.Info("info %d", n)
			logger.Error("error %d", n)
		}(i)
	}
	wg.Wait()
}

func TestNullLoggerDiscardsEverything(t *testing.T) {
	logger := NewNullLogger()
	logger.Verbose("dropped %s", "a")
	logger.Info("dropped")
	logger.Error("dropped %d", 1)
}
