package definition

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/iwvelando/finance-calculators/pkg/expr"
	"go.uber.org/zap"
)

var valueComparer = cmp.Comparer(func(x, y expr.Value) bool { return x == y })

// TestPerformance tests performance characteristics
func TestPerformance(t *testing.T) {
	logger := zap.NewNop()

	start := time.Now()
	reg, err := LoadFiles(logger, definitionsDir)
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}
	loadTime := time.Since(start)

	const passes = 1000
	start = time.Now()
	for _, slug := range reg.Slugs() {
		calc, _ := reg.Get(slug)
		inputs := calc.Defaults()
		for i := 0; i < passes; i++ {
			if _, err := calc.Recompute(inputs); err != nil {
				t.Fatalf("Recompute(%s) failed: %v", slug, err)
			}
		}
	}
	recomputeTime := time.Since(start)

	t.Logf("Performance metrics:")
	t.Logf("  Load definitions: %v", loadTime)
	t.Logf("  %d passes per calculator: %v", passes, recomputeTime)

	if total := loadTime + recomputeTime; total > 10*time.Second {
		t.Errorf("Total processing time %v exceeds 10 second threshold", total)
	}
}

// TestDataConsistency validates that repeated passes produce identical results
func TestDataConsistency(t *testing.T) {
	reg, err := LoadFiles(zap.NewNop(), definitionsDir)
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}

	for _, slug := range reg.Slugs() {
		calc, _ := reg.Get(slug)
		first, err := calc.Recompute(calc.Defaults())
		if err != nil {
			t.Fatalf("Recompute(%s) failed: %v", slug, err)
		}
		for i := 0; i < 5; i++ {
			again, err := calc.Recompute(calc.Defaults())
			if err != nil {
				t.Fatalf("Recompute(%s) failed on iteration %d: %v", slug, i, err)
			}
			if diff := cmp.Diff(first, again, valueComparer); diff != "" {
				t.Errorf("%s: pass %d differs (-first +again):\n%s", slug, i, diff)
			}
		}
	}
}

// TestConcurrentRecompute shares one registry between goroutines, the way
// the HTTP server does.
func TestConcurrentRecompute(t *testing.T) {
	reg, err := LoadFiles(zap.NewNop(), definitionsDir)
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}

	calc, _ := reg.Get("budget-matrimonio")
	expected, err := calc.Recompute(nil)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	results := make(chan map[string]expr.Value, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := calc.Recompute(nil)
			if err != nil {
				errs <- err
				return
			}
			results <- result.Outputs
		}()
	}
	wg.Wait()
	close(errs)
	close(results)

	for err := range errs {
		t.Errorf("concurrent Recompute failed: %v", err)
	}
	for outputs := range results {
		if diff := cmp.Diff(expected.Outputs, outputs, valueComparer); diff != "" {
			t.Errorf("concurrent pass differs (-expected +got):\n%s", diff)
		}
	}
}
