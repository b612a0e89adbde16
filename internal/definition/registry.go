package definition

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/iwvelando/finance-calculators/internal/calculator"
	"github.com/iwvelando/finance-calculators/pkg/expr"
	"go.uber.org/zap"
)

// Registry holds compiled calculators keyed by slug.
type Registry struct {
	calculators map[string]*calculator.Calculator
	sources     map[string]string
	cache       *expr.Cache
}

// NewRegistry compiles defs into a registry. Every calculator shares one
// expression cache.
func NewRegistry(logger *zap.Logger, defs ...calculator.Definition) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		calculators: make(map[string]*calculator.Calculator, len(defs)),
		sources:     make(map[string]string, len(defs)),
		cache:       expr.NewCache(),
	}
	for _, def := range defs {
		if err := r.add(logger, def, ""); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(logger *zap.Logger, def calculator.Definition, source string) error {
	if prev, ok := r.sources[def.Slug]; ok {
		if prev == "" {
			prev = "an earlier definition"
		}
		return &calculator.LoadError{Slug: def.Slug, Err: fmt.Errorf("duplicate slug, already defined in %s", prev)}
	}
	calc, err := calculator.Compile(logger, def, calculator.WithCache(r.cache))
	if err != nil {
		if source != "" {
			return fmt.Errorf("%s: %w", source, err)
		}
		return err
	}
	r.calculators[def.Slug] = calc
	r.sources[def.Slug] = source
	return nil
}

// LoadFiles reads every definition file under paths. Directories are walked
// recursively; missing paths are skipped. Use CheckPaths first when the paths
// were named explicitly.
func LoadFiles(logger *zap.Logger, paths ...string) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	files, err := findDefinitionFiles(paths)
	if err != nil {
		return nil, err
	}

	r, _ := NewRegistry(logger)
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read definition file %s: %w", file, err)
		}
		defs, err := Decode(file, data)
		if err != nil {
			return nil, err
		}
		for _, def := range defs {
			if err := r.add(logger, def, file); err != nil {
				logger.Error("failed to load calculator definition",
					zap.String("op", "definition.LoadFiles"),
					zap.String("file", file),
					zap.String("slug", def.Slug),
					zap.Error(err),
				)
				return nil, err
			}
		}
		logger.Debug("loaded definition file",
			zap.String("op", "definition.LoadFiles"),
			zap.String("file", file),
			zap.Int("calculators", len(defs)),
		)
	}

	logger.Info("calculator registry loaded",
		zap.String("op", "definition.LoadFiles"),
		zap.Int("files", len(files)),
		zap.Int("calculators", r.Len()),
		zap.Int("expressions", r.cache.Len()),
	)
	return r, nil
}

// CheckPaths returns an error for the first path that does not exist.
func CheckPaths(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("definition path %s does not exist", path)
			}
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}
	}
	return nil
}

// findDefinitionFiles returns the supported files below paths, sorted and
// without duplicates.
func findDefinitionFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})
	addFile := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		all = append(all, p)
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			if !IsDefinitionFile(path) {
				return nil, fmt.Errorf("unsupported definition file %s", path)
			}
			addFile(path)
			continue
		}
		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && IsDefinitionFile(p) {
				addFile(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(all)
	return all, nil
}

// Get returns the calculator registered under slug.
func (r *Registry) Get(slug string) (*calculator.Calculator, bool) {
	calc, ok := r.calculators[slug]
	return calc, ok
}

// Slugs returns the registered slugs in sorted order.
func (r *Registry) Slugs() []string {
	slugs := make([]string, 0, len(r.calculators))
	for slug := range r.calculators {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// Source returns the file a calculator was loaded from, or "" when it was
// registered directly.
func (r *Registry) Source(slug string) string {
	return r.sources[slug]
}

// Len returns the number of registered calculators.
func (r *Registry) Len() int {
	return len(r.calculators)
}
