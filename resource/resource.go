// Package resource serves instructional text documents loaded from a
// directory at startup.
package resource

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/mcpcli"
)

// Interface compliance check.
var _ mcpcli.ResourceStore = (*Store)(nil)

// DefaultPattern selects every file below the resource root.
const DefaultPattern = "**/*"

// Store is an immutable set of named documents. Names are slash-separated
// paths relative to the root, so a top-level file HKube.md is named
// "HKube.md".
type Store struct {
	docs  map[string]string
	names []string
}

// Option configures loading.
type Option func(*loadConfig)

type loadConfig struct {
	pattern string
}

// WithPattern restricts loading to files matching a doublestar pattern,
// such as "**/*.md".
func WithPattern(p string) Option {
	return func(c *loadConfig) { c.pattern = p }
}

// Open loads the documents under dir. A missing directory yields an empty
// store.
func Open(dir string, opts ...Option) (*Store, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, iofs.ErrNotExist) {
		return &Store{docs: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resource: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("resource: %s is not a directory: %w", dir, mcpcli.ErrValidation)
	}
	return Load(os.DirFS(dir), opts...)
}

// Load reads every matching file of fsys into memory.
func Load(fsys iofs.FS, opts ...Option) (*Store, error) {
	cfg := loadConfig{pattern: DefaultPattern}
	for _, o := range opts {
		o(&cfg)
	}
	if !doublestar.ValidatePattern(cfg.pattern) {
		return nil, fmt.Errorf("resource: invalid pattern %q: %w", cfg.pattern, mcpcli.ErrValidation)
	}

	s := &Store{docs: map[string]string{}}
	err := doublestar.GlobWalk(fsys, cfg.pattern, func(p string, d iofs.DirEntry) error {
		if d.IsDir() || strings.HasPrefix(path.Base(p), ".") {
			return nil
		}
		b, err := iofs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		s.docs[p] = string(b)
		s.names = append(s.names, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resource: %w", err)
	}
	sort.Strings(s.names)
	return s, nil
}

// List returns the document names in lexical order.
func (s *Store) List() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Read returns the document name refers to. Lookup tries, in order: the
// exact name; a case-insensitive match on the name, its base name or its
// stem; a unique name containing the query (or contained in it); a unique
// name containing every word of the query. Several candidates at one step is an error that
// lists them.
func (s *Store) Read(name string) (string, error) {
	q := strings.TrimSpace(name)
	if q == "" {
		return "", fmt.Errorf("resource name is empty: %w", mcpcli.ErrResourceNotFound)
	}
	if doc, ok := s.docs[q]; ok {
		return doc, nil
	}

	q = strings.ToLower(q)
	steps := []func(key string) bool{
		func(key string) bool { return key == q || path.Base(key) == q || stem(key) == q },
		func(key string) bool { return strings.Contains(key, q) || strings.Contains(q, stem(key)) },
		func(key string) bool {
			for _, w := range strings.Fields(q) {
				if !strings.Contains(key, w) {
					return false
				}
			}
			return true
		},
	}
	for _, match := range steps {
		var found []string
		for _, n := range s.names {
			if match(strings.ToLower(n)) {
				found = append(found, n)
			}
		}
		switch len(found) {
		case 0:
			continue
		case 1:
			return s.docs[found[0]], nil
		default:
			return "", fmt.Errorf("%q is ambiguous, matches %s: %w", name, strings.Join(found, ", "), mcpcli.ErrResourceNotFound)
		}
	}
	return "", fmt.Errorf("%q: %w", name, mcpcli.ErrResourceNotFound)
}

func stem(key string) string {
	base := path.Base(key)
	return strings.TrimSuffix(base, path.Ext(base))
}
