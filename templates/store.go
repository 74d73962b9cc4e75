package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/simon020286/promptchain/models"
)

//go:embed defaults/*.txt
var defaultsFS embed.FS

// templatePattern selects template files inside a directory tree
const templatePattern = "**/*.{txt,md}"

// Store holds templates by ID. A store is filled once at startup and only read
// afterwards.
type Store struct {
	templates map[string]*Template
	sources   map[string]string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		templates: make(map[string]*Template),
		sources:   make(map[string]string),
	}
}

// Defaults returns a store holding the built-in templates
func Defaults() (*Store, error) {
	s := NewStore()
	if err := s.LoadFS(defaultsFS, "defaults", "embedded"); err != nil {
		return nil, err
	}
	return s, nil
}

// Load returns the built-in templates overridden by the templates found in
// dirs, in order. Directories that do not exist are skipped.
func Load(dirs ...string) (*Store, error) {
	s, err := Defaults()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := s.LoadDir(dir); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers a template, replacing any template with the same ID
func (s *Store) Add(t *Template, source string) {
	s.templates[t.ID()] = t
	s.sources[t.ID()] = source
}

// LoadDir loads every template below dir. The ID of a template is its path
// relative to dir without extension, e.g. "longform/global".
func (s *Store) LoadDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return &models.TemplateLoadError{Name: "*", Path: dir, Err: err}
	}
	if !info.IsDir() {
		return &models.TemplateLoadError{Name: "*", Path: dir, Err: fmt.Errorf("not a directory")}
	}
	return s.LoadFS(os.DirFS(dir), ".", dir)
}

// LoadFS loads every template below root in fsys
func (s *Store) LoadFS(fsys fs.FS, root, label string) error {
	sub := fsys
	if root != "." && root != "" {
		var err error
		sub, err = fs.Sub(fsys, root)
		if err != nil {
			return &models.TemplateLoadError{Name: "*", Path: label, Err: err}
		}
	}

	matches, err := doublestar.Glob(sub, templatePattern)
	if err != nil {
		return &models.TemplateLoadError{Name: "*", Path: label, Err: err}
	}
	sort.Strings(matches)

	for _, name := range matches {
		data, err := fs.ReadFile(sub, name)
		if err != nil {
			return &models.TemplateLoadError{Name: name, Path: label, Err: err}
		}
		id := strings.TrimSuffix(name, path.Ext(name))
		s.Add(Parse(id, string(data)), path.Join(label, name))
	}
	return nil
}

// Get returns a template by ID, or a TemplateLoadError when missing
func (s *Store) Get(id string) (*Template, error) {
	t, ok := s.templates[id]
	if !ok {
		return nil, &models.TemplateLoadError{Name: id, Err: fs.ErrNotExist}
	}
	return t, nil
}

// MustGet is like Get but panics when the template is missing
func (s *Store) MustGet(id string) *Template {
	t, err := s.Get(id)
	if err != nil {
		panic(err)
	}
	return t
}

// Source returns where a template was loaded from
func (s *Store) Source(id string) string {
	return s.sources[id]
}

// List returns all template IDs, sorted
func (s *Store) List() []string {
	ids := make([]string, 0, len(s.templates))
	for id := range s.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of templates
func (s *Store) Count() int {
	return len(s.templates)
}
