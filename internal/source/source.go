// Package source supplies evidence items to the pipeline
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/erosion/internal/model"
	"gopkg.in/yaml.v3"
)

// Source lists evidence for a category within a date range
type Source interface {
	List(ctx context.Context, category string, window model.DateRange) ([]model.EvidenceItem, error)
}

// FileSource serves evidence loaded from YAML or JSON files:
//
//	categories:
//	  fiscal:
//	    - id: fr-2025-0142
//	      title: ...
//	      published_at: 2025-03-04T12:00:00Z
type FileSource struct {
	items map[string][]model.EvidenceItem
}

type evidenceFile struct {
	Categories map[string][]model.EvidenceItem `json:"categories" yaml:"categories"`
}

// NewFileSource builds a source from items already grouped by category
func NewFileSource(items map[string][]model.EvidenceItem) *FileSource {
	s := &FileSource{items: make(map[string][]model.EvidenceItem, len(items))}
	for category, list := range items {
		s.items[category] = append([]model.EvidenceItem(nil), list...)
	}
	return s
}

// LoadFiles reads every path (a file or a directory of .yaml, .yml and
// .json files) into one source. Items of the same category are merged.
func LoadFiles(paths ...string) (*FileSource, error) {
	s := &FileSource{items: make(map[string][]model.EvidenceItem)}
	for _, path := range paths {
		files, err := expand(path)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if err := s.load(f); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func expand(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("evidence path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read evidence dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (s *FileSource) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read evidence file: %w", err)
	}
	return s.add(path, data, strings.EqualFold(filepath.Ext(path), ".json"))
}

// add decodes one evidence document; origin names it in errors
func (s *FileSource) add(origin string, data []byte, isJSON bool) error {
	var file evidenceFile
	var err error
	if isJSON {
		err = json.Unmarshal(data, &file)
	} else {
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return fmt.Errorf("parse evidence %s: %w", origin, err)
	}

	for category, items := range file.Categories {
		for i, item := range items {
			if strings.TrimSpace(item.ID) == "" {
				return fmt.Errorf("evidence %s: %s item %d has no id", origin, category, i)
			}
		}
		s.items[category] = append(s.items[category], items...)
	}
	return nil
}

// Merge combines sources into a new one. When an ID appears twice in a
// category the first occurrence wins.
func Merge(sources ...*FileSource) *FileSource {
	merged := &FileSource{items: make(map[string][]model.EvidenceItem)}
	seen := make(map[string]bool)
	for _, src := range sources {
		if src == nil {
			continue
		}
		for category, items := range src.items {
			for _, item := range items {
				key := category + "\x00" + item.ID
				if seen[key] {
					continue
				}
				seen[key] = true
				merged.items[category] = append(merged.items[category], item)
			}
		}
	}
	return merged
}

// Categories returns the categories that have evidence, sorted
func (s *FileSource) Categories() []string {
	out := make([]string, 0, len(s.items))
	for c := range s.items {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// List returns copies of the category's items published within window,
// ordered by publication time then ID. A zero window returns every item;
// otherwise undated items are left out.
func (s *FileSource) List(ctx context.Context, category string, window model.DateRange) ([]model.EvidenceItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unbounded := window.From.IsZero() && window.To.IsZero()
	var out []model.EvidenceItem
	for _, item := range s.items[category] {
		if !unbounded {
			if item.PublishedAt == nil || !inWindow(*item.PublishedAt, window) {
				continue
			}
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].PublishedAt, out[j].PublishedAt
		switch {
		case a == nil && b == nil:
			return out[i].ID < out[j].ID
		case a == nil:
			return true
		case b == nil:
			return false
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// inWindow treats a zero bound as open
func inWindow(t time.Time, w model.DateRange) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}
