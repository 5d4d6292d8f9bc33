// Package catalog reads the tsd definition repository index and searches it.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/afero"
)

// Entry is one installable definition package.
type Entry struct {
	Name       string `json:"name"`
	Project    string `json:"project"`
	Path       string `json:"path,omitempty"`
	Title      string `json:"title,omitempty"`
	Version    string `json:"version,omitempty"`
	ProjectURL string `json:"project_url,omitempty"`
}

// Key is the unique identifier used for storage.
func (e Entry) Key() string {
	if e.Path != "" {
		return e.Path
	}

	return e.Project + "/" + e.Name
}

// DisplayName is the label shown in the picker.
func (e Entry) DisplayName() string {
	if e.Project == e.Name {
		return fmt.Sprintf("%s - %s", e.Project, e.ProjectURL)
	}

	return fmt.Sprintf("%s (%s) - %s", e.Name, e.Project, e.ProjectURL)
}

// repository mirrors the repository.json index published for tsd.
type repository struct {
	Content []struct {
		Project string `json:"project"`
		Name    string `json:"name"`
		Path    string `json:"path"`
		Info    struct {
			Name       string `json:"name"`
			Version    string `json:"version"`
			ProjectURL string `json:"projectUrl"`
		} `json:"info"`
	} `json:"content"`
}

// Parse decodes a repository.json document. Entries without a name are
// skipped; the result is sorted by key.
func Parse(r io.Reader) ([]Entry, error) {
	var repo repository
	if err := json.NewDecoder(r).Decode(&repo); err != nil {
		return nil, fmt.Errorf("failed to parse repository index: %w", err)
	}

	entries := make([]Entry, 0, len(repo.Content))
	for _, def := range repo.Content {
		if strings.TrimSpace(def.Name) == "" {
			continue
		}

		project := def.Project
		if project == "" {
			project = def.Name
		}

		entries = append(entries, Entry{
			Name:       def.Name,
			Project:    project,
			Path:       def.Path,
			Title:      def.Info.Name,
			Version:    def.Info.Version,
			ProjectURL: def.Info.ProjectURL,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key() < entries[j].Key()
	})

	return entries, nil
}

// LoadFile parses the repository index at path.
func LoadFile(fs afero.Fs, path string) ([]Entry, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository index: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return Parse(f)
}

type entrySource []Entry

func (s entrySource) String(i int) string {
	return s[i].DisplayName()
}

func (s entrySource) Len() int {
	return len(s)
}

// Search returns entries whose display name fuzzily matches term, best
// match first. An empty term returns all entries unchanged.
func Search(entries []Entry, term string) []Entry {
	term = strings.TrimSpace(term)
	if term == "" {
		return entries
	}

	matches := fuzzy.FindFrom(term, entrySource(entries))

	result := make([]Entry, 0, len(matches))
	for _, m := range matches {
		result = append(result, entries[m.Index])
	}

	return result
}
