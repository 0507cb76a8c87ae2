package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/jooleearr/chatty-boxy/internal/ports"
)

// rootDir holds all artifacts inside the filesystem
const rootDir = "pages"

const artifactExt = ".md"

// ArtifactStore implements ports.ArtifactStore on a billy filesystem.
// Locations look like "DEV/123-page-title.md".
type ArtifactStore struct {
	fs billy.Filesystem
}

// Ensure ArtifactStore implements ports.ArtifactStore
var _ ports.ArtifactStore = (*ArtifactStore)(nil)

// NewArtifactStore creates a store backed by fs
func NewArtifactStore(fs billy.Filesystem) (*ArtifactStore, error) {
	if err := fs.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact root: %w", err)
	}
	return &ArtifactStore{fs: fs}, nil
}

// NewOSArtifactStore creates a store rooted at dir on the local disk
func NewOSArtifactStore(dir string) (*ArtifactStore, error) {
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, dir[1:])
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return NewArtifactStore(osfs.New(dir))
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases a title and replaces runs of other characters with "-"
func slugify(title string) string {
	slug := strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(slug) > 80 {
		slug = strings.TrimRight(slug[:80], "-")
	}
	if slug == "" {
		slug = "untitled"
	}
	return slug
}

// Location returns where an item's artifact is stored
func Location(itemID, collectionKey, title string) string {
	return path.Join(collectionKey, itemID+"-"+slugify(title)+artifactExt)
}

// Save writes content and returns its location, overwriting any previous version
func (s *ArtifactStore) Save(itemID, collectionKey, title, content string) (string, error) {
	if itemID == "" || collectionKey == "" {
		return "", fmt.Errorf("item ID and collection key are required")
	}
	if strings.ContainsAny(collectionKey, `/\`) || strings.Contains(collectionKey, "..") {
		return "", fmt.Errorf("invalid collection key: %q", collectionKey)
	}

	loc := Location(itemID, collectionKey, title)
	full := s.fs.Join(rootDir, loc)

	if err := s.fs.MkdirAll(s.fs.Join(rootDir, collectionKey), 0755); err != nil {
		return "", fmt.Errorf("failed to create collection directory: %w", err)
	}
	if err := util.WriteFile(s.fs, full, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	return loc, nil
}

// Delete removes an artifact. Returns false if it did not exist.
func (s *ArtifactStore) Delete(location string) (bool, error) {
	full, err := s.resolve(location)
	if err != nil {
		return false, err
	}

	if err := s.fs.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete artifact: %w", err)
	}
	return true, nil
}

// Exists reports whether an artifact is present at location
func (s *ArtifactStore) Exists(location string) (bool, error) {
	full, err := s.resolve(location)
	if err != nil {
		return false, err
	}

	info, err := s.fs.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// Read returns the artifact content
func (s *ArtifactStore) Read(location string) ([]byte, error) {
	full, err := s.resolve(location)
	if err != nil {
		return nil, err
	}
	return util.ReadFile(s.fs, full)
}

// List returns every artifact location, sorted
func (s *ArtifactStore) List() ([]string, error) {
	var locations []string

	err := util.Walk(s.fs, rootDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			// Skip hidden directories
			if p != rootDir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(info.Name(), artifactExt) {
			return nil
		}

		rel, err := filepath.Rel(rootDir, p)
		if err != nil {
			return err
		}
		locations = append(locations, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	sort.Strings(locations)
	return locations, nil
}

// resolve maps a location to its path in the filesystem, rejecting escapes
func (s *ArtifactStore) resolve(location string) (string, error) {
	clean := path.Clean(filepath.ToSlash(location))
	if location == "" || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." || path.IsAbs(clean) {
		return "", fmt.Errorf("invalid artifact location: %q", location)
	}
	return s.fs.Join(rootDir, clean), nil
}
