// Package markdown converts Confluence storage-format pages into markdown
// artifacts with YAML front matter.
package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"gopkg.in/yaml.v3"

	"github.com/jooleearr/chatty-boxy/internal/ports"
)

// Converter implements ports.Converter
type Converter struct {
	conv *md.Converter
}

// Ensure Converter implements ports.Converter
var _ ports.Converter = (*Converter)(nil)

// NewConverter creates a converter. baseURL is used to absolutize relative links.
func NewConverter(baseURL string) *Converter {
	domain := ""
	if baseURL != "" {
		domain = md.DomainFromURL(baseURL)
	}

	conv := md.NewConverter(domain, true, nil)
	conv.Use(
		plugin.GitHubFlavored(),
		plugin.ConfluenceCodeBlock(),
		plugin.ConfluenceAttachments(),
	)

	return &Converter{conv: conv}
}

// FrontMatter is the metadata block at the top of every artifact
type FrontMatter struct {
	ID         string    `yaml:"id"`
	Collection string    `yaml:"collection"`
	Title      string    `yaml:"title"`
	Version    int       `yaml:"version"`
	Lineage    []string  `yaml:"lineage,omitempty"`
	Path       string    `yaml:"path,omitempty"`
	SourceURL  string    `yaml:"source_url,omitempty"`
	SyncedAt   time.Time `yaml:"synced_at"`
}

// Convert renders raw storage markup as markdown under a front matter block
func (c *Converter) Convert(raw string, meta ports.ConvertMetadata) (string, error) {
	if !utf8.ValidString(raw) {
		return "", fmt.Errorf("page %s: content is not valid UTF-8", meta.ItemID)
	}

	body := ""
	if strings.TrimSpace(raw) != "" {
		converted, err := c.conv.ConvertString(raw)
		if err != nil {
			return "", fmt.Errorf("page %s: %w", meta.ItemID, err)
		}
		body = strings.TrimSpace(converted)
	}

	fm, err := yaml.Marshal(FrontMatter{
		ID:         meta.ItemID,
		Collection: meta.CollectionKey,
		Title:      meta.Title,
		Version:    meta.Version,
		Lineage:    meta.Lineage,
		Path:       meta.Path,
		SourceURL:  meta.SourceURL,
		SyncedAt:   meta.SyncedAt.UTC().Truncate(time.Second),
	})
	if err != nil {
		return "", fmt.Errorf("page %s: front matter: %w", meta.ItemID, err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	buf.WriteString("# " + meta.Title + "\n")
	if body != "" {
		buf.WriteString("\n" + body + "\n")
	}

	return buf.String(), nil
}
