// Package export writes a saved search to a file for review outside ytsweep.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pders01/ytsweep/internal/storage"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	JSON Format = "json"
	TOML Format = "toml"
	YAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "toml":
		return TOML, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json, toml or yaml)", s)
	}
}

// FormatFromPath guesses the format from the file extension.
func FormatFromPath(path string) (Format, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", false
	}
	f, err := ParseFormat(ext)
	return f, err == nil
}

// Document is the exported shape: videos in search order, each with its
// matches.
type Document struct {
	Keyword    string    `json:"keyword" toml:"keyword" yaml:"keyword"`
	Exclusions []string  `json:"exclusions" toml:"exclusions" yaml:"exclusions"`
	SavedAt    time.Time `json:"saved_at" toml:"saved_at" yaml:"saved_at"`
	Quota      int64     `json:"quota" toml:"quota" yaml:"quota"`
	Matches    int       `json:"matches" toml:"matches" yaml:"matches"`
	Videos     []Video   `json:"videos" toml:"videos" yaml:"videos"`
}

type Video struct {
	ID       string    `json:"id" toml:"id" yaml:"id"`
	Title    string    `json:"title" toml:"title" yaml:"title"`
	Comments []Comment `json:"comments" toml:"comments" yaml:"comments"`
}

type Comment struct {
	ID          string    `json:"id" toml:"id" yaml:"id"`
	Author      string    `json:"author" toml:"author" yaml:"author"`
	Text        string    `json:"text" toml:"text" yaml:"text"`
	PublishedAt time.Time `json:"published_at" toml:"published_at" yaml:"published_at"`
	IsReply     bool      `json:"is_reply" toml:"is_reply" yaml:"is_reply"`
	ParentID    string    `json:"parent_id,omitempty" toml:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	ReplyCount  int       `json:"reply_count,omitempty" toml:"reply_count,omitempty" yaml:"reply_count,omitempty"`
}

// NewDocument flattens a saved search into a Document.
func NewDocument(saved *storage.SavedSearch) Document {
	doc := Document{
		Keyword:    saved.Keyword,
		Exclusions: saved.Exclusions,
		SavedAt:    saved.SavedAt.UTC(),
		Quota:      saved.Quota,
		Videos:     []Video{},
	}
	if doc.Exclusions == nil {
		doc.Exclusions = []string{}
	}
	if saved.Result == nil {
		return doc
	}
	for _, vid := range saved.Result.Order {
		vm := saved.Result.Videos[vid]
		if vm == nil {
			continue
		}
		v := Video{ID: vid, Title: vm.VideoTitle, Comments: make([]Comment, 0, len(vm.Comments))}
		for _, c := range vm.Comments {
			v.Comments = append(v.Comments, Comment{
				ID:          c.ID,
				Author:      c.Author,
				Text:        c.Text,
				PublishedAt: c.PublishedAt.UTC(),
				IsReply:     c.IsReply,
				ParentID:    c.ParentID,
				ReplyCount:  c.ReplyCount,
			})
		}
		doc.Matches += len(v.Comments)
		doc.Videos = append(doc.Videos, v)
	}
	return doc
}

func Write(w io.Writer, f Format, saved *storage.SavedSearch) error {
	doc := NewDocument(saved)
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case TOML:
		return toml.NewEncoder(w).Encode(doc)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// WriteFile writes atomically: the file only appears once fully written.
func WriteFile(path string, f Format, saved *storage.SavedSearch) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ytsweep-export-*")
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, f, saved); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s export: %w", f, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
