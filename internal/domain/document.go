package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind tells which side of a pair a document belongs to.
type Kind string

const (
	KindCandidate Kind = "candidate"
	KindJob       Kind = "job"
)

// ParseKind accepts singular and plural spellings used on the command line and in URLs.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "candidate", "candidates", "cv", "cvs":
		return KindCandidate, nil
	case "job", "jobs", "jd", "jds":
		return KindJob, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

func (k Kind) String() string { return string(k) }

type Document struct {
	ID         string         `json:"id"`
	Kind       Kind           `json:"kind"`
	Name       string         `json:"name"`
	Content    string         `json:"content"`
	FileName   string         `json:"fileName,omitempty"`
	MimeType   string         `json:"mimeType,omitempty"`
	Notes      string         `json:"notes,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	Structured map[string]any `json:"structured,omitempty"`
	Enriching  bool           `json:"enriching"`
}

// NewDocument creates a document with a fresh identity. Content is required.
func NewDocument(kind Kind, name, content string) (*Document, error) {
	if kind != KindCandidate && kind != KindJob {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("%s-%s", kind, time.Now().UTC().Format("20060102-150405"))
	}

	return &Document{
		ID:        uuid.NewString(),
		Kind:      kind,
		Name:      name,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DocumentPatch holds the user-editable fields. Nil fields are left untouched.
type DocumentPatch struct {
	Name     *string `json:"name,omitempty"`
	Content  *string `json:"content,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	FileName *string `json:"fileName,omitempty"`
	MimeType *string `json:"mimeType,omitempty"`
}

func (p DocumentPatch) Empty() bool {
	return p.Name == nil && p.Content == nil && p.Notes == nil && p.FileName == nil && p.MimeType == nil
}

// Apply updates d in place. The identity and creation time never change.
func (p DocumentPatch) Apply(d *Document) error {
	if p.Content != nil {
		content := strings.TrimSpace(*p.Content)
		if content == "" {
			return ErrEmptyContent
		}
		d.Content = content
		// structured data was derived from the old content
		d.Structured = nil
	}
	if p.Name != nil {
		if name := strings.TrimSpace(*p.Name); name != "" {
			d.Name = name
		}
	}
	if p.Notes != nil {
		d.Notes = strings.TrimSpace(*p.Notes)
	}
	if p.FileName != nil {
		d.FileName = strings.TrimSpace(*p.FileName)
	}
	if p.MimeType != nil {
		d.MimeType = strings.TrimSpace(*p.MimeType)
	}
	return nil
}

// Clone returns a copy that shares nothing mutable with d.
func (d Document) Clone() Document {
	if d.Structured != nil {
		d.Structured = cloneMap(d.Structured)
	}
	return d
}

type Documents struct {
	Items []*Document
}

func (d *Documents) Len() int {
	return len(d.Items)
}

func (d *Documents) FindByID(id string) *Document {
	for _, doc := range d.Items {
		if doc.ID == id {
			return doc
		}
	}
	return nil
}

// Remove drops the document with the given id, preserving order.
func (d *Documents) Remove(id string) bool {
	for idx, doc := range d.Items {
		if doc.ID == id {
			d.Items = append(d.Items[:idx], d.Items[idx+1:]...)
			return true
		}
	}
	return false
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch typed := v.(type) {
		case map[string]any:
			out[k] = cloneMap(typed)
		case []any:
			out[k] = append([]any(nil), typed...)
		case []string:
			out[k] = append([]string(nil), typed...)
		default:
			out[k] = v
		}
	}
	return out
}
