package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk form of a catalog.
type Document struct {
	Profiles []BookingProfile  `yaml:"profiles"`
	Aliases  map[string]string `yaml:"aliases"`
}

// DecodeDocument parses a catalog document without validating it.
func DecodeDocument(r io.Reader) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode catalog: %w", err)
	}
	if doc.Aliases == nil {
		doc.Aliases = map[string]string{}
	}
	return doc, nil
}

// LoadYAML parses and validates a catalog document.
func LoadYAML(r io.Reader) (*Catalog, error) {
	doc, err := DecodeDocument(r)
	if err != nil {
		return nil, err
	}
	return New(doc.Profiles, doc.Aliases)
}

// LoadFile reads and validates a catalog document from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// Document returns the catalog in its on-disk form.
func (c *Catalog) Document() Document {
	return Document{Profiles: c.Profiles(), Aliases: c.Aliases()}
}

// EncodeYAML writes the catalog as a YAML document.
func (c *Catalog) EncodeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.Document()); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}
