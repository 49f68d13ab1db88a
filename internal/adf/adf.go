// Package adf models the subset of the Atlassian Document Format that issue
// descriptions and comments use, as a closed set of node types.
package adf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the wire name of a node type.
type Kind string

const (
	KindDoc         Kind = "doc"
	KindParagraph   Kind = "paragraph"
	KindText        Kind = "text"
	KindHeading     Kind = "heading"
	KindBulletList  Kind = "bulletList"
	KindOrderedList Kind = "orderedList"
	KindListItem    Kind = "listItem"
)

// Node is one element of a document tree. The concrete types are Document,
// Paragraph, Text, Heading, BulletList, OrderedList, ListItem and Unsupported.
type Node interface {
	Kind() Kind
}

// Document is the root of a tree.
type Document struct {
	Content []Node
}

// Paragraph is a block of inline content.
type Paragraph struct {
	Content []Node
}

// Text is an inline run of text. Marks are not kept.
type Text struct {
	Text string
}

// Heading is a titled block; Level is 1 through 6.
type Heading struct {
	Level   int
	Content []Node
}

// BulletList holds ListItem children.
type BulletList struct {
	Content []Node
}

// OrderedList holds ListItem children.
type OrderedList struct {
	Content []Node
}

// ListItem holds the blocks of a single list entry.
type ListItem struct {
	Content []Node
}

// Unsupported keeps a node of any other type verbatim so that re-encoding
// does not lose it.
type Unsupported struct {
	Type string
	Raw  json.RawMessage
}

func (Document) Kind() Kind    { return KindDoc }
func (Paragraph) Kind() Kind   { return KindParagraph }
func (Text) Kind() Kind        { return KindText }
func (Heading) Kind() Kind     { return KindHeading }
func (BulletList) Kind() Kind  { return KindBulletList }
func (OrderedList) Kind() Kind { return KindOrderedList }
func (ListItem) Kind() Kind    { return KindListItem }
func (u Unsupported) Kind() Kind {
	return Kind(u.Type)
}

type wireIn struct {
	Type  Kind   `json:"type"`
	Text  string `json:"text"`
	Attrs struct {
		Level int `json:"level"`
	} `json:"attrs"`
	Content []json.RawMessage `json:"content"`
}

type wireOut struct {
	Type    Kind           `json:"type"`
	Version int            `json:"version,omitempty"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
}

// Parse decodes a JSON node and its children.
func Parse(data []byte) (Node, error) {
	var w wireIn
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("adf: decode node: %w", err)
	}

	switch w.Type {
	case KindText:
		return Text{Text: w.Text}, nil
	case KindDoc, KindParagraph, KindHeading, KindBulletList, KindOrderedList, KindListItem:
	default:
		var raw bytes.Buffer
		if err := json.Compact(&raw, data); err != nil {
			return nil, fmt.Errorf("adf: compact node: %w", err)
		}
		return Unsupported{Type: string(w.Type), Raw: raw.Bytes()}, nil
	}

	children, err := parseContent(w.Content)
	if err != nil {
		return nil, err
	}

	switch w.Type {
	case KindDoc:
		return Document{Content: children}, nil
	case KindParagraph:
		return Paragraph{Content: children}, nil
	case KindHeading:
		level := w.Attrs.Level
		if level < 1 {
			level = 1
		}
		return Heading{Level: level, Content: children}, nil
	case KindBulletList:
		return BulletList{Content: children}, nil
	case KindOrderedList:
		return OrderedList{Content: children}, nil
	default:
		return ListItem{Content: children}, nil
	}
}

func parseContent(raw []json.RawMessage) ([]Node, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]Node, 0, len(raw))
	for _, r := range raw {
		n, err := Parse(r)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireOut{Type: KindDoc, Version: 1, Content: d.Content})
}

func (p Paragraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireOut{Type: KindParagraph, Content: p.Content})
}

func (t Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireOut{Type: KindText, Text: t.Text})
}

func (h Heading) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireOut{Type: KindHeading, Attrs: map[string]any{"level": h.Level}, Content: h.Content})
}

func (l BulletList) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireOut{Type: KindBulletList, Content: l.Content})
}

func (l OrderedList) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireOut{Type: KindOrderedList, Content: l.Content})
}

func (li ListItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireOut{Type: KindListItem, Content: li.Content})
}

func (u Unsupported) MarshalJSON() ([]byte, error) {
	if len(u.Raw) > 0 {
		return u.Raw, nil
	}
	return json.Marshal(wireOut{Type: Kind(u.Type)})
}

// PlainText flattens a tree to text: blocks end with a newline, list items
// are prefixed with "- " or "N. " and nested lists are indented.
// Unsupported nodes contribute nothing.
func PlainText(n Node) string {
	var b strings.Builder
	writeNode(&b, n, "")
	return strings.TrimSpace(b.String())
}

func writeNode(b *strings.Builder, n Node, indent string) {
	switch v := n.(type) {
	case Text:
		b.WriteString(v.Text)
	case Document:
		for _, c := range v.Content {
			writeNode(b, c, indent)
		}
	case Paragraph:
		writeBlock(b, v.Content, indent)
	case Heading:
		writeBlock(b, v.Content, indent)
	case BulletList:
		for _, item := range v.Content {
			b.WriteString(indent + "- ")
			writeItem(b, item, indent)
		}
	case OrderedList:
		for i, item := range v.Content {
			fmt.Fprintf(b, "%s%d. ", indent, i+1)
			writeItem(b, item, indent)
		}
	case ListItem:
		writeItem(b, v, indent)
	}
}

func writeBlock(b *strings.Builder, content []Node, indent string) {
	for _, c := range content {
		if isList(c) && !endsWithNewline(b) {
			b.WriteString("\n")
		}
		writeNode(b, c, indent)
	}
	if !endsWithNewline(b) {
		b.WriteString("\n")
	}
}

func writeItem(b *strings.Builder, n Node, indent string) {
	item, ok := n.(ListItem)
	if !ok {
		writeNode(b, n, indent)
		if !endsWithNewline(b) {
			b.WriteString("\n")
		}
		return
	}
	for _, c := range item.Content {
		if isList(c) {
			if !endsWithNewline(b) {
				b.WriteString("\n")
			}
			writeNode(b, c, indent+"  ")
			continue
		}
		writeNode(b, c, indent)
	}
	if !endsWithNewline(b) {
		b.WriteString("\n")
	}
}

func isList(n Node) bool {
	switch n.(type) {
	case BulletList, OrderedList:
		return true
	}
	return false
}

func endsWithNewline(b *strings.Builder) bool {
	s := b.String()
	return s == "" || strings.HasSuffix(s, "\n")
}
