package adf

import (
	"bytes"
	"encoding/json"
)

// RichText is either plain text or a document tree. It encodes to JSON as a
// string when plain and as the node tree otherwise.
type RichText struct {
	Plain string
	Doc   Node
}

// Plain wraps a string.
func Plain(s string) RichText {
	return RichText{Plain: s}
}

// FromNode wraps a document tree.
func FromNode(n Node) RichText {
	return RichText{Doc: n}
}

// IsDoc reports whether the value holds a document tree.
func (r RichText) IsDoc() bool {
	return r.Doc != nil
}

// Empty reports whether there is neither text nor a tree.
func (r RichText) Empty() bool {
	return r.Doc == nil && r.Plain == ""
}

// String returns the plain text, flattening a tree when needed.
func (r RichText) String() string {
	if r.Doc != nil {
		return PlainText(r.Doc)
	}
	return r.Plain
}

func (r RichText) MarshalJSON() ([]byte, error) {
	if r.Doc != nil {
		return json.Marshal(r.Doc)
	}
	return json.Marshal(r.Plain)
}

func (r *RichText) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*r = RichText{}
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*r = RichText{Plain: s}
		return nil
	}
	n, err := Parse(trimmed)
	if err != nil {
		return err
	}
	*r = RichText{Doc: n}
	return nil
}
