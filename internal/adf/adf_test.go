package adf

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
  "type": "doc",
  "version": 1,
  "content": [
    {"type": "heading", "attrs": {"level": 2}, "content": [{"type": "text", "text": "Goal"}]},
    {"type": "paragraph", "content": [
      {"type": "text", "text": "Ship the "},
      {"type": "text", "text": "login page", "marks": [{"type": "strong"}]}
    ]},
    {"type": "bulletList", "content": [
      {"type": "listItem", "content": [{"type": "paragraph", "content": [{"type": "text", "text": "design"}]}]},
      {"type": "listItem", "content": [
        {"type": "paragraph", "content": [{"type": "text", "text": "build"}]},
        {"type": "orderedList", "content": [
          {"type": "listItem", "content": [{"type": "paragraph", "content": [{"type": "text", "text": "api"}]}]}
        ]}
      ]}
    ]},
    {"type": "mediaSingle", "content": [{"type": "media", "attrs": {"id": "x"}}]}
  ]
}`

func TestParse_TaggedUnion(t *testing.T) {
	n, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	doc, ok := n.(Document)
	require.True(t, ok, "root should be a Document, got %T", n)
	require.Len(t, doc.Content, 4)

	h, ok := doc.Content[0].(Heading)
	require.True(t, ok)
	assert.Equal(t, 2, h.Level)
	assert.Equal(t, Text{Text: "Goal"}, h.Content[0])

	p, ok := doc.Content[1].(Paragraph)
	require.True(t, ok)
	assert.Len(t, p.Content, 2)

	list, ok := doc.Content[2].(BulletList)
	require.True(t, ok)
	assert.Len(t, list.Content, 2)

	u, ok := doc.Content[3].(Unsupported)
	require.True(t, ok)
	assert.Equal(t, Kind("mediaSingle"), u.Kind())
}

func TestParse_HeadingDefaultsToLevelOne(t *testing.T) {
	n, err := Parse([]byte(`{"type":"heading","content":[{"type":"text","text":"x"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, n.(Heading).Level)
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"type":`))
	assert.Error(t, err)
}

func TestPlainText(t *testing.T) {
	n, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	want := "Goal\nShip the login page\n- design\n- build\n  1. api"
	assert.Equal(t, want, PlainText(n))
}

func TestMarshal_KeepsStructure(t *testing.T) {
	n, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	data, err := json.Marshal(n)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, n, again)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, "doc", generic["type"])
	assert.EqualValues(t, 1, generic["version"])
}

func TestRichText_PlainAndDoc(t *testing.T) {
	var plain RichText
	require.NoError(t, json.Unmarshal([]byte(`"just words"`), &plain))
	assert.False(t, plain.IsDoc())
	assert.Equal(t, "just words", plain.String())

	var doc RichText
	require.NoError(t, json.Unmarshal([]byte(`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"hi"}]}]}`), &doc))
	assert.True(t, doc.IsDoc())
	assert.Equal(t, "hi", doc.String())

	var empty RichText
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	assert.True(t, empty.Empty())

	out, err := json.Marshal(Plain("x"))
	require.NoError(t, err)
	assert.JSONEq(t, `"x"`, string(out))

	out, err = json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"type":"doc"`)
}
