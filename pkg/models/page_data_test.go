package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageDataRoundTrip(t *testing.T) {
	original := PageData{
		URL:   "https://example.com/página",
		Title: "Тестовая страница",
		Meta: map[string]string{
			"description": "résumé of the page",
			"og:title":    "日本語タイトル",
		},
		Links: []Link{
			{Text: "First", Href: "https://example.com/a", Title: "a"},
			{Text: "Zweiter Länk", Href: "https://example.com/b", Title: ""},
		},
		Images: []Image{
			{Src: "https://example.com/x.png", Alt: "x", Title: "X"},
		},
		TextContent: "Body text with UTF-8: ünïcödé ✓",
		Timestamp:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}

	encoded, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded PageData
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	assert.Equal(t, original, decoded)
}

func TestPageDataJSONKeys(t *testing.T) {
	encoded, err := json.Marshal(PageData{Meta: map[string]string{}})
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(encoded, &fields))

	for _, key := range []string{"url", "title", "meta", "links", "images", "text_content", "timestamp"} {
		assert.Contains(t, fields, key)
	}
}

func TestScriptValueKinds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind ValueKind
	}{
		{"null", `null`, KindNull},
		{"empty", ``, KindNull},
		{"true", `true`, KindBool},
		{"false", `false`, KindBool},
		{"integer", `42`, KindNumber},
		{"float", `-3.5`, KindNumber},
		{"string", `"hello"`, KindString},
		{"array", `[1,2,3]`, KindArray},
		{"object", `{"a":1}`, KindObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewScriptValue(json.RawMessage(tt.raw))
			assert.Equal(t, tt.kind, v.Kind())
		})
	}
}

func TestScriptValueAccessors(t *testing.T) {
	v := NewScriptValue(json.RawMessage(`{"count": 3, "tags": ["a", "b"], "ok": true, "name": "page"}`))
	require.Equal(t, KindObject, v.Kind())

	obj := v.Object()
	require.NotNil(t, obj)
	assert.Equal(t, float64(3), obj["count"].Number())
	assert.True(t, obj["ok"].Bool())
	assert.Equal(t, "page", obj["name"].String())

	tags := obj["tags"].Array()
	require.Len(t, tags, 2)
	assert.Equal(t, "a", tags[0].String())

	// Non-matching accessors return zero values rather than panicking.
	assert.Equal(t, float64(0), obj["name"].Number())
	assert.Nil(t, obj["count"].Array())
}

func TestScriptValueRoundTrip(t *testing.T) {
	var v ScriptValue
	require.NoError(t, json.Unmarshal([]byte(` [1, "two", null] `), &v))
	assert.Equal(t, KindArray, v.Kind())

	encoded, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `[1, "two", null]`, string(encoded))
}

func TestScriptValueDecode(t *testing.T) {
	var metrics struct {
		Links  int `json:"links"`
		Images int `json:"images"`
	}
	v := NewScriptValue(json.RawMessage(`{"links": 12, "images": 4}`))
	require.NoError(t, v.Decode(&metrics))
	assert.Equal(t, 12, metrics.Links)
	assert.Equal(t, 4, metrics.Images)
}
