package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidDocument is wrapped by every structural validation failure.
var ErrInvalidDocument = errors.New("invalid mind map document")

// requiredNodeFields must all be present on every node, even when empty.
var requiredNodeFields = []string{
	"timestamp", "text", "summary", "keywords", "named_entities",
	"emojis", "best_image", "start_image", "topic", "tts",
}

// TranscriptionChunk is one subtitle segment.
type TranscriptionChunk struct {
	Timestamp Window `json:"timestamp"`
	Text      string `json:"text"`
}

// Document is the mind map data source: a root topic plus ordered topic nodes.
type Document struct {
	VideoURL      string               `json:"video_url"`
	RootTopic     string               `json:"root_topic"`
	Transcription []TranscriptionChunk `json:"transcription,omitempty"`
	Nodes         []TopicNode          `json:"nodes"`
}

// TranscriptAt returns the transcription chunk covering t, if any.
func (d *Document) TranscriptAt(t float64) (TranscriptionChunk, bool) {
	if d == nil {
		return TranscriptionChunk{}, false
	}
	for _, chunk := range d.Transcription {
		if chunk.Timestamp.Contains(t) {
			return chunk, true
		}
	}
	return TranscriptionChunk{}, false
}

// Decode reads and validates a mind map document from r.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Parse(data)
}

// Parse validates raw JSON and converts it into a Document. Validation mirrors
// the upload form's rules so documents accepted there are accepted here.
func Parse(data []byte) (*Document, error) {
	if !json.Valid(data) {
		var scratch any
		err := json.Unmarshal(data, &scratch)
		return nil, fmt.Errorf("%w: invalid JSON format: %v", ErrInvalidDocument, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, invalid("must be an object")
	}

	doc := &Document{}

	rootTopic, ok := decodeString(raw["root_topic"])
	if !ok || rootTopic == "" {
		return nil, invalid(`missing or invalid "root_topic" field`)
	}
	doc.RootTopic = rootTopic

	if rawURL, present := raw["video_url"]; present {
		if url, ok := decodeString(rawURL); ok {
			doc.VideoURL = url
		}
	}

	rawNodes, ok := decodeArray(raw["nodes"])
	if !ok {
		return nil, invalid(`"nodes" must be an array`)
	}
	if len(rawNodes) == 0 {
		return nil, invalid(`"nodes" array cannot be empty`)
	}

	if rawTranscript, present := raw["transcription"]; present {
		chunks, err := parseTranscription(rawTranscript)
		if err != nil {
			return nil, err
		}
		doc.Transcription = chunks
	}

	doc.Nodes = make([]TopicNode, 0, len(rawNodes))
	for i, rawNode := range rawNodes {
		node, err := parseNode(i, rawNode)
		if err != nil {
			return nil, err
		}
		doc.Nodes = append(doc.Nodes, node)
	}

	return doc, nil
}

func parseNode(index int, data json.RawMessage) (TopicNode, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return TopicNode{}, invalid("node %d must be an object", index)
	}
	for _, name := range requiredNodeFields {
		if _, ok := fields[name]; !ok {
			return TopicNode{}, invalid("node %d missing required field %q", index, name)
		}
	}

	var node TopicNode

	window, ok := decodeWindow(fields["timestamp"])
	if !ok {
		return TopicNode{}, invalid("node %d timestamp must be an array of 2 numbers [start, end]", index)
	}
	node.Timestamp = window

	text, textOK := decodeString(fields["text"])
	topic, topicOK := decodeString(fields["topic"])
	if !textOK || !topicOK {
		return TopicNode{}, invalid("node %d text and topic must be strings", index)
	}
	node.Text, node.Topic = text, topic

	summary, ok := decodeStrings(fields["summary"])
	if !ok {
		return TopicNode{}, invalid("node %d summary must be an array of strings", index)
	}
	node.Summary = summary

	rawKeywords, ok := decodeArray(fields["keywords"])
	if !ok {
		return TopicNode{}, invalid("node %d keywords must be an array", index)
	}
	// Only the array shape is checked; non-string entries are dropped.
	node.Keywords = make([]string, 0, len(rawKeywords))
	for _, item := range rawKeywords {
		if kw, ok := decodeString(item); ok {
			node.Keywords = append(node.Keywords, kw)
		}
	}

	rawEntities, ok := decodeArray(fields["named_entities"])
	if !ok {
		return TopicNode{}, invalid("node %d named_entities must be an array", index)
	}
	node.NamedEntities = make([]NamedEntity, 0, len(rawEntities))
	for j, rawEntity := range rawEntities {
		var entity NamedEntity
		if err := entity.UnmarshalJSON(rawEntity); err != nil {
			return TopicNode{}, invalid("node %d named_entities[%d]: %v", index, j, err)
		}
		node.NamedEntities = append(node.NamedEntities, entity)
	}

	if node.Emojis, ok = decodeString(fields["emojis"]); !ok {
		return TopicNode{}, invalid("node %d emojis must be a string", index)
	}
	if node.BestImage, ok = decodeString(fields["best_image"]); !ok {
		return TopicNode{}, invalid("node %d best_image must be a string", index)
	}
	if node.StartImage, ok = decodeString(fields["start_image"]); !ok {
		return TopicNode{}, invalid("node %d start_image must be a string", index)
	}
	// tts is required to be present but its encoding is owned by the speech
	// collaborator; anything other than a string is carried as empty.
	node.TTS, _ = decodeString(fields["tts"])

	return node, nil
}

func parseTranscription(data json.RawMessage) ([]TranscriptionChunk, error) {
	rawChunks, ok := decodeArray(data)
	if !ok {
		return nil, invalid(`"transcription" must be an array if present`)
	}
	chunks := make([]TranscriptionChunk, 0, len(rawChunks))
	for i, rawChunk := range rawChunks {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(rawChunk, &fields); err != nil || fields == nil {
			return nil, invalid("transcription chunk %d must be an object", i)
		}
		window, ok := decodeWindow(fields["timestamp"])
		if !ok {
			return nil, invalid("transcription chunk %d timestamp must be an array of 2 numbers [start, end]", i)
		}
		text, ok := decodeString(fields["text"])
		if !ok {
			return nil, invalid("transcription chunk %d text must be a string", i)
		}
		chunks = append(chunks, TranscriptionChunk{Timestamp: window, Text: text})
	}
	return chunks, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidDocument}, args...)...)
}

// JSON kind checks. encoding/json happily decodes null into a string or
// slice, so the leading byte is checked before trusting Unmarshal.

func leading(data json.RawMessage) byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func decodeString(data json.RawMessage) (string, bool) {
	if leading(data) != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false
	}
	return s, true
}

func decodeArray(data json.RawMessage) ([]json.RawMessage, bool) {
	if leading(data) != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

func decodeStrings(data json.RawMessage) ([]string, bool) {
	items, ok := decodeArray(data)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := decodeString(item)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func decodeNumber(data json.RawMessage) (float64, bool) {
	c := leading(data)
	if c != '-' && (c < '0' || c > '9') {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, false
	}
	return f, true
}

func decodeWindow(data json.RawMessage) (Window, bool) {
	items, ok := decodeArray(data)
	if !ok || len(items) != 2 {
		return Window{}, false
	}
	start, ok := decodeNumber(items[0])
	if !ok {
		return Window{}, false
	}
	end, ok := decodeNumber(items[1])
	if !ok {
		return Window{}, false
	}
	return Window{start, end}, true
}

// Summary renders a short one-line description for logs and CLI output.
func (d *Document) Summary() string {
	if d == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%q: %d nodes", d.RootTopic, len(d.Nodes))
	if len(d.Transcription) > 0 {
		fmt.Fprintf(&b, ", %d transcript chunks", len(d.Transcription))
	}
	return b.String()
}
