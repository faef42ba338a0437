package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// Window is a [start, end) playback interval in seconds.
type Window [2]float64

// Start returns the window's start second.
func (w Window) Start() float64 { return w[0] }

// End returns the window's declared end second.
func (w Window) End() float64 { return w[1] }

// Contains reports whether t lies in [start, end).
func (w Window) Contains(t float64) bool {
	return t >= w[0] && t < w[1]
}

// NamedEntity is a (name, category) pair extracted from a topic's text.
// On the wire it is a two-element string array.
type NamedEntity struct {
	Name     string
	Category string
}

// MarshalJSON encodes the entity as ["name", "category"].
func (e NamedEntity) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.Name, e.Category})
}

// UnmarshalJSON decodes a ["name", "category"] pair.
func (e *NamedEntity) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil || len(pair) != 2 {
		return fmt.Errorf("named entity must be an array of 2 elements [name, type]")
	}
	name, ok := decodeString(pair[0])
	if !ok {
		return fmt.Errorf("named entity must contain strings [name, type]")
	}
	category, ok := decodeString(pair[1])
	if !ok {
		return fmt.Errorf("named entity must contain strings [name, type]")
	}
	e.Name, e.Category = name, category
	return nil
}

// TopicNode is one time-segment of the video plus its AI-derived content.
// Nodes are ordered; a node's index in the document is its identity.
type TopicNode struct {
	Timestamp     Window        `json:"timestamp"`
	Topic         string        `json:"topic"`
	Text          string        `json:"text"`
	Summary       []string      `json:"summary"`
	Keywords      []string      `json:"keywords"`
	NamedEntities []NamedEntity `json:"named_entities"`
	Emojis        string        `json:"emojis"`
	BestImage     string        `json:"best_image"`  // base64
	StartImage    string        `json:"start_image"` // base64
	TTS           string        `json:"tts"`         // base64 audio
}

// FormatTimestamp renders seconds as the m:ss text shown on a node's time badge.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	minutes := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
