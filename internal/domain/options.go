package domain

import (
	"fmt"
	"strings"
)

// OptionTag is one member of the fixed multi-select vocabulary.
type OptionTag string

const (
	OptionEquipment OptionTag = "equipment"
	OptionIT        OptionTag = "it"
	OptionCleaning  OptionTag = "cleaning"
	OptionCoffee    OptionTag = "coffee"
)

// OptionTags lists the vocabulary in display order.
var OptionTags = []OptionTag{OptionEquipment, OptionIT, OptionCleaning, OptionCoffee}

var optionLabels = map[OptionTag]string{
	OptionEquipment: "Оборудование",
	OptionIT:        "IT-поддержка",
	OptionCleaning:  "Уборка",
	OptionCoffee:    "Кофе",
}

var optionIcons = map[OptionTag]string{
	OptionEquipment: "🛠",
	OptionIT:        "💻",
	OptionCleaning:  "🧹",
	OptionCoffee:    "☕",
}

// Label is the human readable name used in admin notifications.
func (t OptionTag) Label() string {
	if l, ok := optionLabels[t]; ok {
		return l
	}
	return string(t)
}

// ButtonLabel is the label shown on the inline toggle button.
func (t OptionTag) ButtonLabel() string {
	return optionIcons[t] + " " + t.Label()
}

// ParseOptionTag validates raw against the vocabulary.
func ParseOptionTag(raw string) (OptionTag, error) {
	t := OptionTag(strings.TrimSpace(raw))
	if _, ok := optionLabels[t]; !ok {
		return "", fmt.Errorf("unknown option tag %q", raw)
	}
	return t, nil
}

const optionSeparator = ", "

// OptionSet is a deduplicated selection of option tags. The zero value is empty.
type OptionSet struct {
	tags map[OptionTag]struct{}
}

// NewOptionSet builds a set from tags, ignoring duplicates.
func NewOptionSet(tags ...OptionTag) OptionSet {
	var s OptionSet
	for _, t := range tags {
		s = s.with(t)
	}
	return s
}

func (s OptionSet) clone() OptionSet {
	out := OptionSet{tags: make(map[OptionTag]struct{}, len(s.tags)+1)}
	for t := range s.tags {
		out.tags[t] = struct{}{}
	}
	return out
}

func (s OptionSet) with(t OptionTag) OptionSet {
	out := s.clone()
	out.tags[t] = struct{}{}
	return out
}

// Toggle returns a copy of s with t removed if present, added otherwise.
func (s OptionSet) Toggle(t OptionTag) OptionSet {
	out := s.clone()
	if _, ok := out.tags[t]; ok {
		delete(out.tags, t)
	} else {
		out.tags[t] = struct{}{}
	}
	return out
}

// Has reports membership.
func (s OptionSet) Has(t OptionTag) bool {
	_, ok := s.tags[t]
	return ok
}

// Len returns the number of selected tags.
func (s OptionSet) Len() int { return len(s.tags) }

// Empty reports whether nothing is selected.
func (s OptionSet) Empty() bool { return len(s.tags) == 0 }

// Tags returns the members in vocabulary order.
func (s OptionSet) Tags() []OptionTag {
	out := make([]OptionTag, 0, len(s.tags))
	for _, t := range OptionTags {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Labels returns display labels in vocabulary order.
func (s OptionSet) Labels() []string {
	tags := s.Tags()
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.Label()
	}
	return out
}

// Join serializes the set as the comma-joined column value.
func (s OptionSet) Join() string {
	tags := s.Tags()
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, optionSeparator)
}

// ParseOptionSet reverses Join. Unknown tags are an error.
func ParseOptionSet(raw string) (OptionSet, error) {
	var s OptionSet
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := ParseOptionTag(part)
		if err != nil {
			return OptionSet{}, err
		}
		s = s.with(t)
	}
	return s, nil
}
