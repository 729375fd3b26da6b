package counter

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// State is the persisted counter. Value, LastUpdate and the prompt marker
// are stored under a single key so they are always written together.
type State struct {
	Value      uint64
	LastUpdate Date

	// Prompted is the last milestone a prompt was raised for, 0 for none.
	Prompted   uint64
	PromptOpen bool
}

type stateJSON struct {
	Value      string `json:"value"`
	LastUpdate string `json:"last_update"`
	Prompted   string `json:"prompted,omitempty"`
	PromptOpen bool   `json:"prompt_open,omitempty"`
}

func encodeState(s State) (string, error) {
	sj := stateJSON{
		Value:      strconv.FormatUint(s.Value, 10),
		LastUpdate: s.LastUpdate.String(),
		PromptOpen: s.PromptOpen,
	}
	if s.Prompted > 0 {
		sj.Prompted = strconv.FormatUint(s.Prompted, 10)
	}
	b, err := json.Marshal(sj)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeState(raw string) (State, error) {
	var sj stateJSON
	if err := json.Unmarshal([]byte(raw), &sj); err != nil {
		return State{}, fmt.Errorf("decode counter state: %w", err)
	}

	var s State
	if sj.Value != "" {
		v, err := strconv.ParseUint(sj.Value, 10, 64)
		if err != nil {
			return State{}, fmt.Errorf("decode counter value %q: %w", sj.Value, err)
		}
		s.Value = v
	}
	if sj.LastUpdate != "" {
		d, err := ParseDate(sj.LastUpdate)
		if err != nil {
			return State{}, fmt.Errorf("decode counter date: %w", err)
		}
		s.LastUpdate = d
	}
	if sj.Prompted != "" {
		p, err := strconv.ParseUint(sj.Prompted, 10, 64)
		if err != nil {
			return State{}, fmt.Errorf("decode prompted value %q: %w", sj.Prompted, err)
		}
		s.Prompted = p
	}
	s.PromptOpen = sj.PromptOpen
	return s, nil
}
