package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jdemeulenaere/compose-driver/internal/fault"
)

// Key identifies a keyboard key. Codes follow the Android key code space.
type Key struct {
	Name string
	Code int
}

// KeyAction is what a key event does with its key.
type KeyAction string

const (
	KeyPress KeyAction = "press"
	KeyDown  KeyAction = "down"
	KeyUp    KeyAction = "up"
)

// ParseKeyAction parses a key action case-insensitively. Empty means press.
func ParseKeyAction(s string) (KeyAction, error) {
	if s == "" {
		return KeyPress, nil
	}
	a := KeyAction(strings.ToLower(s))
	switch a {
	case KeyPress, KeyDown, KeyUp:
		return a, nil
	}
	return "", fault.Validation("action", "Unknown action '%s'. Use 'press', 'down', or 'up'.", s)
}

// KeyInput is a key gesture. Modifiers are held down around a press.
type KeyInput struct {
	Key       Key
	Action    KeyAction
	Modifiers []Key
}

var keyTable = buildKeyTable()

var keysByName = indexKeys(keyTable)

func buildKeyTable() []Key {
	keys := []Key{
		{"Back", 4},
		{"Call", 5},
		{"EndCall", 6},
		{"DirectionUp", 19},
		{"DirectionDown", 20},
		{"DirectionLeft", 21},
		{"DirectionRight", 22},
		{"DirectionCenter", 23},
		{"Comma", 55},
		{"Period", 56},
		{"AltLeft", 57},
		{"AltRight", 58},
		{"ShiftLeft", 59},
		{"ShiftRight", 60},
		{"Tab", 61},
		{"Spacebar", 62},
		{"Enter", 66},
		{"Backspace", 67},
		{"Grave", 68},
		{"Minus", 69},
		{"Equals", 70},
		{"LeftBracket", 71},
		{"RightBracket", 72},
		{"Backslash", 73},
		{"Semicolon", 74},
		{"Apostrophe", 75},
		{"Slash", 76},
		{"At", 77},
		{"Plus", 81},
		{"Menu", 82},
		{"PageUp", 92},
		{"PageDown", 93},
		{"Escape", 111},
		{"Delete", 112},
		{"CtrlLeft", 113},
		{"CtrlRight", 114},
		{"CapsLock", 115},
		{"ScrollLock", 116},
		{"MetaLeft", 117},
		{"MetaRight", 118},
		{"Function", 119},
		{"PrintScreen", 120},
		{"Break", 121},
		{"MoveHome", 122},
		{"MoveEnd", 123},
		{"Insert", 124},
		{"NumLock", 143},
	}
	digits := []string{"Zero", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine"}
	for i, name := range digits {
		keys = append(keys, Key{name, 7 + i})
	}
	for c := 'A'; c <= 'Z'; c++ {
		keys = append(keys, Key{string(c), 29 + int(c-'A')})
	}
	for i := 1; i <= 12; i++ {
		keys = append(keys, Key{fmt.Sprintf("F%d", i), 130 + i})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Code < keys[j].Code })
	return keys
}

func indexKeys(keys []Key) map[string]Key {
	idx := make(map[string]Key, len(keys))
	for _, k := range keys {
		idx[strings.ToLower(k.Name)] = k
	}
	return idx
}

// KeyByName looks a key up by name, ignoring case ("enter" finds Enter).
func KeyByName(name string) (Key, error) {
	if k, ok := keysByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return k, nil
	}
	return Key{}, fault.Validation("key",
		"Unknown key: '%s'. Use a key name such as 'A', 'Enter' or 'DirectionUp'.", name)
}

// Keys returns the key table ordered by code.
func Keys() []Key {
	out := make([]Key, len(keyTable))
	copy(out, keyTable)
	return out
}
