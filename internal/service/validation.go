package service

import (
	"strings"
	"unicode"

	"wordrooms/internal/model"
)

// Allowed values for room settings
const (
	MinWordLength = 4
	MaxWordLength = 7
	MinPlayers    = 2
	MaxPlayers    = 4
	MinTries      = 4
	MaxTries      = 8

	MinRounds       = 1
	MaxRounds       = 10
	MinTimePerRound = 15
	MaxTimePerRound = 600

	roomCodeLength = 6
	maxRoomName    = 40
)

var supportedLanguages = map[string]bool{
	"en": true,
	"es": true,
	"fr": true,
	"de": true,
}

// DefaultRoomSettings are applied to fields a creator leaves unset
var DefaultRoomSettings = model.RoomSettings{
	WordLength: 5,
	MaxPlayers: 2,
	MaxTries:   6,
	Language:   "en",
}

// RoomSettingsPatch carries a partial settings update; nil fields are unchanged
type RoomSettingsPatch struct {
	WordLength *int    `json:"wordLength,omitempty"`
	MaxPlayers *int    `json:"maxPlayers,omitempty"`
	MaxTries   *int    `json:"maxTries,omitempty"`
	Language   *string `json:"language,omitempty"`
}

// Apply returns settings with the patch applied
func (p RoomSettingsPatch) Apply(s model.RoomSettings) model.RoomSettings {
	if p.WordLength != nil {
		s.WordLength = *p.WordLength
	}
	if p.MaxPlayers != nil {
		s.MaxPlayers = *p.MaxPlayers
	}
	if p.MaxTries != nil {
		s.MaxTries = *p.MaxTries
	}
	if p.Language != nil {
		s.Language = normalizeLanguage(*p.Language)
	}
	return s
}

func (p RoomSettingsPatch) Empty() bool {
	return p.WordLength == nil && p.MaxPlayers == nil && p.MaxTries == nil && p.Language == nil
}

// WithDefaults fills zero-valued fields from DefaultRoomSettings
func WithDefaults(s model.RoomSettings) model.RoomSettings {
	if s.WordLength == 0 {
		s.WordLength = DefaultRoomSettings.WordLength
	}
	if s.MaxPlayers == 0 {
		s.MaxPlayers = DefaultRoomSettings.MaxPlayers
	}
	if s.MaxTries == 0 {
		s.MaxTries = DefaultRoomSettings.MaxTries
	}
	if s.Language == "" {
		s.Language = DefaultRoomSettings.Language
	}
	s.Language = normalizeLanguage(s.Language)
	return s
}

// ValidateRoomSettings checks every enumerated setting and returns the first violation
func ValidateRoomSettings(s model.RoomSettings) error {
	switch {
	case s.WordLength < MinWordLength || s.WordLength > MaxWordLength:
		return ErrInvalidSettings.Withf("wordLength must be between %d and %d", MinWordLength, MaxWordLength)
	case s.MaxPlayers < MinPlayers || s.MaxPlayers > MaxPlayers:
		return ErrInvalidSettings.Withf("maxPlayers must be between %d and %d", MinPlayers, MaxPlayers)
	case s.MaxTries < MinTries || s.MaxTries > MaxTries:
		return ErrInvalidSettings.Withf("maxTries must be between %d and %d", MinTries, MaxTries)
	case !supportedLanguages[s.Language]:
		return ErrInvalidSettings.Withf("language %q is not supported", s.Language)
	}
	return nil
}

// DifficultyScore grows with word length and shrinks with allowed tries
func DifficultyScore(wordLength, maxTries int) int {
	return wordLength*2 + (9 - maxTries)
}

// DifficultyLabel buckets DifficultyScore into a display label
func DifficultyLabel(wordLength, maxTries int) string {
	switch score := DifficultyScore(wordLength, maxTries); {
	case score <= 11:
		return model.DifficultyBeginner
	case score <= 13:
		return model.DifficultyEasy
	case score <= 15:
		return model.DifficultyClassic
	case score <= 17:
		return model.DifficultyHard
	default:
		return model.DifficultyExpert
	}
}

// GameDifficulty maps a room difficulty label onto the word-bank/scoring tier
func GameDifficulty(label string) string {
	switch label {
	case model.DifficultyBeginner, model.DifficultyEasy:
		return model.GameEasy
	case model.DifficultyHard, model.DifficultyExpert:
		return model.GameHard
	default:
		return model.GameMedium
	}
}

func normalizeLanguage(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}

// NormalizeRoomCode upper-cases and trims a user-entered code
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validRoomCode(code string) bool {
	if len(code) != roomCodeLength {
		return false
	}
	for _, r := range code {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// NormalizeGuess upper-cases and trims a guess
func NormalizeGuess(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

func cleanRoomName(name string) string {
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > maxRoomName {
		name = string(r[:maxRoomName])
	}
	return name
}

// dedupeIDs removes blanks, duplicates and exclude while keeping first-seen order
func dedupeIDs(ids []string, exclude string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || id == exclude || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
