package model

// LetterState is the per-letter evaluation of a guess
type LetterState string

const (
	LetterCorrect LetterState = "correct"
	LetterPresent LetterState = "present"
	LetterAbsent  LetterState = "absent"
)

type LetterFeedback struct {
	Letter string      `json:"letter" bson:"letter"`
	State  LetterState `json:"state" bson:"state"`
}
