package model

// Word is a candidate target returned by the word service
type Word struct {
	Word        string `json:"word" bson:"word"`
	Hint        string `json:"hint" bson:"hint"`
	Category    string `json:"category" bson:"category"`
	Difficulty  string `json:"difficulty" bson:"difficulty"`
	Language    string `json:"language" bson:"language"`
	Length      int    `json:"length" bson:"length"`
	TimesUsed   int    `json:"timesUsed" bson:"timesUsed"`
	TimesSolved int    `json:"timesSolved" bson:"timesSolved"`
}

type WordQuery struct {
	Language   string `json:"language"`
	Length     int    `json:"length"`
	Difficulty string `json:"difficulty"`
}
