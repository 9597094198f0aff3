package service

import "wordrooms/internal/model"

// ComputeFeedback grades guess against target letter by letter. Exact matches are
// marked first and consume their target position; remaining letters are then marked
// present only while an unconsumed copy of that letter is left in the target, so a
// repeated letter never earns more markers than the target holds.
// Both words are expected upper-cased and of equal length.
func ComputeFeedback(guess, target string) []model.LetterFeedback {
	g := []rune(guess)
	t := []rune(target)
	out := make([]model.LetterFeedback, len(g))
	consumed := make([]bool, len(t))

	for i, r := range g {
		out[i] = model.LetterFeedback{Letter: string(r), State: model.LetterAbsent}
		if i < len(t) && r == t[i] {
			out[i].State = model.LetterCorrect
			consumed[i] = true
		}
	}

	for i, r := range g {
		if out[i].State == model.LetterCorrect {
			continue
		}
		for j, tr := range t {
			if !consumed[j] && tr == r {
				out[i].State = model.LetterPresent
				consumed[j] = true
				break
			}
		}
	}
	return out
}
