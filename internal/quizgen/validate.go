package quizgen

import "fmt"

// validate converts a parsed record into a Question. It repeats the parser's
// commit check so a parser defect cannot leak an incomplete record.
func validate(r rawQuestion) (Question, error) {
	if len(r.text) == 0 {
		return Question{}, fmt.Errorf("%w: missing question text", ErrIncompleteQuestion)
	}
	if letterIndex(r.correct) < 0 {
		return Question{}, fmt.Errorf("%w: correct answer %q is not one of A-D", ErrIncompleteQuestion, r.correct)
	}
	return Question{
		Text:          r.text,
		Options:       r.options,
		CorrectAnswer: r.correct,
	}, nil
}

// validateAll keeps the records that pass validate, preserving order.
func validateAll(records []rawQuestion) ([]Question, []error) {
	var (
		questions []Question
		dropped   []error
	)
	for _, r := range records {
		q, err := validate(r)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		questions = append(questions, q)
	}
	return questions, dropped
}
