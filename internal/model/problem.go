package model

// Problem is a single puzzle in the fixed sequence.  ID is the store's row
// identity; ProblemID is the ordinal that progress is measured in and the
// only identifier the API exposes for navigation.  The answer is omitted
// from JSON so clients cannot read it off the history endpoint.
type Problem struct {
	ID            uint64 `json:"id"`        // problems.id
	ProblemID     int    `json:"problemId"` // problems.problem_id (unique)
	Title         string `json:"title"`     // problems.title
	CorrectAnswer string `json:"-"`         // problems.correct_answer
}
