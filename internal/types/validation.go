package types

// ValidationResult is the validator's verdict on whether the extracted set
// plausibly came from a real prescription. IsValid=false is a normal result,
// never an error: callers surface Reasons to the user and offer manual entry.
type ValidationResult struct {
	IsValid    bool     `json:"is_valid"`
	Confidence int      `json:"confidence"` // 0..100
	Reasons    []string `json:"reasons"`
	Warnings   []string `json:"warnings"`
}
