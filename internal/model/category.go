package model

// CategoryOther is the default category until the user corrects it.
const CategoryOther = "Other"

// Candidate is one entry in the fixed category list offered to the user.
type Candidate struct {
	Label string
	Value string
}

// CandidateCategories returns the fixed, ordered category set exposed to
// feedback prompt surfaces.
func CandidateCategories() []Candidate {
	return []Candidate{
		{Label: "Food & Dining", Value: "Food"},
		{Label: "Travel", Value: "Travel"},
		{Label: "Shopping", Value: "Shopping"},
		{Label: "Bills & Utilities", Value: "Bills"},
		{Label: "Entertainment", Value: "Entertainment"},
		{Label: "Health", Value: "Health"},
		{Label: "Transfer", Value: "Transfer"},
		{Label: "Income", Value: "Income"},
		{Label: "Other", Value: CategoryOther},
	}
}

// IsValidCategory reports whether name is a member of the fixed category set.
func IsValidCategory(name string) bool {
	for _, c := range CandidateCategories() {
		if c.Value == name {
			return true
		}
	}
	return false
}
