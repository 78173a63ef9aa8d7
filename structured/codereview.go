package structured

// CodeReviewName is the schema name of CodeReview.
const CodeReviewName = "code_review"

// CodeReview is the structured-output target used to probe models.
type CodeReview struct {
	Summary        string   `json:"summary" jsonschema:"description=One sentence describing what the code does"`
	Issues         []string `json:"issues" jsonschema:"description=Problems found in the code"`
	OverallQuality string   `json:"overall_quality" jsonschema:"description=Overall quality rating from poor to excellent"`
}

// CodeReviewSample is the snippet sent for review.
const CodeReviewSample = `def calculate_total(items):
    total = 0
    for i in range(len(items)):
        total = total + items[i]["price"] * items[i]["quantity"]
    return total
`
