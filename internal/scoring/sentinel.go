package scoring

import "strings"

// The Not Applicable sentinel is heuristic string matching by nature, so the
// match rules live here in one place instead of scattered literals.

// notApplicableVariants mark an evaluator answer as the null-score sentinel.
// Matched case-insensitively as substrings.
var notApplicableVariants = []string{
	"n/a",
	"not applicable",
	"not relevant",
	"cannot be judged",
	"cannot be evaluated",
}

// irrelevanceIndicators reclassify a zero score as Not Applicable when the
// feedback says the conversation gave no basis for judging the metric.
var irrelevanceIndicators = []string{
	"not applicable",
	"not relevant",
	"irrelevant",
	"unrelated",
	"different topic",
	"no basis",
	"does not apply",
}

// IsNotApplicable reports whether a raw evaluator score value denotes the
// Not Applicable sentinel.
func IsNotApplicable(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || v == "na" || v == "none" || v == "null" {
		return true
	}
	for _, variant := range notApplicableVariants {
		if strings.Contains(v, variant) {
			return true
		}
	}
	return false
}

// IndicatesIrrelevance reports whether feedback text expresses "this metric
// does not apply here". Evaluators sometimes say that with a zero score
// instead of the sentinel.
func IndicatesIrrelevance(feedback string) bool {
	f := strings.ToLower(feedback)
	for _, phrase := range irrelevanceIndicators {
		if strings.Contains(f, phrase) {
			return true
		}
	}
	return false
}
