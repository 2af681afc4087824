package model

// Outcome grades one validator result against what the package declares.
type Outcome string

const (
	// OutcomePass: a valid package was accepted, or an invalid package was
	// rejected with the requirement's code reported.
	OutcomePass Outcome = "pass"
	// OutcomeFail: the validator ran but disagreed with the corpus.
	OutcomeFail Outcome = "fail"
	// OutcomeError: the validator did not produce a usable report.
	OutcomeError Outcome = "error"
)

// Evaluate grades result for pkg under the requirement the result was
// produced for.
func Evaluate(pkg Package, result CorpusTestResult) Outcome {
	if !result.Executed() {
		return OutcomeError
	}
	if pkg.IsValid {
		if result.IsValid() {
			return OutcomePass
		}
		return OutcomeFail
	}
	if !result.IsValid() && result.ContainsRequirement() {
		return OutcomePass
	}
	return OutcomeFail
}

// Tally counts outcomes.
type Tally struct {
	Pass  int `json:"pass"`
	Fail  int `json:"fail"`
	Error int `json:"error"`
}

// Add records one outcome.
func (t *Tally) Add(o Outcome) {
	switch o {
	case OutcomePass:
		t.Pass++
	case OutcomeFail:
		t.Fail++
	case OutcomeError:
		t.Error++
	}
}

// Total returns the number of outcomes recorded.
func (t Tally) Total() int {
	return t.Pass + t.Fail + t.Error
}
