package inference

// Fact is an opaque, case-sensitive proposition identifier.
// It has no internal structure: "chuva" and "Chuva" are unrelated facts.
type Fact = string

// Rule is an implication: every fact in Antecedent implies Consequent.
// An empty Antecedent makes Consequent unconditionally derivable.
type Rule struct {
	Antecedent []Fact // conjunction; order only affects explanation text
	Consequent Fact
}

// Reasoner provides propositional reasoning over a fact set and a rule sequence.
// This interface allows the session facade and the CLI to stay independent of
// the concrete engine.
type Reasoner interface {
	// AddFact marks a fact as known. Adding a known fact is a no-op.
	AddFact(fact Fact)

	// AddRule appends a rule. Antecedent facts need not exist yet.
	AddRule(antecedent []Fact, consequent Fact) error

	// IsFact reports whether fact is currently known.
	IsFact(fact Fact) bool

	// Facts returns a snapshot of the known facts
	Facts() []Fact

	// Rules returns the rule sequence in insertion order
	Rules() []Rule

	// Prove runs goal-directed backward chaining.
	// Proven sub-goals are remembered as facts.
	Prove(goal Fact) (bool, error)

	// Saturate forward-chains until no rule can add a new fact
	Saturate()

	// ProveMixed saturates, then proves goal backwards
	ProveMixed(goal Fact) (bool, error)

	// Explain returns a one-hop justification for goal
	Explain(goal Fact) string
}
