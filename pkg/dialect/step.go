package dialect

// Step is the clause a statement is being written in.
type Step int

// Step constants, in clause order.
const (
	StepSelect Step = iota
	StepDelete
	StepUpdate
	StepInsert
	StepFrom
	StepWhere
	StepGroupBy
	StepHaving
	StepOrderBy
	StepOffsetLimit
)

// IsPredicate reports whether a search condition may stand on its own in
// step.
func (s Step) IsPredicate() bool {
	return s == StepFrom || s == StepWhere || s == StepHaving
}
