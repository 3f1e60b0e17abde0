package core

import "fmt"

// Error is the single error kind of SQL generation. Generation is
// deterministic, so an Error is never worth retrying with the same input.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("sql generation error: %s", e.Message)
}

// Errorf returns an *Error with a formatted message.
func Errorf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// Common error messages
const (
	ErrUnknownQueryKind      = "unknown query type '%s'"
	ErrSkipNotSupported      = "skip is not supported by the '%s' dialect"
	ErrTakeNotSupported      = "take is not supported by the '%s' dialect"
	ErrSubQuerySkip          = "skip for subqueries is not supported by the '%s' dialect"
	ErrSubQueryTake          = "take for subqueries is not supported by the '%s' dialect"
	ErrUpsertNotSupported    = "InsertOrUpdate query type is not supported by the '%s' dialect"
	ErrTableNotFound         = "table '%s' not found"
	ErrColumnTableNotFound   = "table not found for column '%s'"
	ErrTableNeedsAlias       = "table %s should have an alias"
	ErrNoIdentity            = "identity field must be defined for '%s'"
	ErrNoSequence            = "sequence name can not be retrieved for the '%s' table"
	ErrEmptyKeys             = "cannot create IN expression: '%s' has no key fields"
	ErrApplyJoinNotSupported = "apply joins are not supported by the '%s' dialect"
	ErrGroupByExpression     = "GROUP BY expressions are not supported by the '%s' dialect"
	ErrNoPrimaryKey          = "cannot rewrite %s of '%s': the table has no primary key"
	ErrUpsertKeys            = "InsertOrUpdate of '%s' has no key fields"
	ErrCommandNumber         = "command %d does not exist for this statement"
	ErrValueType             = "cannot format value of type %T"
	ErrNonFinite             = "cannot format non-finite number %v"
	ErrPagedUnion            = "skip and take cannot be combined with UNION"
	ErrUnknownNode           = "cannot render node of type %T"
)
