package ledger

import "fmt"

// RuleCode identifies a domain rule a transition refused to break.
type RuleCode string

// Domain rule codes.
const (
	CodeCategoryReadOnly  RuleCode = "CATEGORY_READ_ONLY"
	CodeCategoryDuplicate RuleCode = "CATEGORY_DUPLICATE"
)

// RuleError is returned by a transition that was rejected. The accompanying
// snapshot is always the unchanged input.
type RuleError struct {
	Code     RuleCode
	Category string
}

func (e *RuleError) Error() string {
	if e.Category == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %q", e.Code, e.Category)
}

// Is matches any RuleError carrying the same code.
func (e *RuleError) Is(target error) bool {
	t, ok := target.(*RuleError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrCategoryReadOnly  = &RuleError{Code: CodeCategoryReadOnly}
	ErrCategoryDuplicate = &RuleError{Code: CodeCategoryDuplicate}
)
