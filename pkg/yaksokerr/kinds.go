package yaksokerr

// Kind identifies a failure condition. Callers match on kinds, never on messages.
type Kind string

// Structural defects: the tree handed to the engine is malformed.
const (
	CannotParse                       Kind = "CANNOT_PARSE"
	FunctionMustHaveName              Kind = "FUNCTION_MUST_HAVE_NAME"
	NotEvaluableExpression            Kind = "NOT_EVALUABLE_EXPRESSION"
	InvalidTypeForEvaluatableSequence Kind = "INVALID_TYPE_FOR_EVALUATABLE_SEQUENCE"
)

// Control transfer.
const (
	EventNotFound      Kind = "EVENT_NOT_FOUND"
	ExecutionCancelled Kind = "EXECUTION_CANCELLED"
)

// Operators.
const (
	InvalidNumberOfOperands           Kind = "INVALID_NUMBER_OF_OPERANDS"
	InvalidTypeForPlusOperator        Kind = "INVALID_TYPE_FOR_PLUS_OPERATOR"
	InvalidTypeForMinusOperator       Kind = "INVALID_TYPE_FOR_MINUS_OPERATOR"
	InvalidTypeForMultiplyOperator    Kind = "INVALID_TYPE_FOR_MULTIPLY_OPERATOR"
	InvalidTypeForDivideOperator      Kind = "INVALID_TYPE_FOR_DIVIDE_OPERATOR"
	InvalidTypeForAndOperator         Kind = "INVALID_TYPE_FOR_AND_OPERATOR"
	InvalidTypeForGreaterThanOperator Kind = "INVALID_TYPE_FOR_GREATER_THAN_OPERATOR"
	InvalidTypeForLessThanOperator    Kind = "INVALID_TYPE_FOR_LESS_THAN_OPERATOR"
	InvalidRepeatCount                Kind = "INVALID_REPEAT_COUNT"
	StringTooLong                     Kind = "STRING_TOO_LONG"
	InvalidTypeForCondition           Kind = "INVALID_TYPE_FOR_CONDITION"
)

// Indexing.
const (
	ListIndexMustBeNumber            Kind = "LIST_INDEX_MUST_BE_NUMBER"
	ListIndexMustBeGreaterThan0      Kind = "LIST_INDEX_MUST_BE_GREATER_THAN_0"
	ListIndexMustBeInteger           Kind = "LIST_INDEX_MUST_BE_INTEGER"
	ListIndexOutOfRange              Kind = "LIST_INDEX_OUT_OF_RANGE"
	InvalidTypeForIndexFetch         Kind = "INVALID_TYPE_FOR_INDEX_FETCH"
	InvalidSequenceTypeForIndexFetch Kind = "INVALID_SEQUENCE_TYPE_FOR_INDEX_FETCH"
	CircularList                     Kind = "CIRCULAR_LIST"
)

// Lookup, owned by the scope.
const (
	NotDefinedVariable Kind = "NOT_DEFINED_VARIABLE"
	FunctionNotFound   Kind = "FUNCTION_NOT_FOUND"
)

// Foreign functions.
const (
	FFIRuntimeNotFound Kind = "FFI_RUNTIME_NOT_FOUND"
	FFIRuntimeError    Kind = "FFI_RUNTIME_ERROR"
	FFIInvalidResult   Kind = "FFI_INVALID_RESULT"
)

// Category groups kinds the way callers usually decide program-level handling.
type Category string

const (
	CategoryDefect   Category = "defect"
	CategoryControl  Category = "control"
	CategoryOperator Category = "operator"
	CategoryIndex    Category = "index"
	CategoryLookup   Category = "lookup"
	CategoryForeign  Category = "foreign"
)

// Descriptor documents a kind.
type Descriptor struct {
	Kind        Kind
	Category    Category
	Description string
}

var catalogue = map[Kind]Descriptor{
	CannotParse:                       {CannotParse, CategoryDefect, "block contains a node that cannot be executed"},
	FunctionMustHaveName:              {FunctionMustHaveName, CategoryDefect, "function declaration or call has no name"},
	NotEvaluableExpression:            {NotEvaluableExpression, CategoryDefect, "argument is not an evaluatable expression"},
	InvalidTypeForEvaluatableSequence: {InvalidTypeForEvaluatableSequence, CategoryDefect, "sequence items must be evaluatable"},

	EventNotFound:      {EventNotFound, CategoryControl, "no enclosing construct handles the event"},
	ExecutionCancelled: {ExecutionCancelled, CategoryControl, "execution was cancelled before it finished"},

	InvalidNumberOfOperands:           {InvalidNumberOfOperands, CategoryOperator, "operators take exactly two operands"},
	InvalidTypeForPlusOperator:        {InvalidTypeForPlusOperator, CategoryOperator, "invalid type for plus operator"},
	InvalidTypeForMinusOperator:       {InvalidTypeForMinusOperator, CategoryOperator, "invalid type for minus operator"},
	InvalidTypeForMultiplyOperator:    {InvalidTypeForMultiplyOperator, CategoryOperator, "invalid type for multiply operator"},
	InvalidTypeForDivideOperator:      {InvalidTypeForDivideOperator, CategoryOperator, "invalid type for divide operator"},
	InvalidTypeForAndOperator:         {InvalidTypeForAndOperator, CategoryOperator, "invalid type for and operator"},
	InvalidTypeForGreaterThanOperator: {InvalidTypeForGreaterThanOperator, CategoryOperator, "invalid type for greater than operator"},
	InvalidTypeForLessThanOperator:    {InvalidTypeForLessThanOperator, CategoryOperator, "invalid type for less than operator"},
	InvalidRepeatCount:                {InvalidRepeatCount, CategoryOperator, "string repeat count must be a non-negative finite number"},
	StringTooLong:                     {StringTooLong, CategoryOperator, "repeated string would exceed the maximum string length"},
	InvalidTypeForCondition:           {InvalidTypeForCondition, CategoryOperator, "condition must evaluate to a boolean"},

	ListIndexMustBeNumber:            {ListIndexMustBeNumber, CategoryIndex, "list index must be a number"},
	ListIndexMustBeGreaterThan0:      {ListIndexMustBeGreaterThan0, CategoryIndex, "list index must be greater than 0"},
	ListIndexMustBeInteger:           {ListIndexMustBeInteger, CategoryIndex, "list index must be a whole number"},
	ListIndexOutOfRange:              {ListIndexOutOfRange, CategoryIndex, "list index is past the end of the list"},
	InvalidTypeForIndexFetch:         {InvalidTypeForIndexFetch, CategoryIndex, "target cannot be indexed"},
	InvalidSequenceTypeForIndexFetch: {InvalidSequenceTypeForIndexFetch, CategoryIndex, "target does not accept index assignment"},
	CircularList:                     {CircularList, CategoryIndex, "list contains itself and cannot be passed to a foreign function"},

	NotDefinedVariable: {NotDefinedVariable, CategoryLookup, "variable is not defined"},
	FunctionNotFound:   {FunctionNotFound, CategoryLookup, "function is not defined"},

	FFIRuntimeNotFound: {FFIRuntimeNotFound, CategoryForeign, "no foreign runtime is registered for the tag"},
	FFIRuntimeError:    {FFIRuntimeError, CategoryForeign, "foreign function failed"},
	FFIInvalidResult:   {FFIInvalidResult, CategoryForeign, "foreign function returned an unsupported value"},
}

// Describe returns the catalogue entry for kind.
func Describe(kind Kind) (Descriptor, bool) {
	d, ok := catalogue[kind]
	return d, ok
}
