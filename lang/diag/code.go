package diag

import "fmt"

// Code identifies a diagnostic message. Parse codes are numbered from 1001,
// evaluation codes from 2001, and fallback codes from 3001.
type Code uint16

// Parse codes.
const (
	NonTerminatingQuotedString Code = iota + 1001
	NonTerminatingDoubleQuotedString
	NotAnInteger
	NotALong
	RealCannotBeLong
	NotAReal
	UnexpectedDataAfterDot
	UnexpectedChar
	MissingConstructorArgs
	RunOutOfArguments
	OOD
	MoreInput
	NotExpectedToken
	UnexpectedToken
	MissingCharacter
	LeftOperandProblem
	RightOperandProblem
	ExpressionTooLong
	ExpressionTooDeep
	UnsupportedEscape
)

// Evaluation codes.
const (
	PropertyOrFieldNotReadable Code = iota + 2001
	PropertyOrFieldNotWritable
	PropertyOrFieldNotReadableOnNull
	PropertyOrFieldNotWritableOnNull
	MethodNotFound
	MethodCallOnNull
	ConstructorNotFound
	ConstructorInvocationProblem
	ExceptionDuringMethodInvocation
	FunctionReferenceInvocation
	NotAFunction
	FunctionNotDefined
	TypeNotFound
	TypeConversionError
	OperatorNotSupportedBetweenTypes
	OperatorNotSupportedForType
	DivideByZero
	IndexOutOfBounds
	CannotIndexIntoNullValue
	IndexingNotSupportedForType
	InvalidArraySize
	InvalidPattern
	BetweenRightOperandMustBeTwoElementList
	InstanceofOperatorNeedsClassOperand
	ResultOfSelectionCriteriaIsNotBoolean
	ProjectionNotSupportedOnType
	SelectionNotSupportedOnType
	NotAssignable
	NoBeanResolver
	ExceptionDuringBeanResolution
	ConditionNotBoolean
	IncorrectNumberOfArguments
	VariableNotFound
)

// Fallback codes.
const (
	FallbackGuard Code = iota + 3001
)

type message struct {
	name   string
	format string
}

//nolint:gochecknoglobals
var messages = map[Code]message{
	NonTerminatingQuotedString:       {"NON_TERMINATING_QUOTED_STRING", "cannot find terminating '' for string"},
	NonTerminatingDoubleQuotedString: {"NON_TERMINATING_DOUBLE_QUOTED_STRING", "cannot find terminating \" for string"},
	NotAnInteger:                     {"NOT_AN_INTEGER", "the value '%s' cannot be parsed as an int"},
	NotALong:                         {"NOT_A_LONG", "the value '%s' cannot be parsed as a long"},
	RealCannotBeLong:                 {"REAL_CANNOT_BE_LONG", "real number cannot be suffixed with a long (L or l) suffix"},
	NotAReal:                         {"NOT_A_REAL", "the value '%s' cannot be parsed as a double"},
	UnexpectedDataAfterDot:           {"UNEXPECTED_DATA_AFTER_DOT", "unexpected data after '.': '%s'"},
	UnexpectedChar:                   {"UNEXPECTED_CHAR", "cannot handle character '%s'"},
	MissingConstructorArgs:           {"MISSING_CONSTRUCTOR_ARGS", "expected '(' or '[' after constructor reference '%s'"},
	RunOutOfArguments:                {"RUN_OUT_OF_ARGUMENTS", "unexpectedly ran out of arguments"},
	OOD:                              {"OOD", "unexpectedly reached end of expression"},
	MoreInput:                        {"MORE_INPUT", "after parsing a valid expression, there is still more data in the expression: '%s'"},
	NotExpectedToken:                 {"NOT_EXPECTED_TOKEN", "unexpected token, expected '%s' but was '%s'"},
	UnexpectedToken:                  {"UNEXPECTED_TOKEN", "unexpected token '%s'"},
	MissingCharacter:                 {"MISSING_CHARACTER", "missing expected character '%s'"},
	LeftOperandProblem:               {"LEFT_OPERAND_PROBLEM", "problem parsing left operand of '%s'"},
	RightOperandProblem:              {"RIGHT_OPERAND_PROBLEM", "problem parsing right operand of '%s'"},
	ExpressionTooLong:                {"EXPRESSION_TOO_LONG", "expression length %d exceeds the limit of %d"},
	ExpressionTooDeep:                {"EXPRESSION_TOO_DEEP", "expression nesting exceeds the limit of %d"},
	UnsupportedEscape:                {"UNEXPECTED_ESCAPE_CHAR", "unsupported escape sequence '\\%c' in double-quoted string"},

	PropertyOrFieldNotReadable:              {"PROPERTY_OR_FIELD_NOT_READABLE", "property or field '%s' cannot be found on object of type '%s'"},
	PropertyOrFieldNotWritable:              {"PROPERTY_OR_FIELD_NOT_WRITABLE", "property or field '%s' cannot be set on object of type '%s'"},
	PropertyOrFieldNotReadableOnNull:        {"PROPERTY_OR_FIELD_NOT_READABLE_ON_NULL", "property or field '%s' cannot be found on null"},
	PropertyOrFieldNotWritableOnNull:        {"PROPERTY_OR_FIELD_NOT_WRITABLE_ON_NULL", "property or field '%s' cannot be set on null"},
	MethodNotFound:                          {"METHOD_NOT_FOUND", "method %s cannot be found on type '%s'"},
	MethodCallOnNull:                        {"METHOD_CALL_ON_NULL_OBJECT_NOT_ALLOWED", "method call: attempted to call method %s on null context object"},
	ConstructorNotFound:                     {"CONSTRUCTOR_NOT_FOUND", "constructor call: no suitable constructor found on type '%s' for arguments %s"},
	ConstructorInvocationProblem:            {"CONSTRUCTOR_INVOCATION_PROBLEM", "a problem occurred whilst attempting to construct an object of type '%s'"},
	ExceptionDuringMethodInvocation:         {"EXCEPTION_DURING_METHOD_INVOCATION", "method '%s' of type '%s' failed"},
	FunctionReferenceInvocation:             {"FUNCTION_REFERENCE_INVOCATION", "function '%s' failed"},
	NotAFunction:                            {"NOT_A_FUNCTION", "the variable '%s' does not reference a function"},
	FunctionNotDefined:                      {"FUNCTION_NOT_DEFINED", "the function '%s' could not be found"},
	TypeNotFound:                            {"TYPE_NOT_FOUND", "type cannot be found '%s'"},
	TypeConversionError:                     {"TYPE_CONVERSION_ERROR", "failed to convert from type '%s' to type '%s'"},
	OperatorNotSupportedBetweenTypes:        {"OPERATOR_NOT_SUPPORTED_BETWEEN_TYPES", "the operator '%s' is not supported between objects of type '%s' and '%s'"},
	OperatorNotSupportedForType:             {"OPERATOR_NOT_SUPPORTED_FOR_TYPE", "the operator '%s' is not supported for an object of type '%s'"},
	DivideByZero:                            {"DIVIDE_BY_ZERO", "integer divide by zero"},
	IndexOutOfBounds:                        {"INDEX_OUT_OF_BOUNDS", "index out of bounds: size %d, index %d"},
	CannotIndexIntoNullValue:                {"CANNOT_INDEX_INTO_NULL_VALUE", "cannot index into a null value"},
	IndexingNotSupportedForType:             {"INDEXING_NOT_SUPPORTED_FOR_TYPE", "indexing into type '%s' is not supported"},
	InvalidArraySize:                        {"INVALID_ARRAY_SIZE", "array size '%v' is not a non-negative int"},
	InvalidPattern:                          {"INVALID_PATTERN", "pattern is not valid: '%s'"},
	BetweenRightOperandMustBeTwoElementList: {"BETWEEN_RIGHT_OPERAND_MUST_BE_TWO_ELEMENT_LIST", "right operand for the 'between' operator has to be a two-element list"},
	InstanceofOperatorNeedsClassOperand:     {"INSTANCEOF_OPERATOR_NEEDS_CLASS_OPERAND", "the right operand for the 'instanceof' operator must be a type, not '%s'"},
	ResultOfSelectionCriteriaIsNotBoolean:   {"RESULT_OF_SELECTION_CRITERIA_IS_NOT_BOOLEAN", "result of selection criteria is not boolean"},
	ProjectionNotSupportedOnType:            {"PROJECTION_NOT_SUPPORTED_ON_TYPE", "projection is not supported on the type '%s'"},
	SelectionNotSupportedOnType:             {"SELECTION_NOT_SUPPORTED_ON_TYPE", "selection is not supported on the type '%s'"},
	NotAssignable:                           {"NOT_ASSIGNABLE", "the expression component '%s' is not assignable"},
	NoBeanResolver:                          {"NO_BEAN_RESOLVER_REGISTERED", "no bean resolver registered in the context to resolve access to bean '%s'"},
	ExceptionDuringBeanResolution:           {"EXCEPTION_DURING_BEAN_RESOLUTION", "a problem occurred whilst attempting to access the bean '%s'"},
	ConditionNotBoolean:                     {"CONDITION_NOT_BOOLEAN", "cannot convert value of type '%s' to a boolean condition"},
	IncorrectNumberOfArguments:              {"INCORRECT_NUMBER_OF_ARGUMENTS_TO_FUNCTION", "incorrect number of arguments for function '%s': %d supplied but function takes %d"},
	VariableNotFound:                        {"VARIABLE_NOT_FOUND", "variable '%s' is not defined"},

	FallbackGuard: {"FALLBACK_GUARD", "compiled expression guard failed: %s"},
}

// Kind reports the diagnostic category of c.
func (c Code) Kind() Kind {
	switch {
	case c >= 3001:
		return KindFallback
	case c >= 2001:
		return KindEvaluation
	case c >= 1001:
		return KindParse
	default:
		return 0
	}
}

// String returns the symbolic name of c.
func (c Code) String() string {
	if m, ok := messages[c]; ok {
		return m.name
	}

	return fmt.Sprintf("Code(%d)", uint16(c))
}

// ID returns the stable identifier of c, for example "XEL1010E".
func (c Code) ID() string {
	return fmt.Sprintf("XEL%04dE", uint16(c))
}

// Format renders the message text of c with args.
func (c Code) Format(args ...any) string {
	m, ok := messages[c]
	if !ok {
		return c.String()
	}

	if len(args) == 0 {
		return m.format
	}

	return fmt.Sprintf(m.format, args...)
}
