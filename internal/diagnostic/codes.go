package diagnostic

// Diagnostic codes.
const (
	// CodeInvalidTargetKind: the model directive sits on a type that is
	// neither a record nor an enumeration.
	CodeInvalidTargetKind = "invalid_target_kind"
	// CodeInvalidAnnotation: a directive or struct tag is malformed.
	CodeInvalidAnnotation = "invalid_annotation"
	// CodeUnresolvedReference: a referenced type could not be resolved.
	CodeUnresolvedReference = "unresolved_reference"
	// CodeDeferred: the declaration waits for a later round.
	CodeDeferred = "deferred"
	// CodeUnmatchedEnumCase: an enum case has no counterpart by name.
	CodeUnmatchedEnumCase = "unmatched_enum_case"
	// CodeDuplicateEnumCase: two cases map onto the same counterpart.
	CodeDuplicateEnumCase = "duplicate_enum_case"
	// CodeRecursionLimitExceeded: a nested mapping chain is too deep.
	CodeRecursionLimitExceeded = "recursion_limit_exceeded"
	// CodeUnknownDomainField: a domain-side field name does not exist.
	CodeUnknownDomainField = "unknown_domain_field"
	// CodeTypeMismatch: shape and domain member types cannot be paired.
	CodeTypeMismatch = "type_mismatch"
	// CodeUncoveredDomainField: a domain field is fed by no shape member.
	CodeUncoveredDomainField = "uncovered_domain_field"
	// CodeInvalidDependency: a nested or ordinal dependency failed itself.
	CodeInvalidDependency = "invalid_dependency"
)
