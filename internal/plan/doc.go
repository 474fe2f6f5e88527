// Package plan turns annotated declarations into mapping plans.
//
// Planning pipeline, rebuilt from scratch every round:
//  1. Extract metadata of every declaration carrying the model directive
//  2. Resolve each domain type and select one transform per field
//     (enum ordinal > nested mapping > renamed > identity), or match enum
//     cases by name into a bijection
//  3. Guard nested-mapping chains with a depth ceiling
//  4. Propagate failures, then deferrals, along nested dependencies
//  5. Partition into validated plans, deferred and failed declarations
//
// No state survives a round; the same graph always yields the same Round.
package plan
