// Package analyze provides package loading and declaration graph extraction.
//
// It uses golang.org/x/tools/go/packages with AST and go/types
// to build a canonical in-memory model of the named types of the loaded
// packages, together with the comment directives and struct tags that
// drive mapping generation.
//
// Key types:
//   - TypeID: package import path + type name
//   - Declaration: kind (record/enum/other), fields, enum cases, directives
//   - TypeExpr: the shape of a field type (basic/named/pointer/slice/other)
//   - TypeGraph: every declaration of a load, with a resolution query
package analyze
