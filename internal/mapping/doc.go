// Package mapping extracts mapping metadata from annotated declarations.
//
// Annotation surface:
//
//	//domainer:model domain.Student        on a struct or enum type spec
//	UserName string `domain:"Username"`    field rename
//	Color    int    `domain:",ordinal=DBColor"` enum-ordinal encoding
//	RED DBColor = iota //domainer:name Red  enum case rename
//
// Type references are resolved against the declaring file's imports, the
// declaring package, full import paths, and finally the names of loaded
// packages.
package mapping
