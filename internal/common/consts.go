package common

// UnknownStr is the String() fallback for enum-like values out of range.
const UnknownStr = "unknown"

// GeneratedHeader is the first line of every generated file.
const GeneratedHeader = "// Code generated by domainer. DO NOT EDIT."
