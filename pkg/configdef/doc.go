// Package configdef describes, merges and validates flat key/value
// configuration.
//
// A ConfigDef is a set of typed option descriptors. Definitions can be
// embedded into one another under a namespace prefix, which is how a plugin
// host grows its schema from the plugins named in its own configuration:
//
//	def := base.Copy()
//	def.Embed("transforms.mask.", "transforms: mask", 1, maskDef)
//	values, err := def.Parse(props)
//
// Parse rejects unknown keys (unless they sit under a prefix opened with
// AllowPrefix), coerces string values to the declared types, fills defaults
// and reports every problem at once. Problems are *Error values whose Kind
// is one of the Err* sentinels, so callers can use errors.Is.
package configdef
