// Package flagspec classifies parameters and synthesizes the command-line
// flag for each one.
//
// The default value decides the flag: no default makes it required, a nil
// default is omitted unless supplied, a bool default becomes a toggle that
// flips the default, slices accumulate repeated occurrences, maps take
// key=value entries and any other scalar is converted to the default's type.
// A declared type or choice set refines the conversion.
//
// Keys join the ancestor path and the parameter name in kebab case:
//
//	KeyName("server", "max_conns") // "server-max-conns"
//	Spell("server-max-conns", false) // "--server-max-conns"
//	Spell("v", false)                // "-v"
package flagspec
