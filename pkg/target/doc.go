// Package target registers what a command-line interface is built from.
//
// A target is one of three kinds, decided once at registration:
//
//   - Function: a func with declared parameters.
//   - Class: an instance type built in two phases (New, then Init) whose
//     members run as sub-commands on the built instance.
//   - Namespace: a named collection of functions and classes.
//
// Members whose names start with the privacy marker "_" are hidden unless
// listed in AllowPrivate.
//
// Example:
//
//	ns := &target.Namespace{Name: "tools"}
//	ns.Add(target.Func("add", add,
//	    introspect.Required("a"),
//	    introspect.Optional("b", 2),
//	))
package target
