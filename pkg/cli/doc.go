// Package cli turns a registered target into a command-line program.
//
// # Overview
//
// The argument tree of the target is converted into urfave/cli commands:
// a function becomes a single command, a class becomes a command whose
// flags build the instance and whose sub-commands are the members, and a
// namespace becomes a command with one sub-command per member.
//
//	simplifiedapp [reserved flags] [construction flags] [member] [member flags] [args...]
//
// Flags of a branch are spelled with the branch path below the root as
// prefix, so a namespace member "add" taking b gets --add-b. Positional
// values of a class member come after the member name, construction values
// first.
//
// # Reserved Flags
//
//	--log-level LEVEL          notset, debug, info, warning, error, critical (default: warning)
//	--log-to-syslog            forward log records to the system log
//	--input-file [FMT:]PATH    read values from a json, ini or yaml file; repeatable
//	--json                     print the result as JSON
//	--metrics-textfile PATH    write bind and call metrics after the run
//	--output-file PATH         write the result to PATH instead of stdout
//	--help, -h                 show help
//
// The logging flags are read before the argument tree is built, so warnings
// about skipped members already follow them. With --json, log records are
// JSON as well.
//
// A target carrying a version tag also gets --version, which prints the tag
// and exits.
//
// # Value Resolution
//
// For every parameter, an explicit command-line value wins over the input
// files, and the input files win over the declared default. Input-file keys
// are the flag keys; nested mappings are joined with "-".
//
// A list flag with a non-empty default may be given without a value, which
// keeps the default. Any other flag value is a separate argument or follows
// "=".
//
// # Usage
//
//	func main() {
//		cli.Execute(target.Func("add", add,
//			introspect.Required("a"),
//			introspect.Optional("b", 2),
//		))
//	}
package cli
