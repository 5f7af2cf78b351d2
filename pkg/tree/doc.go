// Package tree builds the argument tree of a target.
//
// A function becomes one branch whose leaves are its flags. A class becomes a
// branch holding the merged construction flags, with one sub-command per
// member; each member inherits the construction flags so the instance can be
// built before it runs. A namespace becomes a branch with one sub-command per
// public member. Keys and spellings join the ancestor path and the name:
//
//	tools                 namespace, path []
//	  add a [--add-b B]   function,  path [add]
//	  server [--server-host HOST]
//	    start [--server-start-port PORT]
package tree
