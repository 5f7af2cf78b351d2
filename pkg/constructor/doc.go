// Package constructor merges the parameter lists of the two phases that
// build a class instance: allocation, which produces the instance, and
// initialization, which receives the same arguments plus the instance.
//
// Both phases are called with an identical argument set, so the merged list
// holds each name once and only one phase owns each catch-all slot.
package constructor
