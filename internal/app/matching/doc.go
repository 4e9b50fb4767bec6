// Package matching holds the tribe matching core: the candidate filter,
// the priority scorer and ranker, the AI match requestor and the tribe
// compatibility builder used by admin tooling.
//
// Everything here is a function of its arguments and a caller-supplied
// "now". The only I/O is the model call inside Requestor.
package matching
