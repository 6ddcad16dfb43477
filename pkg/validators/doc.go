// Package validators implements the semantic field checks referenced from
// rule expressions: ischangelist, isuserid, isjobid, isdepotpath, isfilepath
// and islistof, plus the Email lookup.
//
// Every check treats blank input as valid so optional fields never block a
// submission. Checks that need the server go through a p4.Adapter; a failed
// query is indistinguishable from a missing entity and yields false.
package validators
