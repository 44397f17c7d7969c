// Package graph discovers every module reachable from an entry file and
// assigns each one its bundle id.
//
// Traversal is breadth-first: the children of a module are planned in the
// order their import statements appear, receive consecutive ids, and are
// appended to the queue before any grandchild is looked at. The entry file
// is always id 0.
//
// Two traversal modes exist. With Options.Dedupe each canonical file is
// extracted once and every import of it shares its id. Without it the
// builder creates one module record per import
// edge, and rejects a file that imports one of its own ancestors with a
// CycleError instead of growing the queue forever.
package graph
