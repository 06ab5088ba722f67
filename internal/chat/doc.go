// Package chat implements the conversational retrieval pipeline: session
// state with a sliding history window, question rewriting against that
// history, prompt assembly, and the per-turn flow that ties retrieval and
// completion together.
//
// The pipeline degrades rather than aborts: a failed rewrite falls back to
// the raw question, a failed retrieval falls back to an empty context, and
// only a failed completion surfaces as a turn error.
package chat
