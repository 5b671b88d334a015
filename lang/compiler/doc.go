// Package compiler turns interpreted expressions into expr-lang programs.
//
// The interpreter records what it learns about each node in an
// [eval.Observations] table: the type each node produced and the member
// each reference was linked to. [Check] decides from those observations
// whether a tree can be compiled, and [Generate] emits an expr-lang
// source with a static environment of constants and call sites. A
// [Loader] compiles the source into an [Artifact].
//
// Compiled code assumes every node keeps producing values of the type it
// was observed with. Call sites verify that assumption where it is not
// implied by the linked member and report a violation with an error of
// kind [diag.KindFallback], after which the caller is expected to
// interpret the expression instead.
package compiler
