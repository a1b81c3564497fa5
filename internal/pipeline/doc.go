// SPDX-License-Identifier: MPL-2.0

// Package pipeline implements the build pipelines that configure, compile,
// test, and install a PGXN distribution.
//
// Two pipelines exist: KindPGXS drives a PostgreSQL PGXS Makefile through
// make, and KindPgrx recognizes Rust extensions built with the pgrx
// framework. The set of kinds is closed; Pipeline is sealed so that only this
// package can implement it, and every dispatch over Kind is an exhaustive
// switch.
//
// Each kind also has a confidence function that inspects a source directory
// and rates, from 0 to 255, how likely the pipeline is to build it. Detect
// compares those ratings in Kinds order and picks the highest. Select honors
// an explicit pipeline name and only falls back to detection when none is
// given.
//
// Pipelines run their tools through an *executor.Executor rooted at the
// source directory. Steps that write into the PostgreSQL installation may be
// elevated with sudo, but only when the installation's pkglibdir is not
// writable by the current user.
package pipeline
