// SPDX-License-Identifier: MPL-2.0

// Package executor runs external build tools and streams their output.
//
// An Executor is rooted at a single working directory. Execute spawns the
// command with both standard output and standard error piped, reads each pipe
// line by line in its own goroutine, and fans the lines into one channel
// consumed by the calling goroutine. Standard output lines are written to the
// "out" LineWriter and standard error lines to the "err" LineWriter as they
// arrive, so build output reaches the user in real time.
//
// Line order within one stream is preserved. The interleaving of stdout and
// stderr lines follows delivery order, which may differ from the order in
// which the child emitted them.
//
// Failures are reported as *LaunchError (the process could not be started),
// *CommandError (non-zero exit or signal termination), or *StreamError (a pipe
// could not be read). Each wraps a package sentinel for errors.Is checks.
package executor
