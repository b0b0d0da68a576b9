// SPDX-License-Identifier: MPL-2.0

// Package bootstrap orchestrates a full engine run: parse the package
// specification, materialize raw-file payloads into the cache, resolve a
// working runner and assemble the final invocation. The CLI layer stays a
// thin adapter over Prepare and Plan.
package bootstrap
