// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package drift decides whether a session left the terminal polluted.
//
// The input is an [Evidence] record: the before and after protocol
// snapshots compared by [CompareModes], the stty line-discipline diff,
// and signals extracted from the session transcript. [Classify] runs an
// ordered list of [Rule] values and the first one whose predicate
// matches produces the [Verdict]. Adding a category means adding a rule
// at the right position in [DefaultRules].
//
// A suspicious enable is baseline-relative: a mode from the suspicious
// set counts only when it was not enabled before the run and is enabled
// after it. A mode the shell already had enabled is reported as a
// change only if its report differs, never as drift.
//
// Classification never fails. Empty, skipped, or error snapshots compare
// as having no modes, and a probe that was never run is not an anomaly.
package drift
