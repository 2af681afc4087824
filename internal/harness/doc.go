// Package harness runs end-to-end conformance scenarios.
//
// A scenario declares a specification, a corpus of test cases and the
// answer each validator gives for each package. The harness writes the
// corpus to a scratch directory, drives the tester with a scripted
// executor, records the run in an in-memory ledger, then checks the
// scenario's assertions against what the ledger holds.
//
// # Scenario Format
//
//	name: csip-verdicts
//	description: "What this scenario validates"
//	specification:
//	  id: CSIP
//	  version: "2.1.0"
//	  requirements: [CSIP1, CSIP2]
//	runners:
//	  - id: eark-validator
//	    version: "2.1.1"
//	test_cases:
//	  - id: CSIP1
//	    rules:
//	      - id: 1
//	        packages:
//	          - name: valid
//	            valid: true
//	            implemented: true
//	            on_disk: true
//	            responses:
//	              eark-validator:
//	                report: { ... }
//	assertions:
//	  - type: outcome
//	    test_case: CSIP1
//	    package: valid
//	    runner: eark-validator
//	    expect: pass
//
// A package with no response for a runner gets a crash: exit status 1
// and no report.
//
// # Assertion Types
//
//   - outcome: the graded outcome of one runner on one package
//   - error_code: a runner reported a requirement code for a package
//   - summary: package, invocation and failure counts for the run
//   - tally: pass/fail/error counts for one runner, read from the ledger
//   - coverage: requirements without test cases and directories without
//     requirements
//
// # Deterministic Testing
//
// Run ids come from testutil.SequentialIDGenerator seeded with the
// scenario name and timestamps from testutil.DeterministicClock, so
// RunWithGolden snapshots are stable.
package harness
