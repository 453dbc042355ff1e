// Package evidence implements the closed cheat taxonomy: exactly seven
// kinds of violation an honest peer can observe and prove against its
// counterparty (FORGED_SIGNATURE, INVALID_PROOF, COMMITMENT_MISMATCH,
// LEDGER_TAMPER, TIMEOUT_STALL, DOUBLE_MOVE, INVALID_MOVE), plus the
// dispute log and invalidation bookkeeping that turns a detected
// violation into a terminated session.
//
// Every CheatEvidence is self-contained: it carries the offending
// transaction, proof, or block reference so a third party holding only
// the ledger and the accused's public key can re-derive the verdict
// without trusting the reporter.
//
// Grounded on the teacher's evidence.Pool (dedup-by-key, pending/
// committed split, key-hashing pattern) generalized from one evidence
// kind (duplicate vote) to seven, and on
// original_source/zerotrust/cheating.py's CheatDetector/CheatInvalidator/
// create_cheat_report, which Log and Log.Report supplement.
package evidence
