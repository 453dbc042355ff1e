// Package ledger implements the locally-replicated, signed hash-chained
// log that records every transaction of a zero-trust session: commits,
// actions, responses, proofs, and invalidations.
//
// This is not a consensus system — there is no fork choice, no mining
// race, and the "blockchain" terminology describes a single-writer,
// append-only, tamper-evident personal log (spec §1 non-goals). The
// proof-of-work difficulty exists solely as a tamper cost; at the
// default difficulty of 2 bits, sealing a block is effectively free.
//
// Grounded on the teacher's types.Block/types.Commit hash-of-canonical-
// encoding pattern (types/block.go) and evidence.Pool's dedup-by-key
// pattern (evidence/pool.go), adapted here to per-participant nonce
// dedup instead of per-validator vote dedup.
package ledger
