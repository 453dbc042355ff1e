// Package reconnect implements the reconnect half of recovery for a
// two-party session: comparing ledger heights and latest hashes with the
// peer and, when the local ledger is behind, fetching, verifying and
// appending the suffix of blocks it is missing. When the local ledger is
// ahead, nothing is sent to the peer. The package has no disconnect
// step and writes no state to disk.
//
// Grounded on the teacher's engine/blocksync.go (BlockProvider/BlockStore
// interfaces, pending-request bookkeeping, caught-up callback) scaled
// down from N-peer catch-up sync to a single counterparty, and on
// original_source/zerotrust/reconnection.py's informal recovery flow.
package reconnect
