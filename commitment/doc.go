// Package commitment defines the abstract commitment surface every
// zero-trust application plugs into the protocol, plus a concrete grid
// reference implementation.
//
// A commitment scheme hides a witness behind a short root digest at
// session start, then lets the holder later reveal and prove individual
// facts about the witness without disclosing the rest of it. The engine
// (package engine) only ever talks to the Scheme interface; it never
// knows whether the witness is a grid, a card hand, or anything else.
//
// Re-architecture note (spec §9, "dynamic commitment polymorphism"):
// the original implementation dispatched through a duck-typed base
// class. Here that becomes a plain Go interface — extensibility across
// the trust boundary is carried by the wire-visible SchemeTag string,
// not by dynamic dispatch.
package commitment
