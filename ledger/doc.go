// Package ledger implements an append-only, hash-chained ledger for recording
// security events emitted by scanners, detectors and honeypots.
//
// # Core Components
//
// Ledger: An ordered chain of blocks rooted at a fixed genesis block. It owns
// the only write path (LogSecurityEvent), integrity verification and the audit
// queries.
//
// Block: A single security event with its position in the chain, a link to
// its predecessor and a content hash found through proof-of-work.
//
// Signer: Binds an event payload to a key so that payload tampering is
// detectable independently of the hash chain.
//
// Miner: The admission cost paid before a block may be appended.
//
// # Security Properties
//
// The ledger provides:
//   - Append-only history: blocks are never modified, removed or reordered
//   - Tamper detection: any change to a stored block breaks its hash or a link
//   - Payload signatures: a second layer that survives a fully rehashed chain
//   - Admission control: mining throttles how fast events can be recorded
//
// A SecretSigner only proves integrity to holders of the shared secret; anyone
// who holds it can also forge signatures. Use a SchnorrSigner when auditors must
// not be able to sign.
//
// # Concurrency
//
// Writers are serialized for the whole build, mine and append sequence, so two
// blocks can never be mined against the same predecessor. Readers work on a
// snapshot of the published chain and are never blocked by mining.
package ledger
