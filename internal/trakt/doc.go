// package trakt implements the remote side of the sync engine: the wire
// types for Trakt's watched and collection snapshots, the sync request and
// response payloads, and an OAuth2 HTTP client that submits them in
// rate-limited 100-item chunks.
//
// Endpoints follow https://trakt.docs.apiary.io/.
package trakt
