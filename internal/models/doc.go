// Package models defines the domain entities shared across the sync engine.
//
// The package contains three categories of types:
//
// 1. Local catalog items, owned by the library store:
//   - [Movie] : flat title with per-user watch state
//   - [Series] / [Episode] : the show hierarchy, episodes keyed by season and number
//
// 2. Identity types used by the matcher:
//   - [ProviderIDs] : external metadata provider ids (imdb, tmdb, tvdb, slug)
//   - [Ident] : the (title, year, ids) key a local item and a remote entry are paired on
//
// 3. Per-user sync policy:
//   - [SyncUser] : Trakt tokens plus the flags that decide whether local or remote state
//     is authoritative when the two disagree
//
// All types are plain values; nothing here touches the database or the network.
package models
