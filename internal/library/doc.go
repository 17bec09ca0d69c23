// package library is the local catalog: a SQLite-backed store of movies,
// series, and episodes with per-user watch state, plus the JSON import path
// that populates it from a media-server export.
package library
