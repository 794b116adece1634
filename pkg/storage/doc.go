// Package storage defines the specification repository used by the catalog
// service.
//
// The repository is split into a Reader and a Writer. Writes only happen
// inside Store.InTx, which hands the callback a Tx that can both read and
// write; reads outside a transaction may be served by a replica.
//
// Every list operation takes an explicit SortOrder. There is no implicit
// default ordering: callers that want specifications by title ask for
// storage.Asc("title"). Property lists are the one exception and always come
// back in position order, since position is part of their data.
//
// The relational implementation lives in pkg/storage/sqlstore and runs on
// PostgreSQL (lib/pq) or SQLite (mattn/go-sqlite3).
package storage
