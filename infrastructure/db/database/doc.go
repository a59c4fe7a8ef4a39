/*
Package database provides a generic ordered key-value database interface
used by the rewards ledger.

Keys are composed of a Bucket path and a suffix, so that every logical table
of the ledger (entries, rounds, results, ...) occupies its own key prefix and
can be scanned with a Cursor. Multi-record writes go through a Transaction,
which is committed atomically by the underlying engine.

Two engines implement the interfaces: ldb (goleveldb, the default) and
badgerdb (badger v3).
*/
package database
