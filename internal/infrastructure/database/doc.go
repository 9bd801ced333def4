// Package database provides SQLite connectivity for Gray Logic Home.
//
// This package manages:
//   - Database connection with WAL mode so reads proceed during writes
//   - Schema migrations embedded in the binary (see the migrations package)
//   - Transaction helpers
//
// All repositories use parameterised statements. The database file is
// created with 0600 permissions.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with a
// matching .down.sql. Migrations are additive: new columns must be
// nullable or carry a default.
package database
