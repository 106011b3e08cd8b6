// Package files is the client-side cache of file records last seen from the
// files API.
//
// # Overview
//
// The API owns every record; this cache only remembers the most recent list
// so the CLI can show something while the API is unreachable. Each successful
// list replaces the cache wholesale, a successful delete drops one row, and a
// finished upload may be recorded ahead of the next list.
//
// Key Types
//
//   - type Repository       : contract used by the file service
//   - type SQLiteRepository : implementation over a migrated *sql.DB
//
// Typical Usage
//
//	repo := files.NewSQLiteRepository(db)
//	_ = repo.ReplaceAll(ctx, fresh)
//	cached, _ := repo.GetAll(ctx)
//	_ = repo.DeleteByID(ctx, "abc123")
package files
