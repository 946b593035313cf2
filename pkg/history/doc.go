// Package history keeps a journal of fleet launches in a local SQLite
// database.
//
// Each launch is one row in the launches table keyed by its launch ID.
// Every spawn attempt of that launch is a row in processes, so an operator
// can see which pid served which instance and why a spawn failed:
//
//	store, err := history.Open(ctx, history.Config{Path: "history.db"})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	if err := store.Record(ctx, result); err != nil {
//	    return err
//	}
//	launches, err := store.List(ctx, 10)
//
// The database is opened in WAL mode with a single connection.
package history
