// Package files stages run outputs next to their destinations and publishes
// them together.
//
// A Transaction collects Staged outputs. Commit makes each one visible, and
// Rollback discards whatever was not yet committed, so a failed run leaves no
// partial files behind.
//
//	tx := files.NewTransaction(logger)
//	f, staged, err := files.CreateStaged("out/processed.xlsx")
//	// write to f, close it
//	tx.Add(staged)
//	if err := tx.Commit(); err != nil {
//	    // every staged file is gone
//	}
package files
