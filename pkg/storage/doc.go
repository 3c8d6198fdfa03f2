// Package storage is the download engine: it turns one ImageTask into a file
// in the thread directory.
//
// The Manager type handles:
//   - Existence checks against a listing of the directory taken at creation
//   - Filename policy, including the thumbnail marker strip in reverse-search mode
//   - Downloads into a temporary file that is renamed into place only when it
//     exceeds the minimum size, so a truncated body never takes a final name
//   - Optional modification time stamping
//
// Usage:
//
//	manager, err := storage.NewManager(dir, client, storage.Policy{MinFileSize: 1000}, log)
//	if err != nil {
//	    return err
//	}
//	outcome := manager.Materialize(ctx, manager.NewTask(link, 1))
//	fmt.Println(outcome.Report())
package storage
