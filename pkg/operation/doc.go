/*
Package operation sorts a root directory into category directories.

	              +-------------+
	              |    Root     |
	              +------+------+
	                     |
	        +------------+------------+
	        |                         |
	+-------+-------+         +-------+-------+
	| subdirectory  |  ...    |  loose file   |
	| (worker pool) |         |   (inline)    |
	+-------+-------+         +-------+-------+
	        |                         |
	        +-----------+-------------+
	                    |
	            +-------+-------+
	            |   Relocator   |
	            | (one per run) |
	            +-------+-------+
	                    |
	        prune -> expand -> report

🎯 Purpose:
- Verifies the root before any work is dispatched
- Sorts each top-level subdirectory on a bounded errgroup pool
- Sorts top-level files inline, alongside the workers
- Re-sorts existing category directories, listed before anything moves
- Prunes empty directories, expands archives, builds the report

🔄 Flow:
 1. checkRoot fails the whole run with ErrRootInvalid
 2. every subdirectory is walked eagerly, then its files relocated;
    category directories are listed up front so arrivals are not re-sorted
 3. the pool join is the only barrier
 4. the clean operation removes empty directories (not in a dry run)
 5. the archive expander unpacks Archives/*.zip (not in a dry run)
 6. the report is read from disk, or built from the planned moves

⚡ Failure handling:
  - per-file failures are collected in Result.Failures, never abort
  - a file that vanished mid-run lands in Result.Skipped
  - a bad archive is reported in its archive.Result and the rest continue

🔍 Example:

	op, err := operation.NewSortOperation(operation.Options{
		Root:     root,
		Config:   cfg,
		Logger:   &logger,
		Observer: console,
	})
	if err != nil {
		return err
	}
	result, err := op.Execute(ctx)
*/
package operation
