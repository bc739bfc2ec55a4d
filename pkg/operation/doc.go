/*
Package operation runs a verified copy or extraction from start to finish.

	+-------------+
	|   Resolve   |
	|   (plan)    |
	+------+------+
	       |
	+------v------+      +------------+
	|  Transfer   +----->|  Reporter  |
	|  (engine)   |      | (progress) |
	+------+------+      +------------+
	       |
	+------v------+
	|   Nested    |
	| (.rar pass) |
	+------+------+
	       |
	+------v------+
	|  Summary /  |
	|   Report    |
	+-------------+

🎯 Purpose:
- Resolves the origin into a plan and hands it to the transfer engine
- Optionally expands .rar files the primary pass extracted
- Summarizes the results and writes the run report

⚡ Errors:
- A resolution failure aborts the run before anything is written (exit 2)
- Unit failures are collected and never stop the run (exit 1)
- A report that cannot be written is fatal (exit 2)

🔍 Example:

	op, err := operation.New(operation.Options{Config: cfg, Reporter: reporter})
	if err != nil {
		return err
	}
	outcome, err := op.Run(ctx)
	os.Exit(operation.ExitCode(outcome, err))
*/
package operation
