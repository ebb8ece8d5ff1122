// Package batch holds the helpers behind the bulk task tools.
//
// Bulk tools accept task references as a single string, a JSON array encoded in a string,
// a comma-separated list or a real array. Each reference is processed on its own and a
// failure never aborts the rest of the batch:
//
//	refs, err := batch.ParseStringOrArray(args["task_ids"], "task_ids")
//	results := batch.ProcessBatch(ctx, refs, func(ctx context.Context, ref string) (string, error) {
//		...
//	})
//	return mcp.NewToolResultText(batch.FormatResults(results)), nil
package batch
