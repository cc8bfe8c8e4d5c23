// Package batch coalesces work items from many concurrent callers into
// batches and processes each batch exactly once.
//
// Items are added to a [Batcher], which keeps a single open [Batch]. When the
// batch's [Policy] reports it full, the Batcher closes it, opens a new one on
// the next Add and hands the closed batch to its [Processor]. The processor
// runs the user's [ProcessFunc] in its own goroutine and records an
// [Execution] that callers retrieve with Query.
//
// # Usage
//
// Coalesce strings in pairs and join them:
//
//	b, err := batch.NewSized(2, func(ctx context.Context, req batch.Request[string]) (string, error) {
//	    return strings.Join(req.Items(), " "), nil
//	})
//	if err != nil {
//	    return err
//	}
//
//	id, _ := b.Add("one")
//	_, _ = b.Add("two") // same id, batch is now dispatched
//
//	exec, err := b.Query(id)
//	if err != nil {
//	    return err
//	}
//	resp, err := exec.Wait(ctx)
//	// resp.Value() == "one two"
//
// # Policies
//
//   - [SizePolicy]: full once MaxItems items were added
//   - [TimeWindowPolicy]: full once the window elapsed since the batch opened
//
// Custom policies implement [Policy] and are passed to [NewWithPolicy].
//
// # Errors
//
// A processing function that returns an error produces a Failure
// [Response]; Wait and Result return it with a nil error. Errors returned
// by the package itself wrap the sentinels in errors.go and can be checked
// with errors.Is.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package batch
