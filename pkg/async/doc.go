// Package async provides a minimal future abstraction used by the dispatch
// client to run batch chunks concurrently while collecting every chunk's
// result, failed ones included.
//
//	futures := make([]*async.Future[Result], len(chunks))
//	for i, chunk := range chunks {
//	    futures[i] = async.Go(ctx, chunk, process)
//	}
//	for _, f := range futures {
//	    result, err := f.Await()
//	    // one chunk's failure never hides its siblings' results
//	}
package async
