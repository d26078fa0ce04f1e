// Package zhihu provides a client for Zhihu's v4 web API and the
// content-resolution layer built on top of it.
//
// This package includes:
//   - A configurable HTTP client with cookie auth, retry and rate limiting
//   - Type-safe models for collection and content responses
//   - Helper functions for constructing API endpoints
//   - A Paginator that walks collection item pages
//   - A Resolver that turns collection items into renderable documents
//   - Built-in error types for better error handling
//
// Example usage:
//
//	client := zhihu.NewClient(cookie, 30*time.Second, log)
//
//	// Fetch collection metadata
//	meta, err := zhihu.NewPaginator(client, pacer, delay, log).
//	    CollectionMeta(ctx, "123456789")
//	if err != nil {
//	    if apiErr, ok := err.(*zhihu.Error); ok {
//	        switch apiErr.Type {
//	        case zhihu.ErrorTypeAuth:
//	            // Cookie expired, prompt for a fresh one
//	        case zhihu.ErrorTypeRateLimit:
//	            // Back off and retry later
//	        }
//	    }
//	}
//
//	// Resolve one item to a document
//	doc, err := zhihu.NewResolver(client, log).Resolve(ctx, item)
package zhihu
