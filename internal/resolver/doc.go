// Package resolver turns a user supplied task reference into a ClickUp task.
//
// A reference may be an internal task ID ("86abc"), a hash shorthand ("#86abc"), a custom
// task ID ("GH-3761") or a task URL ("https://app.clickup.com/t/3647378/GH-3761"). Parse
// extracts the candidate ID without touching the network; Resolver.Resolve then tries, in
// order, a direct lookup, a custom-ID lookup and a text search:
//
//	r := resolver.New(resolver.NewClientStore(client), patterns, cfg.ScopeID())
//	task, err := r.Resolve(ctx, "gh-123", resolver.ResolveOptions{})
//
// Every failure crossing the package boundary is a *ResolutionError.
package resolver
