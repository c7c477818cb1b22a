// Package hybrid decides, per request, whether to answer from the local
// document store, from the external catalog, or from both.
//
// Requests on entities the external catalog does not know stay local.
// Requests that sort or filter on local-only data, or that carry relational
// or internal ID filters, run local-first: the local page is served first
// and, when short, padded with external results that are not already
// present locally. Everything else goes straight to the external catalog.
//
// Local-first results are not windowed by the request's offset; callers
// slice them (see Result.Windowed).
package hybrid
