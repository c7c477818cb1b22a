// Package catalog is the entry point callers use to query and maintain
// entities of the save-file catalog.
//
// Query normalizes a raw parameter map, serves single-key identity
// requests with a direct lookup and hands everything else to the hybrid
// orchestrator:
//
//	res, err := svc.QueryMap(ctx, "savedata", map[string]any{
//		"user.username": "peach",
//		"createdAt":     map[string]any{"gte": "2024-01-01"},
//		"limit":         20,
//	})
//	switch {
//	case queryerr.IsClientError(err):
//		// 400
//	case err != nil:
//		// 500
//	case res.Empty():
//		// 204
//	}
//
// Update and Insert validate against the registry; Delete cascades along
// relations flagged Cascade and reports every removed identity.
package catalog
