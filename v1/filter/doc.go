// Package filter turns loosely typed request parameters into typed filter
// expressions.
//
// Parameters arrive as an ordered list of key/value pairs (see FromMap and
// FromValues). Each key is one of:
//
//   - a field of the entity: "title", with a scalar value (equality) or an
//     operator map such as {"gte": 10, "lt": 20};
//   - a dotted relational path: "user.username", filtering through a relation
//     declared on the entity;
//   - a reserved paging key: "limit", "offset" or "sort";
//   - the storage-internal identifier "_id", kept raw and never cast.
//
// An operator map carrying the reserved key "or" with a truthy value is
// combined disjunctively with the other OR-flagged entries; everything else
// is conjunctive. Both sets apply at once.
//
// Values are cast with Cast according to the field's semantic type, so the
// same filter given as "10" or 10 normalizes identically.
//
// Basic Usage:
//
//	n := filter.NewNormalizer(registry.Default(), filter.Config{})
//	req, err := n.Normalize("game", filter.FromMap(map[string]any{
//	    "title":  map[string]any{"contains": "zelda"},
//	    "rating": map[string]any{"gte": "80"},
//	    "limit":  10,
//	}))
//	if queryerr.IsClientError(err) {
//	    // reject the request
//	}
//
// The resulting Request is consumed by the docstore and igdb compilers.
package filter
