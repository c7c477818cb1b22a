// Package queryerr defines the error taxonomy of the query-translation engine.
//
// Every rejection of a request (unknown entity, undeclared field, duplicate filter,
// failed cast, filter the target backend cannot express) is a client-class error.
// Failures of the document store or the external search service are backend-class
// errors. The two classes are distinguishable so that transports can choose between
// 400-class and 500-class responses; this package does not choose status codes itself.
//
// Basic Usage:
//
//	res, err := svc.Query(ctx, "game", params)
//	switch queryerr.GetErrorCategory(err) {
//	case queryerr.CategoryClient:
//	    // bad request
//	case queryerr.CategoryBackend:
//	    // upstream failure
//	}
//
// Structured details are available through errors.As:
//
//	var qe *queryerr.Error
//	if errors.As(err, &qe) {
//	    log.Printf("field %s rejected: %v", qe.Field, qe.Value)
//	}
package queryerr
