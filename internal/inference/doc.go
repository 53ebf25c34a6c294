// Package inference implements the client for the remote object-detection
// inference API.
//
// The service is treated as a black box: the client sends the encoded image
// bytes in a single POST request and decodes the returned detection list.
// There is no retry logic; one failed call surfaces as one error.
//
// # Wire Format
//
// The request body is the raw PNG bytes with Content-Type image/png and an
// optional Bearer token. A successful response is a JSON array:
//
//	[
//	  {"label": "cat", "score": 0.97, "box": {"xmin": 1, "ymin": 2, "xmax": 30, "ymax": 40}},
//	  ...
//	]
//
// The upstream may instead return an {"error": "..."} object, a 503 while
// the model is still loading, or any other non-success status. All of these,
// along with transport failures and responses missing a label, score, or box
// field, are reported as a *RemoteError whose Kind identifies the failure
// class.
package inference
