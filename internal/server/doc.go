// Package server provides the HTTP surface of the detection demo.
//
// It is a thin adapter: request parsing and response encoding live here,
// while all detection logic runs inside the pipeline package. Routes:
//
//	GET  /            embedded single-page upload UI
//	POST /api/detect  run one detection pass
//	GET  /healthz     liveness and configured model
//	GET  /metrics     request counters
//
// # Request Formats
//
// POST /api/detect accepts three body formats, selected by Content-Type:
//
//   - multipart/form-data: image in the "file" field, optional "threshold"
//     and "top_k" fields
//   - application/json: {"image": "<base64>", "threshold": 0.5, "top_k": 50}
//   - anything else: the raw image bytes, with optional threshold/top_k
//     query parameters
//
// Omitted parameters fall back to the configured defaults.
//
// # Error Responses
//
// Failures are returned as {"code": ..., "message": ..., "details": ...}:
//
//   - 400 invalid_input / invalid_image: bad parameters or an undecodable
//     upload; the remote service is never called
//   - 503 model_loading: the upstream model is still warming up
//   - 502 remote_error: any other inference service failure
//   - 500 internal_error: everything else
package server
