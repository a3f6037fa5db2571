// Package timeclient fetches the current time string from a time server and
// renders it into a display target.
//
// The time string is opaque: whatever text the server returns from
// /api/time is written verbatim into the target. Formatting and timezone are
// the server's business.
//
// RefreshTime is fire-and-forget. It starts one GET in the background and
// returns. On success the body becomes the target's text; on any failure
// (connection error, non-2xx status, unreadable or non-UTF-8 body, missing
// display element) one entry goes to the Diagnostics sink and the display
// keeps its previous value. There are no retries and no timeouts. Two
// overlapping refreshes are not ordered against each other; whichever
// response arrives last ends up on the display.
//
// Example usage:
//
//	endpoint, _ := timeclient.ResolveEndpoint("http://localhost:8080")
//	doc := display.NewDocument(display.TimeElementID)
//	client := timeclient.NewClient(endpoint, doc.Target(display.TimeElementID),
//		timeclient.NewLogDiagnostics(log), log)
//
//	client.RefreshTime()
//	client.Wait()
//
// Fetch exposes the request half synchronously for callers that want the
// error, and Stream follows the server's websocket push at /api/time/stream.
package timeclient
