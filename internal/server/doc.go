// Package server provides the HTTP server that hands out the current time.
//
// Available endpoints:
//   - /api/time        : Current time as plain text in the configured layout and timezone
//   - /api/time/stream : Websocket pushing the same text every stream interval
//   - /                : Landing page with the browser client (static/main.js)
//   - /static/*        : Embedded static assets
//   - /metrics         : Prometheus metrics endpoint
//   - /health          : Liveness probe (always returns 200)
//   - /ready           : Readiness probe (200 while the listener is serving)
//
// Every request is counted in time_display_api_requests_total by route and
// status code and logged at info level. Requests that match no route share the
// "unmatched" route label. Panics in handlers are recovered.
//
// The server is configured with sensible timeout defaults:
//   - Read timeout: 15 seconds
//   - Write timeout: 15 seconds
//   - Idle timeout: 60 seconds
//
// Example usage:
//
//	srv, err := server.NewServer(cfg, log)
//	if err != nil {
//		log.Error("Failed to create server", "error", err)
//		os.Exit(1)
//	}
//
//	serverErrors := make(chan error, 1)
//	go func() {
//		serverErrors <- srv.Start()
//	}()
//
//	<-shutdown
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//	_ = srv.Shutdown(ctx)
package server
