// Package httpserver runs an http.Handler with graceful shutdown, used to
// host the webhook callback endpoint.
//
//	srv := httpserver.New(httpserver.WithAddr(":8080"))
//	err := srv.Run(ctx, webhook.NewHandler(verifier, router))
//
// Run blocks until the context is cancelled, an interrupt signal arrives,
// or the listener fails. The webhook contract requires answering 200
// promptly; in-flight deliveries get ShutdownTimeout to complete before the
// listener is torn down.
package httpserver
