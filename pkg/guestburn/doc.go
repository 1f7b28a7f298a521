// Package guestburn provides an embeddable network stress session for KVM
// guests.
//
// Guestburn drives concurrent upload/download traffic against an HTTP
// service on a libvirt guest, watches for network stalls, and recovers by
// power-cycling the guest through virsh. It can be used as a standalone
// CLI application or embedded as a library in other Go programs.
//
// # Basic Usage
//
// To embed guestburn in your application:
//
//	cfg := guestburn.Config{
//	    URL:   "http://myguest.local/data.txt",
//	    Guest: "myguest",
//	}
//
//	session, err := guestburn.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := session.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... run until shutdown signal ...
//
//	if err := session.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Configuration
//
// Create a [Config] with at minimum URL and Guest. All other fields have
// sensible defaults set via [Config.SetDefaults].
//
// # Event Handling
//
// To receive notifications about iteration outcomes and hangs, implement
// [EventHandler] and pass it via [WithEventHandler]:
//
//	handler := &myEventHandler{}
//	session, err := guestburn.New(cfg, guestburn.WithEventHandler(handler))
//
// Events are called synchronously from the session goroutine.
// Implementations should return quickly to avoid delaying stall detection.
//
// # Dependency Injection
//
// For testing, or for guests not managed by libvirt, you can inject custom
// implementations of external dependencies:
//
//	session, err := guestburn.New(cfg,
//	    guestburn.WithPowerControl(myPowerControl),
//	    guestburn.WithLogger(customLogger),
//	)
//
// # Lifecycle States
//
// A Guestburn instance can be in one of five states: [StateStopped],
// [StateStarting], [StateRunning], [StateStopping], or [StateCrashed].
// Use [Guestburn.Status] to query the current state.
package guestburn
