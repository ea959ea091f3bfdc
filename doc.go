// Package pubsub is a client runtime for a managed publish/subscribe
// messaging service. It turns many small, uncoordinated Publish calls
// into batched transport calls and fans the batched responses back out
// to each caller, and it runs pull-based subscription sessions that
// dispatch every received message to a handler on a scheduler worker.
//
// The runtime talks to the service exclusively through the
// TransportStub interface and runs all asynchronous work on an
// injected Scheduler; it owns no goroutines of its own. The driver
// subpackages provide a production TransportStub over the Cloud
// Pub/Sub v1 gRPC surface and an in-memory one for tests.
package pubsub
