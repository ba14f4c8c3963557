// Package embed provides text embedding via an external HTTP service.
//
// The service speaks the common embeddings API shape: POST a model name and
// a list of input strings, receive one vector per input in order. Both a
// local inference server and the hosted providers accept this shape, so the
// endpoint is configuration, not code.
//
// Embedding failures are not locally recoverable. Unlike page fetches,
// which degrade to an empty document, an embed error is returned to the
// caller and aborts the run.
package embed
