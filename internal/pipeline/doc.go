// Package pipeline runs named image operations against explicit buffers.
//
// A Pipeline owns the scratch state that operations share: the blur
// engine's intermediate buffer, the Perlin field and the most recently
// built deconvolver, which is reused while image and kernel sizes stay the
// same. Operations are described by an Op value naming the operation, its
// inputs, its output and its parameters, so callers never reach for global
// state.
//
// A Pipeline is not safe for concurrent use. Worker serialises requests
// from any number of goroutines onto one Pipeline through a channel.
package pipeline
