// Package frame owns stream reassembly primitives.
//
// Ownership boundary:
// - rolling byte accumulation for one stream
// - delimiter-driven frame detection
//
// Decoding of frame contents belongs to package decode.
package frame
