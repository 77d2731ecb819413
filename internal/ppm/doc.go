// Package ppm holds an in-memory RGB pixel buffer together with the plain
// text pixmap codec and the per-pixel transformations applied by the
// pipeline.
//
// An *Image carries no locking. Transformations never touch their receiver
// or argument and always return a freshly allocated image; Replace and Set
// are the only mutating operations.
package ppm
