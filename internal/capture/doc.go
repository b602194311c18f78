// Package capture acquires timestamped frames from camera devices.
//
// A Source wraps one device and produces frames in strictly increasing
// sequence order. The production implementation drives ffmpeg's v4l2 input
// as a subprocess and reads raw frames from its stdout; a synthetic source
// with configurable jitter, stalls, and failure injection backs tests and
// the record command's simulate mode.
//
// Reads are bounded: a device that stalls past the configured timeout
// surfaces ErrCaptureTimeout instead of hanging the pipeline, and a device
// that disappears surfaces ErrDeviceFailure.
package capture
