// Package video encodes per-camera frame streams into episode video files.
//
// One encoder instance serves one camera for one episode. Frames must be
// pushed in strictly increasing index order; Finish flushes everything to
// durable storage before the artifact becomes visible at its final path,
// and Abort discards the partial output so an aborted episode leaves
// nothing behind. The production encoder pipes raw frames into an ffmpeg
// subprocess.
package video
