// Package recorder drives one episode at a time through its lifecycle:
// open every camera, pull synchronized frame bundles for the configured
// tick budget, feed each camera's encoder, and hand the finished episode
// to the dataset writer.
//
// The lifecycle is an explicit state machine. Committed and Aborted are the
// only terminal states and every failure path runs the same cleanup, so an
// aborted episode never leaves artifacts behind or consumes an episode
// index.
package recorder
