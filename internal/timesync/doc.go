// Package timesync aligns frames from independent, jittery camera sources
// onto a shared virtual clock.
//
// Each source gets a pump goroutine filling a small bounded lookahead
// buffer. The control thread asks for one bundle per tick; the synchronizer
// picks from every buffer the frame whose timestamp lies closest to the
// tick's nominal time, discarding frames that fall strictly before the tick
// window. A tick whose bundle cannot be completed before the per-tick
// deadline is dropped with ErrTickMissed; tick numbering still advances and
// no tick is ever re-emitted.
package timesync
