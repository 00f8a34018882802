// Package ltx provides a Go library for driving LTX LED juggling balls:
// compiling time-indexed color programs into the balls' proprietary .prg
// binary format and transporting/triggering those programs over the local
// network using the reverse-engineered ball protocol.
//
// # Overview
//
// An LTX ball runs a fixed-rate color program stored on the ball as a .prg
// file. This library covers the full path from an ordered list of timed
// color changes to light coming out of a ball:
//
//   - Sequence model: timed color samples, differenced into segments and
//     split so no segment exceeds the format's 16-bit duration field.
//   - Codec: byte-exact .prg encoding (signature header, variable header,
//     segment descriptor table, 300-byte color blocks, footer).
//   - Discovery: a background UDP listener that tracks ball status
//     broadcasts and publishes immutable snapshots.
//   - Upload: the TCP transfer framing used to push a .prg onto a ball.
//   - Playback: the UDP play/stop trigger state machine, which must echo
//     timestamp bytes sniffed from the ball's own broadcasts.
//
// # Protocol Architecture
//
// The ball speaks two transports, both reverse engineered:
//
//   - UDP port 41412: the ball broadcasts periodic beacon/status packets
//     and accepts fixed-size little-endian command packets (9-byte
//     triggers, 12-byte color/brightness). Commands carrying stale or
//     missing echoed timestamp bytes are silently ignored, so discovery
//     must be running before any trigger is sent.
//   - TCP port 8888: one-shot .prg upload. The client half-closes after
//     writing; the ball closing its side is the only acknowledgment.
//
// # Quick Start
//
//	seq, err := ltx.LoadSequence("show.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	prg, err := ltx.EncodeSequenceFile(seq)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	disc := ltx.NewDiscovery()
//	if err := disc.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer disc.Stop()
//
//	rec, ok := disc.Snapshot()
//	if ok {
//	    up := ltx.NewUploader()
//	    err = up.Upload(rec.Addr, "show.prg", prg)
//	}
//
//	ctl := ltx.NewPlayback(disc)
//	defer ctl.Close()
//	err = ctl.Play()
//
// # State Tracking
//
// The trigger protocol is send-only: the ball never confirms a visual state
// change. PlaybackController therefore tracks *assumed* state and surfaces
// uncertainty (missing status snapshot, ambiguous upload acknowledgment) as
// distinct, retryable errors rather than hard failures.
//
// # Thread Safety
//
// Discovery owns its device table exclusively; all readers receive copies.
// Uploader and PlaybackController are safe for concurrent use.
package ltx
