// Package media turns captured frames into encoded files by delegating to
// an external encoder (ffmpeg) treated as an opaque batch tool.
//
// Three paths exist:
//   - GIF: frames are dumped as numbered PNGs and assembled into an
//     animated image with a generated palette.
//   - Video: same dump, encoded with the codec profile of a VideoFormat.
//   - Stream: a long-lived process reads raw BGRA frames from its standard
//     input as they are produced; no intermediate frame files.
//
// Every path produces an *Artifact owning a temporary directory. The caller
// streams the file and then calls Cleanup. On failure the temporary
// directory is removed before the error is returned. A non-zero exit code is
// a fault.CodeEncoder error carrying the process output.
package media
