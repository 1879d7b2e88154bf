// Package transcode defines encoding profiles and the engine abstraction the
// proxy queue drives. The production engine shells out to ffmpeg and reports
// progress by parsing its machine-readable progress stream; tests substitute
// a scripted engine.
package transcode
