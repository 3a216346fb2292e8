// Package artifact stores files uploaded into a session and hands the
// orchestration core the filename -> local path mapping it passes to
// agents. The core itself never opens these paths; the responsible
// agent does.
package artifact
