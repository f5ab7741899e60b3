// Package capture acquires images for identification: files on disk, data
// URLs pasted from a browser, and live frames from an external camera
// command.
//
// Camera streams are scoped resources. Callers must Close a Stream once the
// frame has been read; the session does so on every exit path.
package capture
