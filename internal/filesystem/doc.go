// Package filesystem wraps stat and open with retry logic for stale NFS
// file handles, which occur when artifacts live on network storage.
package filesystem
