// Package mediatypes classifies media files by extension and maps
// extensions to MIME types. It is used to reject unsupported uploads and
// to set download content types.
package mediatypes
