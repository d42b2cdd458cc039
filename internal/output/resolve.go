// Package output maps URLs to files and writes them under the build root.
package output

import (
	"mime"
	"path"
	"strings"
)

// documentExtensions are the formats served as directory indexes.
var documentExtensions = map[string]string{
	"text/html":             ".html",
	"application/xhtml+xml": ".xhtml",
}

// knownExtensions avoids depending on the host's mime tables for common
// non-document formats.
var knownExtensions = map[string]string{
	"application/json":       ".json",
	"application/xml":        ".xml",
	"text/xml":               ".xml",
	"application/rss+xml":    ".xml",
	"application/atom+xml":   ".xml",
	"text/plain":             ".txt",
	"text/css":               ".css",
	"text/javascript":        ".js",
	"application/javascript": ".js",
	"image/svg+xml":          ".svg",
	"text/csv":               ".csv",
}

// MediaType strips parameters and case from a Content-Type style format.
func MediaType(format string) string {
	if i := strings.IndexByte(format, ';'); i >= 0 {
		format = format[:i]
	}
	return strings.ToLower(strings.TrimSpace(format))
}

// IsDocument reports whether format is an HTML-like document format.
func IsDocument(format string) bool {
	_, ok := documentExtensions[MediaType(format)]
	return ok
}

// Extension returns the conventional file extension for format, with the
// leading dot, or "" when none is known.
func Extension(format string) string {
	mt := MediaType(format)
	if ext, ok := documentExtensions[mt]; ok {
		return ext
	}
	if ext, ok := knownExtensions[mt]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mt); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// Resolve returns the output directory (URL-style, rooted) and file name for
// content of the given format served at url.
//
// Documents whose URL does not already carry the format's extension become a
// directory index: "/about" is written as "/about/index.html". Everything else
// is written at the URL as-is; a non-document URL ending in "/" becomes
// "index" plus the format's extension.
func Resolve(url, format string) (dir, filename string) {
	dirname, basename := path.Split(url)
	if dirname == "" {
		dirname = "/"
	}
	ext := path.Ext(basename)

	if IsDocument(format) {
		docExt := Extension(format)
		if ext != docExt {
			return url, "index" + docExt
		}
		return path.Clean(dirname), basename
	}

	if basename == "" {
		return dirname, "index" + Extension(format)
	}
	return path.Clean(dirname), basename
}
