package utils

import (
	"mime"
	"strings"

	"docuvault/models"
)

// AllowedExtensions is the upload allow-list, lowercased without the dot.
var AllowedExtensions = map[string]bool{
	"txt": true, "pdf": true, "doc": true, "docx": true, "xls": true,
	"xlsx": true, "ppt": true, "pptx": true, "md": true, "html": true,
	"css": true, "js": true, "json": true, "xml": true, "csv": true,
	"jpg": true, "jpeg": true, "png": true, "gif": true, "bmp": true,
	"svg": true, "mp3": true, "wav": true, "mp4": true, "avi": true,
	"mov": true, "zip": true, "rar": true, "7z": true, "tar": true,
	"gz": true, "py": true, "java": true, "cpp": true, "c": true,
}

// ValidateDirectoryName checks a directory name against the shared segment
// rules, returning a Validation error usable directly by the transport.
func ValidateDirectoryName(name string) error {
	if err := models.ValidateSegment(name); err != nil {
		return WrapError(KindValidation, err, "invalid directory name").WithReason("invalid_name")
	}
	return nil
}

// ValidateFileName applies the same character rules to upload filenames.
func ValidateFileName(name string) error {
	if err := models.ValidateSegment(name); err != nil {
		return WrapError(KindValidation, err, "invalid file name").WithReason("invalid_name")
	}
	return nil
}

// FileExtension returns the lowercased extension without the dot.
func FileExtension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// ValidateExtension rejects files whose extension is not on the allow-list.
func ValidateExtension(ext string) error {
	if !AllowedExtensions[ext] {
		return NewError(KindUnsupportedFileType, "file type %q is not allowed", ext).
			WithReason("extension_not_allowed")
	}
	return nil
}

// ValidateFileSize enforces the configured upload ceiling.
func ValidateFileSize(size, maxSize int64) error {
	if size < 0 {
		return Validationf("file size cannot be negative")
	}
	if size > maxSize {
		return NewError(KindFileTooLarge,
			"file size %d bytes exceeds maximum allowed size of %d bytes", size, maxSize).
			WithReason("size_limit_exceeded")
	}
	return nil
}

// MimeFromExtension derives the content type from the file extension, with
// application/octet-stream as the fallback.
func MimeFromExtension(ext string) string {
	if ext == "" {
		return "application/octet-stream"
	}
	if m := mime.TypeByExtension("." + ext); m != "" {
		// Strip charset parameters so the stored value is the bare type.
		if i := strings.Index(m, ";"); i >= 0 {
			m = strings.TrimSpace(m[:i])
		}
		return m
	}
	return "application/octet-stream"
}
