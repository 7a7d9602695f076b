package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileExtension(t *testing.T) {
	assert.Equal(t, "pdf", FileExtension("report.pdf"))
	assert.Equal(t, "pdf", FileExtension("Report.PDF"))
	assert.Equal(t, "gz", FileExtension("archive.tar.gz"))
	assert.Equal(t, "", FileExtension("Makefile"))
	assert.Equal(t, "", FileExtension("trailing."))
}

func TestValidateExtension(t *testing.T) {
	assert.NoError(t, ValidateExtension("pdf"))
	assert.NoError(t, ValidateExtension("docx"))

	for _, ext := range []string{"exe", "sh", "bat", ""} {
		err := ValidateExtension(ext)
		assert.Equal(t, KindUnsupportedFileType, KindOf(err), "ext %q", ext)
	}
}

func TestValidateFileSize(t *testing.T) {
	assert.NoError(t, ValidateFileSize(100, 100))
	assert.Equal(t, KindFileTooLarge, KindOf(ValidateFileSize(101, 100)))
	assert.Equal(t, KindValidation, KindOf(ValidateFileSize(-1, 100)))
}

func TestMimeFromExtension(t *testing.T) {
	assert.Equal(t, "application/pdf", MimeFromExtension("pdf"))
	assert.Equal(t, "text/plain", MimeFromExtension("txt"))
	assert.Equal(t, "application/octet-stream", MimeFromExtension("unknownext"))
}

func TestValidateNames(t *testing.T) {
	assert.NoError(t, ValidateDirectoryName("Annual Reports"))
	assert.Equal(t, KindValidation, KindOf(ValidateDirectoryName("a/b")))
	assert.Equal(t, KindValidation, KindOf(ValidateFileName("bad|name.pdf")))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[ErrorKind]int{
		KindValidation:             400,
		KindNotFound:               404,
		KindConflict:               409,
		KindCycle:                  400,
		KindFileTooLarge:           413,
		KindUnsupportedFileType:    415,
		KindNotImplemented:         501,
		KindFilesystemInconsistent: 500,
		KindInternal:               500,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), "kind %s", kind)
	}
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(assert.AnError))
	assert.Equal(t, KindConflict, KindOf(Conflictf("boom")))
	assert.True(t, IsKind(NotFoundf("gone"), KindNotFound))
}
