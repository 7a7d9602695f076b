package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"docuvault/models"
	"docuvault/utils"
)

// FileService handles uploads and file lifecycle. Content is streamed to
// disk inside the transaction so a write failure rolls the record back; the
// stored name is prefixed with the record id so storage names never collide
// even when original names repeat across directories.
type FileService struct {
	files       FileStore
	dirs        DirectoryStore
	audits      AuditStore
	mirror      MirrorQueue
	tx          TxRunner
	base        string
	maxFileSize int64
}

func NewFileService(files FileStore, dirs DirectoryStore, audits AuditStore, mirror MirrorQueue, tx TxRunner, basePath string, maxFileSize int64) *FileService {
	return &FileService{
		files:       files,
		dirs:        dirs,
		audits:      audits,
		mirror:      mirror,
		tx:          tx,
		base:        basePath,
		maxFileSize: maxFileSize,
	}
}

type UploadRequest struct {
	Reader      io.Reader
	Filename    string
	Size        int64
	DirectoryID primitive.ObjectID
	Description string
	Metadata    map[string]interface{}
}

// FileQuery selects files for List. Exactly the populated fields apply;
// an entirely empty query is rejected.
type FileQuery struct {
	DirectoryID *primitive.ObjectID
	Pattern     string
	Mime        string
	Extension   string
}

// Upload validates, stores the record, streams the content to disk and
// audits the upload in one transaction. A declared size over the limit is
// rejected up front; an undeclared or lying size is caught while streaming.
func (s *FileService) Upload(ctx context.Context, actor string, req UploadRequest) (*models.File, error) {
	if err := utils.ValidateFileName(req.Filename); err != nil {
		return nil, err
	}
	ext := utils.FileExtension(req.Filename)
	if err := utils.ValidateExtension(ext); err != nil {
		return nil, err
	}
	if req.Size > 0 {
		if err := utils.ValidateFileSize(req.Size, s.maxFileSize); err != nil {
			return nil, err
		}
	}

	var uploaded *models.File
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		dir, err := s.dirs.FindByID(txCtx, req.DirectoryID)
		if err != nil {
			return err
		}
		if dir == nil {
			return utils.NotFoundf("directory not found")
		}

		exists, err := s.files.ExistsByNameInDirectory(txCtx, req.Filename, dir.ID)
		if err != nil {
			return err
		}
		if exists {
			return utils.Conflictf("file %q already exists in this directory", req.Filename).
				WithReason("duplicate_name")
		}

		id := primitive.NewObjectID()
		storageName := id.Hex() + "_" + req.Filename
		relPath := storageName
		if dir.Path != "" {
			relPath = dir.Path + "/" + storageName
		}

		now := time.Now()
		file := &models.File{
			ID:           id,
			Name:         storageName,
			OriginalName: req.Filename,
			Path:         relPath,
			FullPath:     filepath.Join(s.base, filepath.FromSlash(relPath)),
			DirectoryID:  dir.ID,
			Mime:         utils.MimeFromExtension(ext),
			Extension:    ext,
			Description:  req.Description,
			Metadata:     req.Metadata,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := s.files.Save(txCtx, file); err != nil {
			return err
		}

		written, hash, err := s.writeToDisk(file.FullPath, req.Reader)
		if err != nil {
			return err
		}

		file.Size = written
		file.SHA1Hash = hash
		file.UpdatedAt = time.Now()
		if err := s.files.Save(txCtx, file); err != nil {
			return err
		}

		if err := s.audits.Insert(txCtx, newEvent(txCtx, actor, models.AuditFileUpload,
			"file", file.ID.Hex(), map[string]interface{}{
				"path": file.Path,
				"size": file.Size,
			})); err != nil {
			return err
		}

		uploaded = file
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Mirroring is best effort; a queue failure never fails the upload.
	if s.mirror != nil {
		task := &models.MirrorTask{
			ID:         primitive.NewObjectID(),
			FileID:     uploaded.ID,
			LocalPath:  uploaded.FullPath,
			ObjectName: uploaded.Path,
			SHA1Hash:   uploaded.SHA1Hash,
			CreatedAt:  time.Now(),
		}
		if err := s.mirror.Enqueue(ctx, task); err != nil {
			utils.LogWarning("Failed to enqueue mirror task for file %s: %v", uploaded.ID.Hex(), err)
		}
	}
	return uploaded, nil
}

// writeToDisk streams the content to its final path while hashing, refusing
// anything beyond the size limit. A partial file is removed on failure.
func (s *FileService) writeToDisk(fullPath string, r io.Reader) (int64, string, error) {
	f, err := os.Create(fullPath)
	if err != nil {
		return 0, "", utils.Internalf(err, "failed to create file on disk")
	}

	hasher := sha1.New()
	written, err := io.Copy(io.MultiWriter(f, hasher), io.LimitReader(r, s.maxFileSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(fullPath)
		return 0, "", utils.Internalf(err, "failed to write file content")
	}
	if written > s.maxFileSize {
		os.Remove(fullPath)
		return 0, "", utils.NewError(utils.KindFileTooLarge,
			"file exceeds the maximum size of %d bytes", s.maxFileSize).
			WithReason("file_too_large")
	}
	return written, hex.EncodeToString(hasher.Sum(nil)), nil
}

// Get returns one file record or NotFound.
func (s *FileService) Get(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	file, err := s.files.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, utils.NotFoundf("file not found")
	}
	return file, nil
}

// Open returns the file record and an open handle on its content. A record
// whose content is missing on disk reports FilesystemInconsistent.
func (s *FileService) Open(ctx context.Context, id primitive.ObjectID) (*models.File, io.ReadCloser, error) {
	file, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(file.FullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, utils.WrapError(utils.KindFilesystemInconsistent, err,
				"file record exists but the content is missing on disk").
				WithReason("content_missing")
		}
		return nil, nil, utils.Internalf(err, "failed to open file content")
	}
	return file, f, nil
}

// List runs one of the supported file queries; extension matching is
// normalized to lowercase without the dot.
func (s *FileService) List(ctx context.Context, q FileQuery) ([]models.File, error) {
	switch {
	case q.Pattern != "":
		return s.files.FindByNamePattern(ctx, q.Pattern, q.DirectoryID)
	case q.Mime != "":
		return s.files.FindByMime(ctx, q.Mime, q.DirectoryID)
	case q.Extension != "":
		return s.files.FindByExtension(ctx, utils.FileExtension("x."+q.Extension), q.DirectoryID)
	case q.DirectoryID != nil:
		dir, err := s.dirs.FindByID(ctx, *q.DirectoryID)
		if err != nil {
			return nil, err
		}
		if dir == nil {
			return nil, utils.NotFoundf("directory not found")
		}
		return s.files.FindByDirectory(ctx, dir.ID)
	default:
		return nil, utils.Validationf("at least one of directory_id, pattern, mime or extension is required")
	}
}

// Delete removes the record inside a transaction, then the content on disk.
// Missing content is tolerated; any other disk failure surfaces as
// FilesystemInconsistent after the record is already gone.
func (s *FileService) Delete(ctx context.Context, actor string, id primitive.ObjectID) error {
	var removePath string
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		file, err := s.files.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if file == nil {
			return utils.NotFoundf("file not found")
		}

		if err := s.files.Delete(txCtx, file.ID); err != nil {
			return err
		}
		if s.mirror != nil {
			if err := s.mirror.DeleteByFile(txCtx, file.ID); err != nil {
				return err
			}
		}
		if err := s.audits.Insert(txCtx, newEvent(txCtx, actor, models.AuditFileDelete,
			"file", file.ID.Hex(), map[string]interface{}{"path": file.Path})); err != nil {
			return err
		}

		removePath = file.FullPath
		return nil
	})
	if err != nil {
		return err
	}

	if err := os.Remove(removePath); err != nil && !os.IsNotExist(err) {
		return utils.WrapError(utils.KindFilesystemInconsistent, err,
			"file record removed but the content could not be deleted").
			WithReason("filesystem_cleanup_failed")
	}
	return nil
}
