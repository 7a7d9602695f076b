package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"docuvault/models"
	"docuvault/utils"
)

// DirectoryService owns the compound operations that keep database state and
// the on-disk tree in agreement. Every mutation runs in one transaction; the
// on-disk step happens inside the transaction callback so a disk failure
// aborts the database writes. Delete is the exception (see Delete).
type DirectoryService struct {
	dirs   DirectoryStore
	files  FileStore
	perms  PermissionStore
	audits AuditStore
	tx     TxRunner
	base   string
}

func NewDirectoryService(dirs DirectoryStore, files FileStore, perms PermissionStore, audits AuditStore, tx TxRunner, basePath string) *DirectoryService {
	return &DirectoryService{
		dirs:   dirs,
		files:  files,
		perms:  perms,
		audits: audits,
		tx:     tx,
		base:   basePath,
	}
}

type CreateDirectoryRequest struct {
	Name        string
	ParentID    *primitive.ObjectID
	Description string
	Metadata    map[string]interface{}
}

type UpdateDirectoryRequest struct {
	Name        *string
	Description *string
	Metadata    map[string]interface{}
}

// DirectorySummary is a directory with its direct content counts, for
// listing endpoints.
type DirectorySummary struct {
	models.Directory
	FileCount         int64 `json:"file_count"`
	SubdirectoryCount int64 `json:"subdirectory_count"`
}

// DirectoryStats aggregates the contents of one directory.
type DirectoryStats struct {
	FileCount         int64 `json:"file_count"`
	SubdirectoryCount int64 `json:"subdirectory_count"`
	TotalSize         int64 `json:"total_size"`
}

// Create validates the name, resolves the parent, and creates the directory
// in the database and on disk. The record is inserted first; MkdirAll is
// idempotent and a disk failure rolls the insert back.
func (s *DirectoryService) Create(ctx context.Context, actor string, req CreateDirectoryRequest) (*models.Directory, error) {
	if err := utils.ValidateDirectoryName(req.Name); err != nil {
		return nil, err
	}

	var created *models.Directory
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		parentPath := models.RootPath
		var level int32
		if req.ParentID != nil {
			parent, err := s.dirs.FindByID(txCtx, *req.ParentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return utils.NotFoundf("parent directory not found")
			}
			parentPath = parent.RelPath()
			level = parent.Level + 1
		}

		exists, err := s.dirs.ExistsNameInParent(txCtx, req.Name, req.ParentID)
		if err != nil {
			return err
		}
		if exists {
			return utils.Conflictf("directory %q already exists at this location", req.Name).
				WithReason("duplicate_name")
		}

		relPath, err := parentPath.Join(req.Name)
		if err != nil {
			return utils.WrapError(utils.KindValidation, err, "invalid directory name")
		}

		siblings, err := s.dirs.CountChildren(txCtx, req.ParentID)
		if err != nil {
			return err
		}

		now := time.Now()
		dir := &models.Directory{
			ID:          primitive.NewObjectID(),
			Name:        req.Name,
			Path:        relPath.String(),
			FullPath:    s.fullPath(relPath.String()),
			ParentID:    req.ParentID,
			Level:       level,
			SortOrder:   int32(siblings),
			Description: req.Description,
			Metadata:    req.Metadata,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := s.dirs.Save(txCtx, dir); err != nil {
			return err
		}
		if err := os.MkdirAll(dir.FullPath, 0o755); err != nil {
			return utils.Internalf(err, "failed to create directory on disk")
		}

		if err := s.audits.Insert(txCtx, newEvent(txCtx, actor, models.AuditDirectoryCreate,
			"directory", dir.ID.Hex(), map[string]interface{}{"path": dir.Path})); err != nil {
			return err
		}

		created = dir
		return nil
	})
	return created, err
}

// Get returns one directory or NotFound.
func (s *DirectoryService) Get(ctx context.Context, id primitive.ObjectID) (*models.Directory, error) {
	dir, err := s.dirs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dir == nil {
		return nil, utils.NotFoundf("directory not found")
	}
	return dir, nil
}

// ListChildren returns the direct children of a parent (or the roots) with
// their content counts, ordered by (sort_order, name).
func (s *DirectoryService) ListChildren(ctx context.Context, parentID *primitive.ObjectID) ([]DirectorySummary, error) {
	if parentID != nil {
		if _, err := s.Get(ctx, *parentID); err != nil {
			return nil, err
		}
	}

	children, err := s.dirs.FindByParent(ctx, parentID)
	if err != nil {
		return nil, err
	}

	summaries := make([]DirectorySummary, 0, len(children))
	for _, child := range children {
		fileCount, err := s.files.CountByDirectory(ctx, child.ID)
		if err != nil {
			return nil, err
		}
		childID := child.ID
		subCount, err := s.dirs.CountChildren(ctx, &childID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, DirectorySummary{
			Directory:         child,
			FileCount:         fileCount,
			SubdirectoryCount: subCount,
		})
	}
	return summaries, nil
}

// Update renames a directory and/or changes its description and metadata.
// A rename cascades new paths to every descendant directory and file in the
// same transaction, then renames the tree on disk.
func (s *DirectoryService) Update(ctx context.Context, actor string, id primitive.ObjectID, req UpdateDirectoryRequest) (*models.Directory, error) {
	if req.Name != nil {
		if err := utils.ValidateDirectoryName(*req.Name); err != nil {
			return nil, err
		}
	}

	var updated *models.Directory
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		dir, err := s.dirs.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if dir == nil {
			return utils.NotFoundf("directory not found")
		}

		now := time.Now()
		renamed := req.Name != nil && *req.Name != dir.Name
		if req.Description != nil {
			dir.Description = *req.Description
		}
		if req.Metadata != nil {
			dir.Metadata = req.Metadata
		}

		if !renamed {
			// Renaming to the current name is a no-op for paths.
			dir.UpdatedAt = now
			if err := s.dirs.Save(txCtx, dir); err != nil {
				return err
			}
			if err := s.audits.Insert(txCtx, newEvent(txCtx, actor, models.AuditDirectoryUpdate,
				"directory", dir.ID.Hex(), map[string]interface{}{"path": dir.Path})); err != nil {
				return err
			}
			updated = dir
			return nil
		}

		newName := *req.Name
		exists, err := s.dirs.ExistsNameInParent(txCtx, newName, dir.ParentID)
		if err != nil {
			return err
		}
		if exists {
			return utils.Conflictf("directory %q already exists at this location", newName).
				WithReason("duplicate_name")
		}

		oldPath := dir.Path
		oldFullPath := dir.FullPath
		newRel, err := dir.RelPath().Parent().Join(newName)
		if err != nil {
			return utils.WrapError(utils.KindValidation, err, "invalid directory name")
		}

		dir.Name = newName
		dir.Path = newRel.String()
		dir.FullPath = s.fullPath(dir.Path)
		dir.UpdatedAt = now
		if err := s.dirs.Save(txCtx, dir); err != nil {
			return err
		}

		if err := s.cascadePaths(txCtx, oldPath, dir.Path, 0, now); err != nil {
			return err
		}

		if err := os.Rename(oldFullPath, dir.FullPath); err != nil {
			return utils.Internalf(err, "failed to rename directory on disk")
		}

		if err := s.audits.Insert(txCtx, newEvent(txCtx, actor, models.AuditDirectoryRename,
			"directory", dir.ID.Hex(), map[string]interface{}{
				"old_path": oldPath,
				"new_path": dir.Path,
			})); err != nil {
			return err
		}

		updated = dir
		return nil
	})
	return updated, err
}

// Move reparents a directory. Moving under itself or any of its descendants
// is rejected as a cycle before anything is written.
func (s *DirectoryService) Move(ctx context.Context, actor string, id primitive.ObjectID, newParentID *primitive.ObjectID) (*models.Directory, error) {
	var moved *models.Directory
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		dir, err := s.dirs.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if dir == nil {
			return utils.NotFoundf("directory not found")
		}

		if sameParent(dir.ParentID, newParentID) {
			moved = dir
			return nil
		}

		parentPath := models.RootPath
		var newLevel int32
		if newParentID != nil {
			if *newParentID == dir.ID {
				return utils.Cyclef("cannot move a directory under itself").
					WithReason("move_cycle")
			}
			newParent, err := s.dirs.FindByID(txCtx, *newParentID)
			if err != nil {
				return err
			}
			if newParent == nil {
				return utils.NotFoundf("new parent directory not found")
			}
			if newParent.RelPath().IsChildOf(dir.RelPath()) {
				return utils.Cyclef("cannot move a directory under its own descendant").
					WithReason("move_cycle")
			}
			parentPath = newParent.RelPath()
			newLevel = newParent.Level + 1
		}

		exists, err := s.dirs.ExistsNameInParent(txCtx, dir.Name, newParentID)
		if err != nil {
			return err
		}
		if exists {
			return utils.Conflictf("directory %q already exists at the destination", dir.Name).
				WithReason("duplicate_name")
		}

		newRel, err := parentPath.Join(dir.Name)
		if err != nil {
			return utils.WrapError(utils.KindValidation, err, "invalid directory name")
		}

		siblings, err := s.dirs.CountChildren(txCtx, newParentID)
		if err != nil {
			return err
		}

		oldPath := dir.Path
		oldFullPath := dir.FullPath
		levelDelta := newLevel - dir.Level

		now := time.Now()
		dir.ParentID = newParentID
		dir.Path = newRel.String()
		dir.FullPath = s.fullPath(dir.Path)
		dir.Level = newLevel
		dir.SortOrder = int32(siblings)
		dir.UpdatedAt = now
		if err := s.dirs.Save(txCtx, dir); err != nil {
			return err
		}

		if err := s.cascadePaths(txCtx, oldPath, dir.Path, levelDelta, now); err != nil {
			return err
		}

		if err := os.Rename(oldFullPath, dir.FullPath); err != nil {
			return utils.Internalf(err, "failed to move directory on disk")
		}

		meta := map[string]interface{}{
			"old_path": oldPath,
			"new_path": dir.Path,
		}
		if newParentID != nil {
			meta["new_parent_id"] = newParentID.Hex()
		}
		if err := s.audits.Insert(txCtx, newEvent(txCtx, actor, models.AuditDirectoryMove,
			"directory", dir.ID.Hex(), meta)); err != nil {
			return err
		}

		moved = dir
		return nil
	})
	return moved, err
}

// Reorder assigns dense sort orders to one parent's children following the
// given id order. The list must contain every sibling exactly once.
func (s *DirectoryService) Reorder(ctx context.Context, actor string, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return utils.Validationf("no directory ids given")
	}

	return s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		first, err := s.dirs.FindByID(txCtx, ids[0])
		if err != nil {
			return err
		}
		if first == nil {
			return utils.NotFoundf("directory not found")
		}

		siblings, err := s.dirs.FindByParent(txCtx, first.ParentID)
		if err != nil {
			return err
		}
		if len(siblings) != len(ids) {
			return utils.Validationf("reorder list must contain each of the %d siblings exactly once", len(siblings)).
				WithReason("incomplete_sibling_set")
		}

		siblingSet := make(map[primitive.ObjectID]bool, len(siblings))
		for _, sib := range siblings {
			siblingSet[sib.ID] = true
		}

		seen := make(map[primitive.ObjectID]bool, len(ids))
		updates := make([]models.SortOrderUpdate, 0, len(ids))
		for i, dirID := range ids {
			if seen[dirID] {
				return utils.Validationf("duplicate directory id in reorder list").
					WithReason("duplicate_id")
			}
			seen[dirID] = true
			if !siblingSet[dirID] {
				return utils.Validationf("directory %s is not a child of the same parent", dirID.Hex()).
					WithReason("not_a_sibling")
			}
			updates = append(updates, models.SortOrderUpdate{ID: dirID, SortOrder: int32(i)})
		}

		if err := s.dirs.UpdateSortOrders(txCtx, updates, time.Now()); err != nil {
			return err
		}

		resourceID := "root"
		if first.ParentID != nil {
			resourceID = first.ParentID.Hex()
		}
		order := make([]string, 0, len(ids))
		for _, dirID := range ids {
			order = append(order, dirID.Hex())
		}
		return s.audits.Insert(txCtx, newEvent(txCtx, actor, models.AuditDirectoryReorder,
			"directory", resourceID, map[string]interface{}{"order": order}))
	})
}

// Delete removes a directory. Without force it fails on any content; with
// force it removes the whole subtree, its files and its permission configs,
// emitting one audit event per removed record. Database removal commits
// first; if the on-disk removal then fails the error surfaces as
// FilesystemInconsistent and reconciliation is left to the operator.
func (s *DirectoryService) Delete(ctx context.Context, actor string, id primitive.ObjectID, force bool) error {
	var removePath string
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		dir, err := s.dirs.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if dir == nil {
			return utils.NotFoundf("directory not found")
		}

		dirID := dir.ID
		subCount, err := s.dirs.CountChildren(txCtx, &dirID)
		if err != nil {
			return err
		}
		fileCount, err := s.files.CountByDirectory(txCtx, dirID)
		if err != nil {
			return err
		}
		if !force && (subCount > 0 || fileCount > 0) {
			return utils.Conflictf("directory is not empty: %d subdirectories, %d files", subCount, fileCount).
				WithReason("directory_not_empty")
		}

		descendants, err := s.dirs.FindDescendants(txCtx, dir.Path)
		if err != nil {
			return err
		}

		// Victims deepest first so the per-directory audit trail reads
		// bottom-up, matching the removal order.
		victims := make([]models.Directory, 0, len(descendants)+1)
		for i := len(descendants) - 1; i >= 0; i-- {
			victims = append(victims, descendants[i])
		}
		victims = append(victims, *dir)

		victimIDs := make([]primitive.ObjectID, 0, len(victims))
		for _, v := range victims {
			victimIDs = append(victimIDs, v.ID)
		}

		victimFiles, err := s.files.FindByDirectories(txCtx, victimIDs)
		if err != nil {
			return err
		}

		if _, err := s.files.DeleteByDirectories(txCtx, victimIDs); err != nil {
			return err
		}
		if err := s.dirs.DeleteMany(txCtx, victimIDs); err != nil {
			return err
		}
		if err := s.perms.DeleteByDirectories(txCtx, victimIDs); err != nil {
			return err
		}

		events := make([]models.AuditEvent, 0, len(victims)+len(victimFiles))
		for _, f := range victimFiles {
			events = append(events, *newEvent(txCtx, actor, models.AuditFileDelete,
				"file", f.ID.Hex(), map[string]interface{}{"path": f.Path}))
		}
		for _, v := range victims {
			events = append(events, *newEvent(txCtx, actor, models.AuditDirectoryDelete,
				"directory", v.ID.Hex(), map[string]interface{}{"path": v.Path, "forced": force}))
		}
		if err := s.audits.InsertMany(txCtx, events); err != nil {
			return err
		}

		removePath = dir.FullPath
		return nil
	})
	if err != nil {
		return err
	}

	if err := os.RemoveAll(removePath); err != nil {
		return utils.WrapError(utils.KindFilesystemInconsistent, err,
			"directory records removed but the on-disk tree could not be deleted").
			WithReason("filesystem_cleanup_failed")
	}
	return nil
}

// Tree builds the full directory forest from one query.
func (s *DirectoryService) Tree(ctx context.Context) ([]*models.DirectoryTreeNode, error) {
	all, err := s.dirs.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make(map[primitive.ObjectID]*models.DirectoryTreeNode, len(all))
	roots := make([]*models.DirectoryTreeNode, 0)

	// FindAll returns level-major order, so a parent always precedes its
	// children here.
	for _, dir := range all {
		node := &models.DirectoryTreeNode{Directory: dir, Children: []*models.DirectoryTreeNode{}}
		nodes[dir.ID] = node
		if dir.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*dir.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		}
	}
	return roots, nil
}

// PathChain returns the ancestor chain root→self, resolved with one query
// over the materialized path prefixes.
func (s *DirectoryService) PathChain(ctx context.Context, id primitive.ObjectID) ([]models.Directory, error) {
	dir, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return resolveChain(ctx, s.dirs, dir)
}

// Stats aggregates one directory's direct contents.
func (s *DirectoryService) Stats(ctx context.Context, id primitive.ObjectID) (*DirectoryStats, error) {
	dir, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	dirID := dir.ID
	fileCount, err := s.files.CountByDirectory(ctx, dirID)
	if err != nil {
		return nil, err
	}
	subCount, err := s.dirs.CountChildren(ctx, &dirID)
	if err != nil {
		return nil, err
	}
	totalSize, err := s.files.TotalSizeByDirectory(ctx, dirID)
	if err != nil {
		return nil, err
	}
	return &DirectoryStats{
		FileCount:         fileCount,
		SubdirectoryCount: subCount,
		TotalSize:         totalSize,
	}, nil
}

// cascadePaths rewrites the materialized paths of every descendant directory
// and file by prefix substitution, batched but inside the caller's
// transaction.
func (s *DirectoryService) cascadePaths(ctx context.Context, oldPrefix, newPrefix string, levelDelta int32, now time.Time) error {
	descendants, err := s.dirs.FindDescendants(ctx, oldPrefix)
	if err != nil {
		return err
	}
	dirUpdates := make([]models.PathUpdate, 0, len(descendants))
	for _, d := range descendants {
		newPath := newPrefix + strings.TrimPrefix(d.Path, oldPrefix)
		dirUpdates = append(dirUpdates, models.PathUpdate{
			ID:       d.ID,
			Path:     newPath,
			FullPath: s.fullPath(newPath),
			Level:    d.Level + levelDelta,
		})
	}
	if err := s.dirs.UpdatePaths(ctx, dirUpdates, now); err != nil {
		return err
	}

	descendantFiles, err := s.files.FindByPathPrefix(ctx, oldPrefix)
	if err != nil {
		return err
	}
	fileUpdates := make([]models.FilePathUpdate, 0, len(descendantFiles))
	for _, f := range descendantFiles {
		newPath := newPrefix + strings.TrimPrefix(f.Path, oldPrefix)
		fileUpdates = append(fileUpdates, models.FilePathUpdate{
			ID:       f.ID,
			Path:     newPath,
			FullPath: s.fullPath(newPath),
		})
	}
	return s.files.UpdatePaths(ctx, fileUpdates, now)
}

func (s *DirectoryService) fullPath(relPath string) string {
	return filepath.Join(s.base, filepath.FromSlash(relPath))
}

func sameParent(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// resolveChain loads the ancestor chain root→self for a directory using its
// materialized path, one query for the whole chain.
func resolveChain(ctx context.Context, dirs DirectoryStore, dir *models.Directory) ([]models.Directory, error) {
	parts := dir.RelPath().Parts()
	paths := make([]string, 0, len(parts))
	prefix := ""
	for _, part := range parts {
		if prefix == "" {
			prefix = part
		} else {
			prefix = prefix + "/" + part
		}
		paths = append(paths, prefix)
	}

	chain, err := dirs.FindByPaths(ctx, paths)
	if err != nil {
		return nil, err
	}
	return chain, nil
}
