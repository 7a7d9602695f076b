package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"docuvault/models"
	"docuvault/utils"
)

// In-memory store fakes backing the service tests. They reproduce the
// ordering and uniqueness behavior of the MongoDB stores closely enough for
// the service logic to be exercised without a database.

type memTxRunner struct{}

func (memTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memDirectoryStore struct {
	dirs map[primitive.ObjectID]models.Directory
}

func newMemDirectoryStore() *memDirectoryStore {
	return &memDirectoryStore{dirs: make(map[primitive.ObjectID]models.Directory)}
}

func (s *memDirectoryStore) Save(ctx context.Context, dir *models.Directory) error {
	s.dirs[dir.ID] = *dir
	return nil
}

func (s *memDirectoryStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Directory, error) {
	if dir, ok := s.dirs[id]; ok {
		return &dir, nil
	}
	return nil, nil
}

func (s *memDirectoryStore) FindByPath(ctx context.Context, path string) (*models.Directory, error) {
	for _, dir := range s.dirs {
		if dir.Path == path {
			d := dir
			return &d, nil
		}
	}
	return nil, nil
}

func (s *memDirectoryStore) FindByPaths(ctx context.Context, paths []string) ([]models.Directory, error) {
	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[p] = true
	}
	var out []models.Directory
	for _, dir := range s.dirs {
		if want[dir.Path] {
			out = append(out, dir)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (s *memDirectoryStore) FindByParent(ctx context.Context, parentID *primitive.ObjectID) ([]models.Directory, error) {
	var out []models.Directory
	for _, dir := range s.dirs {
		if sameParent(dir.ParentID, parentID) {
			out = append(out, dir)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *memDirectoryStore) FindDescendants(ctx context.Context, path string) ([]models.Directory, error) {
	prefix := path + "/"
	var out []models.Directory
	for _, dir := range s.dirs {
		if strings.HasPrefix(dir.Path, prefix) {
			out = append(out, dir)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

func (s *memDirectoryStore) FindAll(ctx context.Context) ([]models.Directory, error) {
	out := make([]models.Directory, 0, len(s.dirs))
	for _, dir := range s.dirs {
		out = append(out, dir)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *memDirectoryStore) ExistsNameInParent(ctx context.Context, name string, parentID *primitive.ObjectID) (bool, error) {
	for _, dir := range s.dirs {
		if dir.Name == name && sameParent(dir.ParentID, parentID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memDirectoryStore) CountChildren(ctx context.Context, parentID *primitive.ObjectID) (int64, error) {
	var n int64
	for _, dir := range s.dirs {
		if sameParent(dir.ParentID, parentID) {
			n++
		}
	}
	return n, nil
}

func (s *memDirectoryStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := s.dirs[id]; !ok {
		return utils.NotFoundf("directory not found")
	}
	delete(s.dirs, id)
	return nil
}

func (s *memDirectoryStore) DeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	for _, id := range ids {
		delete(s.dirs, id)
	}
	return nil
}

func (s *memDirectoryStore) UpdateSortOrders(ctx context.Context, updates []models.SortOrderUpdate, updatedAt time.Time) error {
	for _, u := range updates {
		dir, ok := s.dirs[u.ID]
		if !ok {
			continue
		}
		dir.SortOrder = u.SortOrder
		dir.UpdatedAt = updatedAt
		s.dirs[u.ID] = dir
	}
	return nil
}

func (s *memDirectoryStore) UpdatePaths(ctx context.Context, updates []models.PathUpdate, updatedAt time.Time) error {
	for _, u := range updates {
		dir, ok := s.dirs[u.ID]
		if !ok {
			continue
		}
		dir.Path = u.Path
		dir.FullPath = u.FullPath
		dir.Level = u.Level
		dir.UpdatedAt = updatedAt
		s.dirs[u.ID] = dir
	}
	return nil
}

type memFileStore struct {
	files map[primitive.ObjectID]models.File
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: make(map[primitive.ObjectID]models.File)}
}

func (s *memFileStore) Save(ctx context.Context, file *models.File) error {
	s.files[file.ID] = *file
	return nil
}

func (s *memFileStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	if f, ok := s.files[id]; ok {
		return &f, nil
	}
	return nil, nil
}

func (s *memFileStore) FindByDirectory(ctx context.Context, directoryID primitive.ObjectID) ([]models.File, error) {
	return s.filter(func(f models.File) bool { return f.DirectoryID == directoryID }), nil
}

func (s *memFileStore) FindByDirectories(ctx context.Context, directoryIDs []primitive.ObjectID) ([]models.File, error) {
	want := make(map[primitive.ObjectID]bool, len(directoryIDs))
	for _, id := range directoryIDs {
		want[id] = true
	}
	return s.filter(func(f models.File) bool { return want[f.DirectoryID] }), nil
}

func (s *memFileStore) FindByNamePattern(ctx context.Context, pattern string, directoryID *primitive.ObjectID) ([]models.File, error) {
	needle := strings.ToLower(pattern)
	return s.filter(func(f models.File) bool {
		if directoryID != nil && f.DirectoryID != *directoryID {
			return false
		}
		return strings.Contains(strings.ToLower(f.OriginalName), needle)
	}), nil
}

func (s *memFileStore) FindByMime(ctx context.Context, mime string, directoryID *primitive.ObjectID) ([]models.File, error) {
	return s.filter(func(f models.File) bool {
		if directoryID != nil && f.DirectoryID != *directoryID {
			return false
		}
		return f.Mime == mime
	}), nil
}

func (s *memFileStore) FindByExtension(ctx context.Context, ext string, directoryID *primitive.ObjectID) ([]models.File, error) {
	return s.filter(func(f models.File) bool {
		if directoryID != nil && f.DirectoryID != *directoryID {
			return false
		}
		return f.Extension == ext
	}), nil
}

func (s *memFileStore) FindByPathPrefix(ctx context.Context, prefix string) ([]models.File, error) {
	p := prefix + "/"
	return s.filter(func(f models.File) bool { return strings.HasPrefix(f.Path, p) }), nil
}

func (s *memFileStore) ExistsByNameInDirectory(ctx context.Context, name string, directoryID primitive.ObjectID) (bool, error) {
	for _, f := range s.files {
		if f.DirectoryID == directoryID && (f.Name == name || f.OriginalName == name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memFileStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := s.files[id]; !ok {
		return utils.NotFoundf("file not found")
	}
	delete(s.files, id)
	return nil
}

func (s *memFileStore) DeleteByDirectory(ctx context.Context, directoryID primitive.ObjectID) (int64, error) {
	return s.DeleteByDirectories(ctx, []primitive.ObjectID{directoryID})
}

func (s *memFileStore) DeleteByDirectories(ctx context.Context, directoryIDs []primitive.ObjectID) (int64, error) {
	want := make(map[primitive.ObjectID]bool, len(directoryIDs))
	for _, id := range directoryIDs {
		want[id] = true
	}
	var n int64
	for id, f := range s.files {
		if want[f.DirectoryID] {
			delete(s.files, id)
			n++
		}
	}
	return n, nil
}

func (s *memFileStore) CountByDirectory(ctx context.Context, directoryID primitive.ObjectID) (int64, error) {
	var n int64
	for _, f := range s.files {
		if f.DirectoryID == directoryID {
			n++
		}
	}
	return n, nil
}

func (s *memFileStore) TotalSizeByDirectory(ctx context.Context, directoryID primitive.ObjectID) (int64, error) {
	var total int64
	for _, f := range s.files {
		if f.DirectoryID == directoryID {
			total += f.Size
		}
	}
	return total, nil
}

func (s *memFileStore) UpdatePaths(ctx context.Context, updates []models.FilePathUpdate, updatedAt time.Time) error {
	for _, u := range updates {
		f, ok := s.files[u.ID]
		if !ok {
			continue
		}
		f.Path = u.Path
		f.FullPath = u.FullPath
		f.UpdatedAt = updatedAt
		s.files[u.ID] = f
	}
	return nil
}

func (s *memFileStore) filter(keep func(models.File) bool) []models.File {
	var out []models.File
	for _, f := range s.files {
		if keep(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OriginalName < out[j].OriginalName })
	return out
}

type memPermissionStore struct {
	configs map[primitive.ObjectID]models.PermissionConfig
}

func newMemPermissionStore() *memPermissionStore {
	return &memPermissionStore{configs: make(map[primitive.ObjectID]models.PermissionConfig)}
}

func (s *memPermissionStore) Get(ctx context.Context, directoryID primitive.ObjectID) (*models.PermissionConfig, error) {
	if cfg, ok := s.configs[directoryID]; ok {
		return &cfg, nil
	}
	return nil, nil
}

func (s *memPermissionStore) GetByDirectoryIDs(ctx context.Context, directoryIDs []primitive.ObjectID) ([]models.PermissionConfig, error) {
	var out []models.PermissionConfig
	for _, id := range directoryIDs {
		if cfg, ok := s.configs[id]; ok {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (s *memPermissionStore) Replace(ctx context.Context, directoryID primitive.ObjectID, rules []models.PermissionRule) (*models.PermissionConfig, error) {
	now := time.Now()
	cfg, ok := s.configs[directoryID]
	if !ok {
		cfg = models.PermissionConfig{
			ID:          primitive.NewObjectID(),
			DirectoryID: directoryID,
			CreatedAt:   now,
		}
	}
	cfg.Rules = rules
	cfg.Version++
	cfg.UpdatedAt = now
	s.configs[directoryID] = cfg
	return &cfg, nil
}

func (s *memPermissionStore) Delete(ctx context.Context, directoryID primitive.ObjectID) error {
	if _, ok := s.configs[directoryID]; !ok {
		return utils.NotFoundf("permission config not found")
	}
	delete(s.configs, directoryID)
	return nil
}

func (s *memPermissionStore) DeleteByDirectories(ctx context.Context, directoryIDs []primitive.ObjectID) error {
	for _, id := range directoryIDs {
		delete(s.configs, id)
	}
	return nil
}

type memAuditStore struct {
	events []models.AuditEvent
}

func newMemAuditStore() *memAuditStore { return &memAuditStore{} }

func (s *memAuditStore) Insert(ctx context.Context, event *models.AuditEvent) error {
	s.events = append(s.events, *event)
	return nil
}

func (s *memAuditStore) InsertMany(ctx context.Context, events []models.AuditEvent) error {
	s.events = append(s.events, events...)
	return nil
}

func (s *memAuditStore) Query(ctx context.Context, filter models.AuditFilter) ([]models.AuditEvent, error) {
	var out []models.AuditEvent
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if filter.Actor != "" && e.Actor != filter.Actor {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && e.ResourceType != filter.ResourceType {
			continue
		}
		if filter.ResourceID != "" && e.ResourceID != filter.ResourceID {
			continue
		}
		out = append(out, e)
	}
	if filter.Offset > 0 {
		if filter.Offset >= int64(len(out)) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// byAction returns the recorded events carrying the given action, oldest
// first.
func (s *memAuditStore) byAction(action string) []models.AuditEvent {
	var out []models.AuditEvent
	for _, e := range s.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type memMirrorQueue struct {
	tasks map[primitive.ObjectID]models.MirrorTask
}

func newMemMirrorQueue() *memMirrorQueue {
	return &memMirrorQueue{tasks: make(map[primitive.ObjectID]models.MirrorTask)}
}

func (s *memMirrorQueue) Enqueue(ctx context.Context, task *models.MirrorTask) error {
	s.tasks[task.ID] = *task
	return nil
}

func (s *memMirrorQueue) NextBatch(ctx context.Context, limit int64) ([]models.MirrorTask, error) {
	var out []models.MirrorTask
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memMirrorQueue) MarkDone(ctx context.Context, id primitive.ObjectID) error {
	delete(s.tasks, id)
	return nil
}

func (s *memMirrorQueue) MarkFailed(ctx context.Context, id primitive.ObjectID, cause string) error {
	t, ok := s.tasks[id]
	if !ok {
		return nil
	}
	t.Attempts++
	t.LastError = cause
	s.tasks[id] = t
	return nil
}

func (s *memMirrorQueue) DeleteByFile(ctx context.Context, fileID primitive.ObjectID) error {
	for id, t := range s.tasks {
		if t.FileID == fileID {
			delete(s.tasks, id)
		}
	}
	return nil
}
