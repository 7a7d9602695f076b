package routes

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gin-gonic/gin"

	"docuvault/services"
	"docuvault/stores"
)

// ServiceContainer holds the wired services and shared dependencies.
type ServiceContainer struct {
	DB                *mongo.Database
	JWTSecret         string
	DirectoryService  *services.DirectoryService
	FileService       *services.FileService
	PermissionService *services.PermissionService
	AuditService      *services.AuditService
	MirrorQueue       services.MirrorQueue
}

// NewServiceContainer builds the store and service graph on one database
// handle. The mirror queue is wired into uploads here; the B2 drain job is
// started separately by main when mirroring is configured.
func NewServiceContainer(client *mongo.Client, db *mongo.Database, jwtSecret, storageBasePath string, maxFileSize int64, mirrorEnabled bool) *ServiceContainer {
	dirStore := stores.NewDirectoryStore(db)
	fileStore := stores.NewFileStore(db)
	permStore := stores.NewPermissionStore(db)
	auditStore := stores.NewAuditStore(db)
	tx := stores.NewMongoTxRunner(client)

	var mirror services.MirrorQueue
	if mirrorEnabled {
		mirror = stores.NewMirrorStore(db)
	}

	return &ServiceContainer{
		DB:                db,
		JWTSecret:         jwtSecret,
		DirectoryService:  services.NewDirectoryService(dirStore, fileStore, permStore, auditStore, tx, storageBasePath),
		FileService:       services.NewFileService(fileStore, dirStore, auditStore, mirror, tx, storageBasePath, maxFileSize),
		PermissionService: services.NewPermissionService(permStore, dirStore, auditStore, tx),
		AuditService:      services.NewAuditService(auditStore),
		MirrorQueue:       mirror,
	}
}

// SetupRoutes registers every route group under the api group.
func SetupRoutes(api *gin.RouterGroup, container *ServiceContainer) {
	RegisterDirectoryRoutes(api, container.JWTSecret, container.DirectoryService)
	RegisterFileRoutes(api, container.JWTSecret, container.FileService)
	RegisterPermissionRoutes(api, container.JWTSecret, container.PermissionService)
	RegisterAuditRoutes(api, container.JWTSecret, container.AuditService)
}
