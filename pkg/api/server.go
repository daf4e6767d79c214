package api

import (
	"crypto/tls"
	"net/url"
	"strconv"

	"com.aviebrantz.studio-site/pkg/auth"
	"com.aviebrantz.studio-site/pkg/backend"
	"com.aviebrantz.studio-site/pkg/config"
	"com.aviebrantz.studio-site/pkg/core/store/contacts"
	"com.aviebrantz.studio-site/pkg/core/store/files"
	"com.aviebrantz.studio-site/pkg/core/store/projects"
	"com.aviebrantz.studio-site/pkg/panel"
	"com.aviebrantz.studio-site/pkg/util"
	"github.com/apex/log"
	"github.com/gofiber/fiber"
)

type ApiServer struct {
	projectStore *projects.ProjectCollection
	contactStore *contacts.ContactCollection
	fileStore    files.FileStore
	auth         *auth.Service
	panels       *panel.Registry
	config       config.APIServerConfig
	logger       *log.Entry
	app          *fiber.App
}

func NewServer(
	client *backend.Client,
	authService *auth.Service,
	panels *panel.Registry,
	config config.APIServerConfig,
) *ApiServer {
	as := &ApiServer{
		projectStore: client.Projects,
		contactStore: client.Contacts,
		fileStore:    client.Files,
		auth:         authService,
		panels:       panels,
		config:       config,
		logger:       log.WithField("module", "api"),
	}

	// Immutable: request values end up in panel drafts that outlive
	// the request buffers.
	app := fiber.New(&fiber.Settings{
		BodyLimit:             config.BodyLimit,
		Immutable:             true,
		DisableStartupMessage: true,
	})
	app.Use(as.recordMetrics)

	app.Get("/", as.getIndex)
	app.Get("/api/projects", as.getProjects)
	app.Get("/api/projects/:id", as.getProject)
	app.Get("/api/contacts", as.getContacts)
	app.Get("/files/:fileID", as.getFile)

	app.Get("/admin", as.getAdmin)
	app.Post("/admin/login", as.login)
	app.Post("/admin/logout", as.logout)

	admin := app.Group("/admin", as.requireSession)
	admin.Get("/state", as.getState)
	admin.Post("/projects/refresh", as.refreshProjects)
	admin.Post("/projects/new", as.newDraft)
	admin.Post("/projects/:id/select", as.selectProject)
	admin.Post("/projects/:id/image-loaded", as.imageLoaded)
	admin.Post("/projects/:id/delete", as.deleteProject)
	admin.Post("/draft/image", as.uploadImage)
	admin.Post("/draft/image/discard", as.discardImage)
	admin.Post("/draft/save", as.saveDraft)

	as.app = app
	return as
}

// App exposes the router, mostly for app.Test.
func (as *ApiServer) App() *fiber.App {
	return as.app
}

// Start blocks serving HTTP, or HTTPS when TLS is enabled.
func (as *ApiServer) Start() error {
	addr := ":" + strconv.Itoa(as.config.Port)
	if !as.config.TLS.Enabled {
		as.logger.Infof("listening on %s", addr)
		return as.app.Listen(addr)
	}

	cert, err := util.ServerCertificate(as.config.TLS, as.publicHost())
	if err != nil {
		return err
	}
	as.logger.Infof("listening on %s (tls)", addr)
	return as.app.Listen(addr, &tls.Config{
		Certificates: []tls.Certificate{*cert},
		MinVersion:   tls.VersionTLS12,
	})
}

func (as *ApiServer) Shutdown() error {
	return as.app.Shutdown()
}

func (as *ApiServer) publicHost() string {
	if u, err := url.Parse(as.config.PublicURL); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return "localhost"
}
