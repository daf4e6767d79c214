package api

import (
	"bytes"
	"errors"

	"com.aviebrantz.studio-site/pkg/core/store/collection"
	"com.aviebrantz.studio-site/pkg/core/store/contacts"
	"com.aviebrantz.studio-site/pkg/core/store/files"
	"com.aviebrantz.studio-site/pkg/core/store/projects"
	"github.com/gofiber/fiber"
)

type indexPage struct {
	Projects []projects.Project
	Contacts []contacts.Contact
}

// getIndex renders the public page. Store failures render an empty page.
func (as *ApiServer) getIndex(ctx *fiber.Ctx) {
	page := indexPage{}

	list, err := as.projectStore.List(ctx.Context())
	if err != nil {
		as.logger.Errorf("err fetching projects: %v", err)
	} else {
		page.Projects = list
	}

	contactList, err := as.contactStore.List(ctx.Context())
	if err != nil {
		as.logger.Errorf("err fetching contact details: %v", err)
	} else {
		page.Contacts = contactList
	}

	as.render(ctx, "index.html", page)
}

func (as *ApiServer) getProjects(ctx *fiber.Ctx) {
	list, err := as.projectStore.List(ctx.Context())
	if err != nil {
		ctx.Status(fiber.StatusInternalServerError)
		ctx.JSON(fiber.Map{"message": err.Error()})
		return
	}

	ctx.JSON(list)
}

func (as *ApiServer) getProject(ctx *fiber.Ctx) {
	project, err := as.projectStore.Get(ctx.Context(), ctx.Params("id"))
	if errors.Is(err, collection.ErrNotFound) {
		ctx.Status(fiber.StatusNotFound)
		ctx.JSON(fiber.Map{"message": "not found"})
		return
	}
	if err != nil {
		ctx.Status(fiber.StatusInternalServerError)
		ctx.JSON(fiber.Map{"message": err.Error()})
		return
	}

	ctx.JSON(project)
}

func (as *ApiServer) getContacts(ctx *fiber.Ctx) {
	list, err := as.contactStore.List(ctx.Context())
	if err != nil {
		ctx.Status(fiber.StatusInternalServerError)
		ctx.JSON(fiber.Map{"message": err.Error()})
		return
	}

	ctx.JSON(list)
}

// getFile serves a stored image by its file id.
func (as *ApiServer) getFile(ctx *fiber.Ctx) {
	file, err := as.fileStore.Open(ctx.Context(), ctx.Params("fileID"))
	if errors.Is(err, files.ErrNotFound) {
		ctx.Status(fiber.StatusNotFound)
		ctx.JSON(fiber.Map{"message": "not found"})
		return
	}
	if err != nil {
		as.logger.Errorf("err reading file: %v", err)
		ctx.Status(fiber.StatusInternalServerError)
		ctx.JSON(fiber.Map{"message": "could not read file"})
		return
	}

	ctx.Set("Content-Type", file.ContentType)
	ctx.Set("Cache-Control", "public, max-age=86400")
	ctx.SendBytes(file.Data)
}

func (as *ApiServer) render(ctx *fiber.Ctx, name string, data interface{}) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		as.logger.Errorf("err rendering %s: %v", name, err)
		ctx.Status(fiber.StatusInternalServerError)
		ctx.SendString("could not render page")
		return
	}
	ctx.Set("Content-Type", "text/html; charset=utf-8")
	ctx.SendBytes(buf.Bytes())
}
