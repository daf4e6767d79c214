package api

import (
	"errors"
	"io"
	"time"

	"com.aviebrantz.studio-site/pkg/auth"
	"com.aviebrantz.studio-site/pkg/core/store/sessions"
	"com.aviebrantz.studio-site/pkg/panel"
	"github.com/gofiber/fiber"
)

const (
	sessionCookie = "studio_session"
	localsSession = "session"
)

type loginPage struct {
	Error string
}

type adminPage struct {
	Email string
	Panel panel.Snapshot
}

// getAdmin shows the login form or, for a live session, the panel.
func (as *ApiServer) getAdmin(ctx *fiber.Ctx) {
	gate := auth.NewGate(as.auth, ctx.Cookies(sessionCookie))
	if !gate.Check(ctx.Context()) {
		as.render(ctx, "login.html", loginPage{})
		return
	}

	p := as.panelFor(ctx, gate.Session())
	as.render(ctx, "admin.html", adminPage{
		Email: gate.Session().Email,
		Panel: p.Snapshot(),
	})
}

func (as *ApiServer) login(ctx *fiber.Ctx) {
	gate := auth.NewGate(as.auth, "")
	client := sessions.ClientInfo{
		UserAgent:  ctx.Get("User-Agent"),
		RemoteAddr: ctx.IP(),
	}
	if err := gate.Login(ctx.Context(), ctx.FormValue("email"), ctx.FormValue("password"), client); err != nil {
		ctx.Status(fiber.StatusUnauthorized)
		if wantsJSON(ctx) {
			ctx.JSON(fiber.Map{"message": gate.Error()})
			return
		}
		as.render(ctx, "login.html", loginPage{Error: gate.Error()})
		return
	}

	session := gate.Session()
	ctx.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    gate.Token(),
		Path:     "/",
		Expires:  session.Expires,
		HTTPOnly: true,
		Secure:   as.config.TLS.Enabled,
	})

	if wantsJSON(ctx) {
		ctx.JSON(fiber.Map{"email": session.Email, "expires": session.Expires})
		return
	}
	ctx.Redirect("/admin", fiber.StatusSeeOther)
}

// logout ends the session and drops its panel. A failed logout keeps
// the cookie so the operator is still signed in.
func (as *ApiServer) logout(ctx *fiber.Ctx) {
	gate := auth.NewGate(as.auth, ctx.Cookies(sessionCookie))
	if gate.Check(ctx.Context()) {
		sessionID := gate.Session().ID
		if err := gate.Logout(ctx.Context()); err != nil {
			as.finishLogout(ctx, fiber.StatusInternalServerError)
			return
		}
		as.panels.Drop(sessionID)
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
	})
	as.finishLogout(ctx, fiber.StatusOK)
}

func (as *ApiServer) finishLogout(ctx *fiber.Ctx, status int) {
	if wantsJSON(ctx) {
		ctx.Status(status).JSON(fiber.Map{"authenticated": status != fiber.StatusOK})
		return
	}
	ctx.Redirect("/admin", fiber.StatusSeeOther)
}

// requireSession guards the admin action routes.
func (as *ApiServer) requireSession(ctx *fiber.Ctx) {
	gate := auth.NewGate(as.auth, ctx.Cookies(sessionCookie))
	if !gate.Check(ctx.Context()) {
		if wantsJSON(ctx) {
			ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "not logged in"})
			return
		}
		ctx.Redirect("/admin", fiber.StatusSeeOther)
		return
	}
	ctx.Locals(localsSession, gate.Session())
	ctx.Next()
}

// panelFor returns the session's panel. A new panel loads the project
// list first, like the panel being opened.
func (as *ApiServer) panelFor(ctx *fiber.Ctx, session *sessions.Session) *panel.Panel {
	p, fresh := as.panels.Get(session.ID)
	if fresh {
		_ = p.ListProjects(ctx.Context())
	}
	return p
}

func (as *ApiServer) currentPanel(ctx *fiber.Ctx) *panel.Panel {
	session, _ := ctx.Locals(localsSession).(*sessions.Session)
	return as.panelFor(ctx, session)
}

// respond answers an admin action. Store failures were already logged
// by the panel and are not surfaced; busy and bad input are.
func (as *ApiServer) respond(ctx *fiber.Ctx, p *panel.Panel, err error) {
	status := fiber.StatusOK
	switch {
	case errors.Is(err, panel.ErrBusy):
		status = fiber.StatusConflict
	case errors.Is(err, panel.ErrNoDraft),
		errors.Is(err, panel.ErrDraftIncomplete),
		errors.Is(err, panel.ErrNotImage),
		errors.Is(err, panel.ErrNoImage),
		errors.Is(err, panel.ErrImageAttached):
		status = fiber.StatusBadRequest
	}

	if !wantsJSON(ctx) {
		ctx.Redirect("/admin", fiber.StatusSeeOther)
		return
	}
	if status != fiber.StatusOK {
		ctx.Status(status).JSON(fiber.Map{"message": err.Error(), "panel": p.Snapshot()})
		return
	}
	ctx.JSON(p.Snapshot())
}

func (as *ApiServer) getState(ctx *fiber.Ctx) {
	as.respond(ctx, as.currentPanel(ctx), nil)
}

func (as *ApiServer) refreshProjects(ctx *fiber.Ctx) {
	p := as.currentPanel(ctx)
	as.respond(ctx, p, p.ListProjects(ctx.Context()))
}

func (as *ApiServer) newDraft(ctx *fiber.Ctx) {
	p := as.currentPanel(ctx)
	as.respond(ctx, p, p.NewDraft())
}

func (as *ApiServer) selectProject(ctx *fiber.Ctx) {
	p := as.currentPanel(ctx)
	as.respond(ctx, p, p.SelectProject(ctx.Context(), ctx.Params("id")))
}

func (as *ApiServer) imageLoaded(ctx *fiber.Ctx) {
	p := as.currentPanel(ctx)
	p.ImageLoaded(ctx.Params("id"))
	as.respond(ctx, p, nil)
}

func (as *ApiServer) deleteProject(ctx *fiber.Ctx) {
	p := as.currentPanel(ctx)
	as.respond(ctx, p, p.DeleteProject(ctx.Context(), ctx.Params("id")))
}

func (as *ApiServer) uploadImage(ctx *fiber.Ctx) {
	p := as.currentPanel(ctx)

	header, err := ctx.FormFile("file")
	if err != nil {
		ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Missing file"})
		return
	}
	f, err := header.Open()
	if err != nil {
		ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		return
	}

	as.respond(ctx, p, p.UploadImage(ctx.Context(), header.Filename, data))
}

func (as *ApiServer) discardImage(ctx *fiber.Ctx) {
	p := as.currentPanel(ctx)
	as.respond(ctx, p, p.DiscardImage(ctx.Context()))
}

// saveDraft takes the form's text fields, then saves the draft.
func (as *ApiServer) saveDraft(ctx *fiber.Ctx) {
	p := as.currentPanel(ctx)
	if err := p.UpdateDraft(ctx.FormValue("name"), ctx.FormValue("description")); err != nil {
		as.respond(ctx, p, err)
		return
	}
	as.respond(ctx, p, p.Save(ctx.Context()))
}
