// ABOUTME: Server-rendered settings section: header, help text, toggle and editor
// ABOUTME: Help text is Markdown converted with goldmark; login stores the token in a cookie

package console

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/2389/hookpanel/internal/auth"
	"github.com/2389/hookpanel/internal/webhook"
)

// Section strings.
const (
	SectionTitle    = "Pingdom webhooks settings"
	SectionSubtitle = "Settings for the Pingdom Webhooks"
	ToggleLabel     = "Activate Webhook"
	ToggleHelpText  = "When the hook is not enabled, it is not possible to send the data to it."
)

// renderHelp converts Markdown help text to HTML. Empty text falls back to
// the embedded default.
func renderHelp(markdown string) (template.HTML, error) {
	src := []byte(markdown)
	if strings.TrimSpace(markdown) == "" {
		var err error
		src, err = helpFS.ReadFile("help/section.md")
		if err != nil {
			return "", fmt.Errorf("reading default help: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := goldmark.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func parsePages() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Template data types
type loginData struct {
	Title    string
	PluginID string
	Error    string
}

type settingsData struct {
	Title       string
	Subtitle    string
	Help        template.HTML
	PluginID    string
	Subject     string
	ToggleLabel string
	ToggleHelp  string
	Enabled     bool
	SaveNeeded  bool
	View        webhook.View
}

func (c *Console) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := c.pages.ExecuteTemplate(&buf, name, data); err != nil {
		c.logger.Error("failed to render page", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (c *Console) handleSettingsPage(w http.ResponseWriter, r *http.Request) {
	pluginID := r.PathValue("plugin")
	if err := c.checkPlugin(pluginID); err != nil {
		c.writeError(w, r, err)
		return
	}

	if auth.FromContext(r.Context()) == nil {
		c.render(w, http.StatusUnauthorized, "login.html", loginData{
			Title:    "Sign in",
			PluginID: pluginID,
		})
		return
	}

	d, err := c.draftFor(r.Context(), pluginID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	var data settingsData
	_ = d.Do(func(ed *webhook.Editor) error {
		data = settingsData{
			Title:       SectionTitle,
			Subtitle:    SectionSubtitle,
			Help:        c.help,
			PluginID:    pluginID,
			Subject:     auth.SubjectFromContext(r.Context()),
			ToggleLabel: ToggleLabel,
			ToggleHelp:  ToggleHelpText,
			Enabled:     d.Enabled(),
			SaveNeeded:  d.SaveNeeded(),
			View:        ed.View(c.urlFunc(pluginID)),
		}
		return nil
	})

	c.render(w, http.StatusOK, "settings.html", data)
}

// handleLogin verifies a pasted token and stores it in the session cookie.
func (c *Console) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	pluginID := c.config.PluginID
	token := strings.TrimSpace(r.PostFormValue("token"))

	subject, err := c.verifier.Verify(token)
	if err != nil {
		c.logger.Info("login rejected", "error", err)
		c.render(w, http.StatusUnauthorized, "login.html", loginData{
			Title:    "Sign in",
			PluginID: pluginID,
			Error:    "That token was not accepted.",
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	c.logger.Info("admin signed in", "subject", subject)
	http.Redirect(w, r, "/admin/plugins/"+pluginID+"/settings", http.StatusSeeOther)
}

func (c *Console) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.Redirect(w, r, "/admin/plugins/"+c.config.PluginID+"/settings", http.StatusSeeOther)
}
