// pages.go — HTML-оболочка портала (GET /).
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/dochub-portal/internal/ui/pages"
)

// Home обрабатывает GET / — оболочку с приветствием и меню.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	state := h.sessionState(r)
	loc := h.bundle.Localizer(r.Context())

	data := pages.ShellData{
		Lang:          state.Lang,
		Title:         loc.T("app.title"),
		SignedIn:      state.Authenticated,
		GuestText:     loc.T("shell.guest"),
		Home:          string(state.Home),
		HomeLabel:     loc.T("shell.home"),
		SignInLabel:   loc.T("shell.sign_in"),
		SignOutLabel:  loc.T("shell.sign_out"),
		LanguageLabel: loc.T("shell.language"),
	}
	if state.User != nil {
		data.Greeting = loc.Tf("shell.greeting", state.User.Name)
		data.SignedInAs = loc.Tf("shell.signed_in_as", loc.T("actor."+state.Actor.String()))
	}
	for _, item := range state.Menu {
		data.Menu = append(data.Menu, pages.MenuLink{Label: item.Label, Href: string(item.Route)})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := pages.Shell(data).Render(r.Context(), w); err != nil {
		h.logger.Error("Ошибка рендеринга оболочки",
			slog.String("error", err.Error()),
		)
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
	}
}
