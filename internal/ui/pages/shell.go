// Пакет pages — HTML-страницы портала (templ-компоненты).
// shell.go — оболочка: приветствие, меню по возможностям, выбор языка.
package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// MenuLink — пункт меню с переведённой подписью.
type MenuLink struct {
	Label string
	Href  string
}

// ShellData — данные оболочки.
type ShellData struct {
	// Lang — язык страницы (атрибут lang)
	Lang string
	// Title — заголовок приложения
	Title string
	// SignedIn — есть подтверждённый пользователь
	SignedIn bool
	// Greeting — приветствие ("Добро пожаловать, Анна")
	Greeting string
	// SignedInAs — строка с ролью пользователя
	SignedInAs string
	// GuestText — текст для анонимной сессии
	GuestText string
	// Menu — видимые пункты меню в объявленном порядке
	Menu []MenuLink
	// Home — домашний маршрут
	Home string
	// HomeLabel, SignInLabel, SignOutLabel, LanguageLabel — подписи элементов
	HomeLabel     string
	SignInLabel   string
	SignOutLabel  string
	LanguageLabel string
}

// Shell рендерит оболочку портала.
func Shell(data ShellData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw("<!DOCTYPE html>\n<html lang=\"")
		p.text(data.Lang)
		p.raw("\"><head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"><title>")
		p.text(data.Title)
		p.raw("</title></head><body><header><a class=\"brand\" href=\"")
		p.url(data.Home)
		p.raw("\">")
		p.text(data.Title)
		p.raw("</a>")

		if len(data.Menu) > 0 {
			p.raw("<nav><ul>")
			for _, item := range data.Menu {
				p.raw("<li><a href=\"")
				p.url(item.Href)
				p.raw("\">")
				p.text(item.Label)
				p.raw("</a></li>")
			}
			p.raw("</ul></nav>")
		}

		p.raw("<form method=\"post\" action=\"/api/language\" class=\"lang\"><label>")
		p.text(data.LanguageLabel)
		p.raw(" <select name=\"lang\" onchange=\"this.form.submit()\">")
		for _, lang := range []string{"en", "ru"} {
			p.raw("<option value=\"" + lang + "\"")
			if lang == data.Lang {
				p.raw(" selected")
			}
			p.raw(">" + lang + "</option>")
		}
		p.raw("</select></label></form></header><main>")

		if data.SignedIn {
			p.raw("<h1>")
			p.text(data.Greeting)
			p.raw("</h1><p class=\"actor\">")
			p.text(data.SignedInAs)
			p.raw("</p><p><a href=\"")
			p.url(data.Home)
			p.raw("\">")
			p.text(data.HomeLabel)
			p.raw("</a></p><form method=\"post\" action=\"/auth/logout\"><button type=\"submit\">")
			p.text(data.SignOutLabel)
			p.raw("</button></form>")
		} else {
			p.raw("<p>")
			p.text(data.GuestText)
			p.raw("</p><p><a href=\"/login\">")
			p.text(data.SignInLabel)
			p.raw("</a></p>")
		}

		p.raw("</main></body></html>")
		return p.err
	})
}

// printer пишет фрагменты HTML, запоминая первую ошибку записи.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

// text пишет экранированный текст.
func (p *printer) text(s string) {
	p.raw(templ.EscapeString(s))
}

// url пишет экранированный URL; небезопасные схемы заменяются templ.
func (p *printer) url(s string) {
	p.raw(templ.EscapeString(string(templ.URL(s))))
}
