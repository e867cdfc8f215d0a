// Package web serves the citizen-facing pages and the JSON API.
package web

import "strings"

// View identifies the page rendered for a route.
type View string

const (
	ViewReport       View = "report"
	ViewRegion       View = "region"
	ViewMine         View = "mine"
	ViewPrescription View = "prescription"
	ViewNotFound     View = "not_found"
)

// Page is the static description of a view.
type Page struct {
	View     View
	Title    string
	Template string
}

var pages = map[View]Page{
	ViewReport:       {View: ViewReport, Title: "Denunciar", Template: "report.html"},
	ViewRegion:       {View: ViewRegion, Title: "Na sua região", Template: "region.html"},
	ViewMine:         {View: ViewMine, Title: "Minhas denúncias", Template: "mine.html"},
	ViewPrescription: {View: ViewPrescription, Title: "Prescrição Fácil", Template: "prescription.html"},
	ViewNotFound:     {View: ViewNotFound, Title: "Página não encontrada", Template: "not_found.html"},
}

// SelectView maps a request path to the page it renders. It depends only on
// route, so the same path always yields the same page.
func SelectView(route string) Page {
	route = strings.TrimSuffix(strings.TrimSpace(route), "/")
	switch route {
	case "":
		return pages[ViewReport]
	case "/regiao":
		return pages[ViewRegion]
	case "/minhas":
		return pages[ViewMine]
	case "/prescricao":
		return pages[ViewPrescription]
	default:
		return pages[ViewNotFound]
	}
}

// NavItem is one entry of the top navigation.
type NavItem struct {
	Path   string
	Title  string
	Active bool
}

func navigation(current View) []NavItem {
	items := []NavItem{
		{Path: "/", Title: pages[ViewReport].Title},
		{Path: "/regiao", Title: pages[ViewRegion].Title},
		{Path: "/minhas", Title: pages[ViewMine].Title},
		{Path: "/prescricao", Title: pages[ViewPrescription].Title},
	}
	for i := range items {
		items[i].Active = SelectView(items[i].Path).View == current
	}
	return items
}
