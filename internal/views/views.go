// Package views maps application views to URL paths and back. Clients use it to build deep links
// and to restore the current view from a path.
package views

import (
	"fmt"
	"net/url"
	"strings"
)

// AppView identifies a screen of the marketplace front end.
type AppView string

const (
	Home            AppView = "home"
	Product         AppView = "product"
	Cart            AppView = "cart"
	Checkout        AppView = "checkout"
	Orders          AppView = "orders"
	OrderDetail     AppView = "order_detail"
	VendorDashboard AppView = "vendor_dashboard"
	AdminDashboard  AppView = "admin_dashboard"
	SupportQueue    AppView = "support_queue"
	Disputes        AppView = "disputes"
	KYC             AppView = "kyc"
	Promotions      AppView = "promotions"
	ContentPage     AppView = "content_page"
	Login           AppView = "login"
	Register        AppView = "register"
	NotFound        AppView = "not_found"
)

// Route is a resolved view with its path parameter, if any.
type Route struct {
	View  AppView `json:"view"`
	Param string  `json:"param,omitempty"`
}

type pattern struct {
	view     AppView
	segments []string
}

// patterns are matched in order. A segment starting with ':' captures the parameter.
var patterns = []pattern{
	{Home, nil},
	{Product, []string{"products", ":id"}},
	{Cart, []string{"cart"}},
	{Checkout, []string{"checkout"}},
	{Orders, []string{"orders"}},
	{OrderDetail, []string{"orders", ":id"}},
	{VendorDashboard, []string{"vendor"}},
	{AdminDashboard, []string{"admin"}},
	{SupportQueue, []string{"support"}},
	{Disputes, []string{"disputes"}},
	{KYC, []string{"kyc"}},
	{Promotions, []string{"promotions"}},
	{ContentPage, []string{"pages", ":slug"}},
	{Login, []string{"login"}},
	{Register, []string{"register"}},
	{NotFound, []string{"404"}},
}

// All lists every view in routing order.
func All() []AppView {
	out := make([]AppView, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, p.view)
	}
	return out
}

// NeedsParam reports whether the view's path carries an id or slug.
func (v AppView) NeedsParam() bool {
	p, ok := lookup(v)
	return ok && p.param() >= 0
}

// PathFor builds the path of view. Views with an id or slug require a non-empty param.
func PathFor(view AppView, param string) (string, error) {
	p, ok := lookup(view)
	if !ok {
		return "", fmt.Errorf("unknown view %q", view)
	}
	idx := p.param()
	if idx >= 0 && strings.TrimSpace(param) == "" {
		return "", fmt.Errorf("view %s needs a parameter", view)
	}
	parts := make([]string, len(p.segments))
	for i, seg := range p.segments {
		if i == idx {
			seg = url.PathEscape(strings.TrimSpace(param))
		}
		parts[i] = seg
	}
	return "/" + strings.Join(parts, "/"), nil
}

// Resolve maps a path back to its view. Query strings, fragments and trailing slashes are
// ignored; unknown paths resolve to NotFound.
func Resolve(path string) Route {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	for _, p := range patterns {
		if len(p.segments) != len(segments) {
			continue
		}
		route := Route{View: p.view}
		matched := true
		for i, seg := range p.segments {
			if strings.HasPrefix(seg, ":") {
				value, err := url.PathUnescape(segments[i])
				if err != nil {
					matched = false
					break
				}
				route.Param = value
				continue
			}
			if !strings.EqualFold(seg, segments[i]) {
				matched = false
				break
			}
		}
		if matched {
			return route
		}
	}
	return Route{View: NotFound}
}

func lookup(view AppView) (pattern, bool) {
	for _, p := range patterns {
		if p.view == view {
			return p, true
		}
	}
	return pattern{}, false
}

func (p pattern) param() int {
	for i, seg := range p.segments {
		if strings.HasPrefix(seg, ":") {
			return i
		}
	}
	return -1
}
