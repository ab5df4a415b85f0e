package views

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPathFor_RoundTrip(t *testing.T) {
	for _, view := range All() {
		param := ""
		if view.NeedsParam() {
			param = "abc 123"
		}
		path, err := PathFor(view, param)
		if err != nil {
			t.Fatalf("PathFor(%s): %v", view, err)
		}
		got := Resolve(path)
		want := Route{View: view, Param: param}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("round trip of %s via %s (-want +got):\n%s", view, path, diff)
		}
	}
}

func TestPathFor(t *testing.T) {
	cases := []struct {
		view  AppView
		param string
		want  string
	}{
		{Home, "", "/"},
		{Product, "PRD-1", "/products/PRD-1"},
		{ContentPage, "about-us", "/pages/about-us"},
		{OrderDetail, "ord/1", "/orders/ord%2F1"},
	}
	for _, tc := range cases {
		got, err := PathFor(tc.view, tc.param)
		if err != nil {
			t.Fatalf("PathFor(%s): %v", tc.view, err)
		}
		if got != tc.want {
			t.Errorf("PathFor(%s, %q) = %q, want %q", tc.view, tc.param, got, tc.want)
		}
	}

	if _, err := PathFor(Product, " "); err == nil {
		t.Error("expected missing parameter to fail")
	}
	if _, err := PathFor("wishlist", ""); err == nil {
		t.Error("expected unknown view to fail")
	}
}

func TestResolve(t *testing.T) {
	cases := map[string]Route{
		"":                     {View: Home},
		"/orders/":             {View: Orders},
		"/ORDERS/ORD-9?tab=x":  {View: OrderDetail, Param: "ORD-9"},
		"/pages/faq#shipping":  {View: ContentPage, Param: "faq"},
		"/products":            {View: NotFound},
		"/products/1/reviews":  {View: NotFound},
		"/definitely/not/here": {View: NotFound},
	}
	for path, want := range cases {
		if diff := cmp.Diff(want, Resolve(path)); diff != "" {
			t.Errorf("Resolve(%q) (-want +got):\n%s", path, diff)
		}
	}
}
