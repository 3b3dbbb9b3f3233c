package selection

import (
	"testing"

	"github.com/xming13/GoGovSG/pkg/links"
)

func TestSelectResolveClear(t *testing.T) {
	var s State
	items := []links.Summary{{ShortURL: "a"}, {ShortURL: "b", LongURL: "https://b.example"}}

	if _, ok := s.Resolve(items); ok {
		t.Error("zero State should resolve nothing")
	}

	s.Select("b")
	got, ok := s.Resolve(items)
	if !ok || got.LongURL != "https://b.example" {
		t.Errorf("Resolve = %+v, %v", got, ok)
	}

	s.Clear()
	if _, ok := s.Selected(); ok {
		t.Error("Clear left a selection")
	}
}

func TestResolveMissingItem(t *testing.T) {
	var s State
	s.Select("gone")

	if _, ok := s.Resolve([]links.Summary{{ShortURL: "other"}}); ok {
		t.Error("missing item should not resolve")
	}
	if _, ok := s.Resolve(nil); ok {
		t.Error("nil page should not resolve")
	}
	if key, ok := s.Selected(); !ok || key != "gone" {
		t.Errorf("selection lost: %q %v", key, ok)
	}
}

func TestClick(t *testing.T) {
	var redirected string
	s := State{Redirect: func(path string) { redirected = path }}

	s.Click("wide", false)
	if redirected != "/wide" {
		t.Errorf("redirect = %q", redirected)
	}
	if _, ok := s.Selected(); ok {
		t.Error("wide click should not select")
	}

	s.Click("narrow", true)
	if key, _ := s.Selected(); key != "narrow" {
		t.Errorf("selected = %q", key)
	}
}
