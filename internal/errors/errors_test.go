package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    CodeConfigInvalid,
			wantMsg: "Invalid configuration",
			wantCat: CategoryConfig,
		},
		{
			name:    "directory error",
			code:    CodeDirectoryOpen,
			wantMsg: "Directory could not be opened",
			wantCat: CategoryDirectory,
		},
		{
			name:    "search error",
			code:    CodeSearchParams,
			wantMsg: "Invalid search parameters",
			wantCat: CategorySearch,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "unknown command %q", "serv")
	if err.Message != `unknown command "serv"` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI || err.Code != "" {
		t.Errorf("err = %+v", err)
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"code only", New(CodeSearchFailed), "E301: Search failed"},
		{"no code", &Error{Message: "plain"}, "plain"},
		{"field", New(CodeConfigInvalid).WithField("server.addr"), "E103: Invalid configuration (server.addr)"},
		{"wrapped", New(CodeDirectoryOpen).Wrap(fmt.Errorf("disk full")), "E202: Directory could not be opened: disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := New(CodeDirectoryOpen).Wrap(cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeSearchFailed) != nil {
		t.Error("FromError(nil) should be nil")
	}

	cause := stderrors.New("boom")
	e := FromError(cause, CodeSearchFailed)
	if e.Code != CodeSearchFailed || e.Wrapped != cause {
		t.Errorf("FromError = %+v", e)
	}

	coded := New(CodeConfigParse)
	wrapped := fmt.Errorf("loading: %w", coded)
	if got := FromError(wrapped, CodeSearchFailed); got != coded {
		t.Errorf("FromError should return the coded error in the chain, got %+v", got)
	}
}

func TestIs(t *testing.T) {
	inner := New(CodeSearchTimeout)
	outer := New(CodeSearchFailed).Wrap(fmt.Errorf("fetch: %w", inner))

	if !Is(outer, CodeSearchFailed) || !Is(outer, CodeSearchTimeout) {
		t.Error("Is should match every code in the chain")
	}
	if Is(outer, CodeConfigParse) {
		t.Error("Is matched an absent code")
	}
	if Is(stderrors.New("plain"), CodeSearchFailed) || Is(nil, CodeSearchFailed) {
		t.Error("Is matched an uncoded error")
	}
	if CodeOf(fmt.Errorf("x: %w", inner)) != CodeSearchTimeout {
		t.Error("CodeOf missed the wrapped code")
	}
}

func TestCodesAreGrouped(t *testing.T) {
	prefix := map[Category]string{
		CategoryConfig:    "E1",
		CategoryDirectory: "E2",
		CategorySearch:    "E3",
		CategoryProtocol:  "E4",
		CategoryCLI:       "E5",
	}
	codes := Codes()
	if len(codes) == 0 {
		t.Fatal("no codes registered")
	}
	for i, code := range codes {
		tmpl, ok := Lookup(code)
		if !ok {
			t.Fatalf("Lookup(%s) failed", code)
		}
		if !strings.HasPrefix(code, prefix[tmpl.Category]) {
			t.Errorf("%s has category %s", code, tmpl.Category)
		}
		if tmpl.Message == "" {
			t.Errorf("%s has no message", code)
		}
		if i > 0 && codes[i-1] >= code {
			t.Errorf("Codes() not sorted at %s", code)
		}
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New(CodeConfigInvalid).
		WithField("search.defaultRows").
		WithDetail("must be greater than zero").
		WithSuggestion("Set search.defaultRows to 10").
		Wrap(stderrors.New("got -1"))

	out := err.Format()
	for _, want := range []string{
		"ERROR E103: Invalid configuration",
		"search.defaultRows",
		"must be greater than zero",
		"Cause: got -1",
		"Hint: Set search.defaultRows to 10",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("Format() has colors while disabled")
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 40), 20)
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line too long: %q", l)
		}
	}
	if len(lines) < 2 {
		t.Errorf("expected wrapping, got %v", lines)
	}
}

func TestPrint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Print(&buf, fmt.Errorf("wrap: %w", New(CodeCLIArgs)))
	if !strings.Contains(buf.String(), "ERROR E501") {
		t.Errorf("Print coded = %q", buf.String())
	}

	buf.Reset()
	Print(&buf, stderrors.New("plain"))
	if !strings.Contains(buf.String(), "ERROR: plain") {
		t.Errorf("Print plain = %q", buf.String())
	}
}
