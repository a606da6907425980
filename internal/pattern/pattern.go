// Package pattern builds the compiled matcher applied to every crawled page.
//
// Built-in patterns (phone, email) and a user-supplied expression can be
// combined; the result matches whatever any of them matches.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// Built-in pattern names.
const (
	Phone = "phone"
	Email = "email"
)

// Built-in expressions.
const (
	// PhoneExpr matches North American style numbers such as "(985) 655-2500",
	// "123-123-1234", "123.123.1234", "123/123.1234" and "012 345 6789".
	PhoneExpr = `\(\d{3}\)\s?\d{3}[-.]\d{4}|\d{3}[-./\s]\d{3}[-.\s]\d{4}`

	// EmailExpr matches addresses such as "test.email@test.org".
	EmailExpr = `[0-9a-zA-Z](?:[-.\w]*[0-9a-zA-Z])*@(?:[0-9a-zA-Z][-\w]*[0-9a-zA-Z]\.)+[a-zA-Z]{2,9}`
)

// ErrNoPattern is returned when neither a built-in nor a custom expression
// was requested.
var ErrNoPattern = errors.New("no pattern specified: use --phone, --email, --pattern or --regex")

// ErrUnknownBuiltin is returned by Lookup for names that are not built in.
var ErrUnknownBuiltin = errors.New("unknown built-in pattern")

// Error reports a user expression that failed to compile.
type Error struct {
	// Expr is the expression as given by the user.
	Expr string
	// Err is the compile error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("invalid regex pattern %q: %v", e.Expr, e.Err)
}

// Unwrap returns the compile error.
func (e *Error) Unwrap() error {
	return e.Err
}

var builtins = map[string]string{
	Phone: PhoneExpr,
	Email: EmailExpr,
}

// builtinOrder fixes the order in which built-ins are combined and named.
var builtinOrder = []string{Phone, Email}

func canonicalName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Lookup returns the expression of a built-in pattern. Names are compared
// case-insensitively.
func Lookup(name string) (string, error) {
	expr, ok := builtins[canonicalName(name)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownBuiltin, name)
	}
	return expr, nil
}

// Options selects which patterns to combine.
type Options struct {
	// Phone enables the built-in phone number pattern.
	Phone bool
	// Email enables the built-in e-mail pattern.
	Email bool
	// Builtins names further built-in patterns, as listed in a
	// configuration file or given with --pattern. Names are
	// case-insensitive.
	Builtins []string
	// Custom is a user-supplied regular expression. Empty means none.
	Custom string
}

// builtinNames returns the selected built-ins in canonical order without
// duplicates. Unknown names are left out and reported by the error.
func (o Options) builtinNames() ([]string, error) {
	selected := map[string]bool{Phone: o.Phone, Email: o.Email}
	var err error
	for _, name := range o.Builtins {
		if _, lookupErr := Lookup(name); lookupErr != nil {
			if err == nil {
				err = lookupErr
			}
			continue
		}
		selected[canonicalName(name)] = true
	}

	var names []string
	for _, name := range builtinOrder {
		if selected[name] {
			names = append(names, name)
		}
	}
	return names, err
}

// Empty reports whether no pattern was requested.
func (o Options) Empty() bool {
	return !o.Phone && !o.Email && len(o.Builtins) == 0 && o.Custom == ""
}

// Names returns a short description of the selected patterns, such as
// "phone|email|regex:child_\d+".
func (o Options) Names() string {
	parts, _ := o.builtinNames()
	if o.Custom != "" {
		parts = append(parts, "regex:"+o.Custom)
	}
	return strings.Join(parts, "|")
}

// Compile combines the selected patterns with logical OR and compiles them.
// The user expression is compiled on its own first so that a syntax error is
// reported against the user's input rather than the combined expression.
func Compile(opts Options) (*regexp.Regexp, error) {
	if opts.Empty() {
		return nil, ErrNoPattern
	}

	names, err := opts.builtinNames()
	if err != nil {
		return nil, err
	}

	var alternatives []string
	for _, name := range names {
		expr, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		alternatives = append(alternatives, expr)
	}
	if opts.Custom != "" {
		if _, err := regexp.Compile(opts.Custom); err != nil {
			return nil, &Error{Expr: opts.Custom, Err: err}
		}
		alternatives = append(alternatives, opts.Custom)
	}

	if len(alternatives) == 1 {
		return regexp.Compile(alternatives[0])
	}

	groups := make([]string, len(alternatives))
	for i, alt := range alternatives {
		groups[i] = "(?:" + alt + ")"
	}
	return regexp.Compile(strings.Join(groups, "|"))
}
