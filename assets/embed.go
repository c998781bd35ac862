package assets

import _ "embed"

// EmailHTML is the HTML part of outgoing notifications. The plain-text part
// is assembled in code; this wrapper only styles the body and adds the
// call-to-action link.
//
//go:embed email.html.tmpl
var EmailHTML string
