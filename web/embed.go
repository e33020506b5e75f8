package web

import "embed"

// TemplatesFS holds the shared layout and one file per page.
//
//go:embed templates/layout/*.html templates/pages/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets (css/js).
//
//go:embed static/*
var StaticFS embed.FS
