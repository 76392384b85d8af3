package web

import "embed"

// StaticFS embeds the console page and its assets.
//
//go:embed static/*
var StaticFS embed.FS
