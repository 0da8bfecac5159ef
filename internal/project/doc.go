// Package project locates a deck project on disk and decodes its document.
//
// A project is a directory holding a deck document (reveal.yaml, reveal.yml,
// reveal.json or reveal.toml) and a static/ asset mirror. The Project value
// is the explicit handle passed to the resolver, renderer, server and
// packager.
package project
