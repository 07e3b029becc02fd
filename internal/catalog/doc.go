// Package catalog builds a [models.Catalog] from its sources.
//
// The album ships as an embedded TOML file (see [Default]). Alternate catalogs can be read
// from a TOML file with the same shape ([LoadFile]) or imported from markdown ([ParseMarkdown]),
// where each "# Title" heading starts a track.
//
//	[[tracks]]
//	index = 1
//	title = "son defa"
//	image = "assets/img/01.png"
//	key = "son defa"
//	paragraphs = ["..."]
//	verses = ["...", ""]
package catalog
