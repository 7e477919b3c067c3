// Package obsidian provides a client for the Obsidian Local REST API.
//
// The Obsidian Local REST API is a simple HTTP API that allows you to interact with your Obsidian vault.
// pinsync uses it to read and write vault files, to address daily notes by date, to edit the file
// open in the editor, and to find notes by their frontmatter.
package obsidian
